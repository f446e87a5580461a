package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env string

	// Database
	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT (admin sessions)
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Default admin, seeded at startup
	AdminUsername string
	AdminPassword string

	// Token revocation
	RevocationBackend    string
	RevocationMaxEntries int
	RedisAddr            string
	RedisPassword        string
	RedisDB              int

	// Image storage
	StorageBackend     string
	StoragePath        string
	S3Bucket           string
	S3Region           string
	S3Endpoint         string
	S3Prefix           string
	PublicImageBaseURL string
	MaxUploadBytes     int
	ImageMaxWidth      int
	ImageQuality       int
	ImageMaxPixels     int

	// CAPTCHA
	HCaptchaSecret    string
	HCaptchaVerifyURL string
	CaptchaBypass     bool

	// Access policy
	APIKeys     string
	CORSOrigins string
	ProxyHeader string

	// Observability
	MetricsEnabled bool
	LogLevel       string
	LogFormat      string
	LogRetention   time.Duration
	SentryDSN      string

	// Server
	Port string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	env := getEnv("APP_ENV", "development")

	return &Config{
		Env: env,

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "data/gallery.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "photowall"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 7*24*time.Hour),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		RevocationBackend:    getEnv("REVOCATION_BACKEND", "memory"),
		RevocationMaxEntries: parseInt(getEnv("REVOCATION_MAX_ENTRIES", "1000"), 1000),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              parseInt(getEnv("REDIS_DB", "0"), 0),

		StorageBackend:     getEnv("STORAGE_BACKEND", "local"),
		StoragePath:        getEnv("STORAGE_PATH", "public/images"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3Prefix:           getEnv("S3_PREFIX", "images/"),
		PublicImageBaseURL: getEnv("PUBLIC_IMAGE_BASE_URL", "/images"),
		MaxUploadBytes:     parseInt(getEnv("MAX_UPLOAD_BYTES", "5242880"), 5*1024*1024),
		ImageMaxWidth:      parseInt(getEnv("IMAGE_MAX_WIDTH", "1200"), 1200),
		ImageQuality:       parseInt(getEnv("IMAGE_QUALITY", "80"), 80),
		ImageMaxPixels:     parseInt(getEnv("IMAGE_MAX_PIXELS", "40000000"), 40_000_000),

		HCaptchaSecret:    getEnv("HCAPTCHA_SECRET", ""),
		HCaptchaVerifyURL: getEnv("HCAPTCHA_VERIFY_URL", "https://hcaptcha.com/siteverify"),
		CaptchaBypass:     parseBool(getEnv("CAPTCHA_BYPASS", ""), env != "production"),

		APIKeys:     getEnv("API_KEYS", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		ProxyHeader: getEnv("PROXY_HEADER", ""),

		MetricsEnabled: parseBool(getEnv("METRICS_ENABLED", "true"), true),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		LogRetention:   parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),
		SentryDSN:      getEnv("SENTRY_DSN", ""),

		Port: getEnv("PORT", "8080"),
	}
}

// Validate reports configuration that must stop the server from starting.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	switch c.DBDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return errors.New("DB_DRIVER must be sqlite, postgres or mysql")
	}
	if c.DBDriver != "sqlite" && c.DBPassword == "" {
		return errors.New("DB_PASSWORD environment variable is required")
	}
	if c.IsProduction() {
		if c.CaptchaBypass {
			return errors.New("CAPTCHA_BYPASS cannot be enabled in production")
		}
		if c.HCaptchaSecret == "" {
			return errors.New("HCAPTCHA_SECRET environment variable is required in production")
		}
	}
	if c.StorageBackend == "s3" && c.S3Bucket == "" {
		return errors.New("S3_BUCKET is required for the s3 storage backend")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) DSN() string {
	switch c.DBDriver {
	case "mysql":
		return c.DBUser + ":" + c.DBPassword +
			"@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName +
			"?charset=utf8mb4&parseTime=True&loc=UTC"
	case "sqlite":
		return c.DBPath + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	}
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// APIKeyList returns the configured external API keys.
func (c *Config) APIKeyList() []string {
	return parseCSV(c.APIKeys)
}

// AllowedOrigins returns CORS origins, empty when any origin is allowed.
func (c *Config) AllowedOrigins() []string {
	if c.CORSOrigins == "*" {
		return nil
	}
	return parseCSV(c.CORSOrigins)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
