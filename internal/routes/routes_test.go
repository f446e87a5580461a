package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/captcha"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/config"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/database"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/dto"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/imaging"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/repository"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/revocation"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/routes"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/services"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "route-test-secret"
	captchaToken = "10000000-aaaa-bbbb-cccc-000000000001"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:                  "test",
		DBDriver:             "sqlite",
		JWTSecret:            testSecret,
		JWTAccessExpiry:      15 * time.Minute,
		JWTRefreshExpiry:     7 * 24 * time.Hour,
		AdminUsername:        "admin",
		AdminPassword:        "admin123",
		RevocationBackend:    "memory",
		RevocationMaxEntries: 1000,
		StorageBackend:       "local",
		PublicImageBaseURL:   "/images",
		MaxUploadBytes:       1 << 20,
		ImageMaxWidth:        200,
		ImageQuality:         80,
		CaptchaBypass:        true,
		CORSOrigins:          "*",
		MetricsEnabled:       true,
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *fiber.App {
	t.Helper()
	ctx := context.Background()
	db := database.OpenTest(t)

	files, err := storage.NewLocalStore(t.TempDir(), cfg.PublicImageBaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = files.Close() })

	m, err := metrics.NewGalleryMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	photoRepo := repository.NewPhotoRepository(db)
	settings := services.NewSettingsService(repository.NewSettingRepository(db))
	auth := services.NewAuthService(repository.NewAdminRepository(db), revocation.NewMemoryStore(cfg.RevocationMaxEntries), cfg)
	photos := services.NewPhotoService(photoRepo, settings, files, imaging.NewProcessor(cfg.ImageMaxWidth, cfg.ImageQuality, cfg.MaxUploadBytes))
	moderation := services.NewModerationService(photoRepo, files)
	engagement := services.NewEngagementService(photoRepo)

	require.NoError(t, settings.SeedDefaults(ctx))
	require.NoError(t, auth.EnsureDefaultAdmin(ctx))

	verifier := captcha.New(cfg)
	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(auth, verifier, m),
		Photo:    handlers.NewPhotoHandler(photos, engagement, verifier, m, cfg.MaxUploadBytes),
		Admin:    handlers.NewAdminHandler(photos, moderation, db, cfg, m, files.Dir()),
		Settings: handlers.NewSettingsHandler(settings),
		Health:   handlers.NewHealthHandler(db, files, files.Dir()),
	}

	app := routes.NewApp(cfg, m)
	routes.Setup(app, cfg, h, middleware.AdminGate(auth, cfg, m), m, files.Dir())
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, body
}

func jsonRequest(method, path string, body any, token string) *http.Request {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", "route-test")
	return req
}

func login(t *testing.T, app *fiber.App) dto.AuthResponse {
	t.Helper()
	resp, body := do(t, app, jsonRequest(http.MethodPost, "/api/auth/login", dto.LoginRequest{
		Username: "admin", Password: "admin123", CaptchaToken: captchaToken,
	}, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(body, &auth))
	return auth
}

func upload(t *testing.T, app *fiber.App) (int, dto.UploadResponse) {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 40, 30))))

	var form bytes.Buffer
	w := multipart.NewWriter(&form)
	part, err := w.CreateFormFile("image", "sunset.png")
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.WriteField("captcha_token", captchaToken))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/photos/upload", &form)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, body := do(t, app, req)

	var out dto.UploadResponse
	if resp.StatusCode == http.StatusCreated {
		require.NoError(t, json.Unmarshal(body, &out))
	}
	return resp.StatusCode, out
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e.Code
}

func TestUploadApproveLikeFlow(t *testing.T) {
	app := newTestApp(t, testConfig())

	status, uploaded := upload(t, app)
	require.Equal(t, http.StatusCreated, status)
	id := uploaded.Photo.ID
	assert.Equal(t, "pending", uploaded.Photo.Status)
	assert.Equal(t, "/images/"+uploaded.Photo.Filename, uploaded.Photo.URL)

	resp, _ := do(t, app, jsonRequest(http.MethodGet, "/api/photos/"+id, nil, ""))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := do(t, app, jsonRequest(http.MethodPost, "/api/photos/"+id+"/like", nil, ""))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_ELIGIBLE", errorCode(t, body))

	auth := login(t, app)
	resp, body = do(t, app, jsonRequest(http.MethodPost, "/api/admin/photos/"+id+"/approve", nil, auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = do(t, app, jsonRequest(http.MethodPost, "/api/admin/photos/"+id+"/approve", nil, auth.AccessToken))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NOT_PENDING", errorCode(t, body))

	var like dto.LikeResponse
	resp, body = do(t, app, jsonRequest(http.MethodPost, "/api/photos/"+id+"/like", nil, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &like))
	assert.Equal(t, dto.LikeResponse{Action: "liked", Likes: 1}, like)

	resp, body = do(t, app, jsonRequest(http.MethodPost, "/api/photos/"+id+"/like", map[string]string{}, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &like))
	assert.Equal(t, dto.LikeResponse{Action: "unliked", Likes: 0}, like)

	var list dto.PhotoListResponse
	resp, body = do(t, app, jsonRequest(http.MethodGet, "/api/photos?sort=liked", nil, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Photos, 1)
	assert.Equal(t, id, list.Photos[0].ID)
	assert.False(t, list.Pagination.HasMore)

	list = dto.PhotoListResponse{}
	resp, body = do(t, app, jsonRequest(http.MethodGet, "/api/photos?page=4611686018427387904", nil, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Empty(t, list.Photos)
	assert.False(t, list.Pagination.HasMore)

	resp, _ = do(t, app, jsonRequest(http.MethodGet, "/images/"+uploaded.Photo.Filename, nil, ""))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReportTwiceConflicts(t *testing.T) {
	app := newTestApp(t, testConfig())
	_, uploaded := upload(t, app)
	path := "/api/photos/" + uploaded.Photo.ID + "/report"

	var report dto.ReportResponse
	resp, body := do(t, app, jsonRequest(http.MethodPost, path, dto.ReportRequest{Reason: "spam"}, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, 1, report.ReportCount)

	resp, body = do(t, app, jsonRequest(http.MethodPost, path, dto.ReportRequest{Reason: "other"}, ""))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_REPORTED", errorCode(t, body))

	resp, body = do(t, app, jsonRequest(http.MethodPost, path, dto.ReportRequest{Reason: "boring"}, ""))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var verr dto.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(body, &verr))
	require.Len(t, verr.Details, 1)
	assert.Equal(t, "reason", verr.Details[0].Field)

	auth := login(t, app)
	var reports dto.ReportListResponse
	resp, body = do(t, app, jsonRequest(http.MethodGet, "/api/admin/reports", nil, auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &reports))
	assert.Equal(t, 1, reports.Total)

	resp, _ = do(t, app, jsonRequest(http.MethodDelete, "/api/admin/photos/"+uploaded.Photo.ID+"/delete-reported", nil, auth.AccessToken))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, app, jsonRequest(http.MethodGet, "/api/admin/reports", nil, auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &reports))
	assert.Zero(t, reports.Total)
}

func TestLoginThrottledAfterThreeFailures(t *testing.T) {
	app := newTestApp(t, testConfig())
	bad := dto.LoginRequest{Username: "admin", Password: "wrong-pass", CaptchaToken: captchaToken}

	for i := 0; i < 3; i++ {
		resp, body := do(t, app, jsonRequest(http.MethodPost, "/api/auth/login", bad, ""))
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, body))
	}

	good := dto.LoginRequest{Username: "admin", Password: "admin123", CaptchaToken: captchaToken}
	resp, body := do(t, app, jsonRequest(http.MethodPost, "/api/auth/login", good, ""))
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var limited dto.RateLimitResponse
	require.NoError(t, json.Unmarshal(body, &limited))
	assert.Equal(t, "RATE_LIMITED", limited.Code)
	assert.Positive(t, limited.RetryAfter)
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAdminGateCodes(t *testing.T) {
	app := newTestApp(t, testConfig())
	auth := login(t, app)
	now := time.Now()

	claims := func(typ, role string, exp time.Time) jwt.MapClaims {
		return jwt.MapClaims{"sub": "1", "username": "admin", "role": role, "type": typ, "iat": now.Unix(), "exp": exp.Unix()}
	}

	cases := []struct {
		name   string
		token  string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, "NO_TOKEN"},
		{"malformed", "not-a-jwt", http.StatusForbidden, "MALFORMED_TOKEN"},
		{"expired", signed(t, testSecret, claims("access", "admin", now.Add(-time.Minute))), http.StatusForbidden, "TOKEN_EXPIRED"},
		{"bad signature", signed(t, "other-secret", claims("access", "admin", now.Add(time.Minute))), http.StatusForbidden, "INVALID_TOKEN"},
		{"refresh as access", auth.RefreshToken, http.StatusForbidden, "INVALID_TOKEN_TYPE"},
		{"wrong role", signed(t, testSecret, claims("access", "viewer", now.Add(time.Minute))), http.StatusForbidden, "INSUFFICIENT_PRIVILEGES"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, app, jsonRequest(http.MethodGet, "/api/admin/stats", nil, tc.token))
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, errorCode(t, body))
		})
	}

	resp, body := do(t, app, jsonRequest(http.MethodGet, "/api/admin/stats", nil, auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var stats repository.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Zero(t, stats.TotalPhotos)
}

func TestLogoutRevokesToken(t *testing.T) {
	app := newTestApp(t, testConfig())
	auth := login(t, app)

	resp, body := do(t, app, jsonRequest(http.MethodPost, "/api/auth/logout",
		dto.LogoutRequest{RefreshToken: auth.RefreshToken}, auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = do(t, app, jsonRequest(http.MethodGet, "/api/admin/pending", nil, auth.AccessToken))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "TOKEN_REVOKED", errorCode(t, body))

	resp, body = do(t, app, jsonRequest(http.MethodPost, "/api/auth/refresh",
		dto.RefreshRequest{RefreshToken: auth.RefreshToken}, ""))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", errorCode(t, body))
}

func TestRefreshIssuesAccessToken(t *testing.T) {
	app := newTestApp(t, testConfig())
	auth := login(t, app)

	resp, body := do(t, app, jsonRequest(http.MethodPost, "/api/auth/refresh",
		dto.RefreshRequest{RefreshToken: auth.RefreshToken}, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var refreshed dto.RefreshResponse
	require.NoError(t, json.Unmarshal(body, &refreshed))

	resp, _ = do(t, app, jsonRequest(http.MethodGet, "/api/admin/pending", nil, refreshed.AccessToken))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadsCanBeDisabled(t *testing.T) {
	app := newTestApp(t, testConfig())
	auth := login(t, app)

	resp, body := do(t, app, jsonRequest(http.MethodPut, "/api/admin/settings/uploads_enabled",
		dto.SetSettingRequest{Value: "false"}, auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	status, _ := upload(t, app)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestAPIKeyGate(t *testing.T) {
	cfg := testConfig()
	cfg.APIKeys = "pk_one,pk_two"
	cfg.CORSOrigins = "https://gallery.example"
	app := newTestApp(t, cfg)

	resp, body := do(t, app, jsonRequest(http.MethodGet, "/api/photos", nil, ""))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "API_KEY_REQUIRED", errorCode(t, body))

	req := jsonRequest(http.MethodGet, "/api/photos", nil, "")
	req.Header.Set("X-API-Key", "pk_wrong")
	resp, body = do(t, app, req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "INVALID_API_KEY", errorCode(t, body))

	resp, _ = do(t, app, jsonRequest(http.MethodGet, "/api/photos?api_key=pk_two", nil, ""))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = jsonRequest(http.MethodGet, "/api/photos", nil, "")
	req.Header.Set("Origin", "https://gallery.example")
	resp, _ = do(t, app, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t, testConfig())

	resp, body := do(t, app, jsonRequest(http.MethodGet, "/api/health", nil, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	// memory or disk pressure on the test host only downgrades to a warning
	assert.Contains(t, []string{"healthy", "warning"}, health.Status)
	assert.Equal(t, "healthy", health.Checks["database"].Status)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, body = do(t, app, jsonRequest(http.MethodGet, "/metrics", nil, ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "gallery_http_request_duration_seconds")
}

func TestAdminSettingsStatusAndKeys(t *testing.T) {
	app := newTestApp(t, testConfig())
	auth := login(t, app)

	resp, body := do(t, app, jsonRequest(http.MethodGet, "/api/admin/settings", nil, auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var settings map[string]string
	require.NoError(t, json.Unmarshal(body, &settings))
	assert.Equal(t, "Photo Wall", settings["site_name"])
	assert.Equal(t, "12", settings["feed_page_size"])

	resp, _ = do(t, app, jsonRequest(http.MethodPut, "/api/admin/settings/site_name",
		dto.SetSettingRequest{Value: "Party Wall"}, auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, app, jsonRequest(http.MethodGet, "/api/admin/settings/site_name", nil, auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Party Wall")

	resp, _ = do(t, app, jsonRequest(http.MethodDelete, "/api/admin/settings/site_name", nil, auth.AccessToken))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = do(t, app, jsonRequest(http.MethodGet, "/api/admin/settings/site_name", nil, auth.AccessToken))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))

	resp, body = do(t, app, jsonRequest(http.MethodGet, "/api/admin/system-status", nil, auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var status dto.SystemStatusResponse
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, "sqlite", status.DBDriver)
	assert.Equal(t, "memory", status.RevocationBackend)
	assert.Positive(t, status.Goroutines)

	resp, body = do(t, app, jsonRequest(http.MethodPost, "/api/admin/api-keys",
		dto.GenerateAPIKeyRequest{KeyName: "ci"}, auth.AccessToken))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))

	resp, body = do(t, app, jsonRequest(http.MethodPost, "/api/admin/api-keys",
		dto.GenerateAPIKeyRequest{KeyName: "kiosk-tablet"}, auth.AccessToken))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var key dto.APIKeyResponse
	require.NoError(t, json.Unmarshal(body, &key))
	assert.Regexp(t, `^pk_[0-9a-f]{64}$`, key.APIKey)
	assert.Equal(t, "kiosk-tablet", key.KeyName)
	created, err := time.Parse(time.RFC3339, key.CreatedAt)
	require.NoError(t, err)
	expires, err := time.Parse(time.RFC3339, key.ExpiresAt)
	require.NoError(t, err)
	assert.Equal(t, created.AddDate(0, 0, 30), expires)

	resp, body = do(t, app, jsonRequest(http.MethodPost, "/api/admin/api-keys",
		dto.GenerateAPIKeyRequest{KeyName: "kiosk-tablet", ExpiresInDays: 7}, auth.AccessToken))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &key))
	created, _ = time.Parse(time.RFC3339, key.CreatedAt)
	expires, _ = time.Parse(time.RFC3339, key.ExpiresAt)
	assert.Equal(t, created.AddDate(0, 0, 7), expires)

	resp, body = do(t, app, jsonRequest(http.MethodGet, "/api/admin/stats", nil, auth.AccessToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats repository.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Zero(t, stats.TotalPhotos)
}
