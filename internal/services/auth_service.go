package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/config"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/dto"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/models"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/repository"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/revocation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin        = "admin"
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	MinPasswordLength = 6
)

// Compared against when the username does not exist so a miss costs the
// same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("photowall-missing-admin"), bcrypt.DefaultCost)

type AuthService struct {
	admins  *repository.AdminRepository
	revoked revocation.Store
	cfg     *config.Config
	now     func() time.Time
}

func NewAuthService(admins *repository.AdminRepository, revoked revocation.Store, cfg *config.Config) *AuthService {
	return &AuthService{
		admins:  admins,
		revoked: revoked,
		cfg:     cfg,
		now:     time.Now,
	}
}

// WithClock replaces the time source used for issuing and checking tokens.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// EnsureDefaultAdmin creates the configured admin account when it is missing.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context) error {
	if s.cfg.AdminUsername == "" || s.cfg.AdminPassword == "" {
		return nil
	}
	created, err := s.CreateAdmin(ctx, s.cfg.AdminUsername, s.cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		slog.Info("default admin created", "username", s.cfg.AdminUsername)
		if s.cfg.IsProduction() && s.cfg.AdminPassword == "admin123" {
			slog.Warn("default admin uses the stock password, change ADMIN_PASSWORD")
		}
	}
	return nil
}

// CreateAdmin stores a new admin. It reports false when the username exists.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (bool, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}
	return s.admins.Create(ctx, username, hash)
}

func (s *AuthService) SetPassword(ctx context.Context, username, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return s.admins.UpdatePassword(ctx, username, hash)
}

func hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrInvalidInput, MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*dto.AuthResponse, error) {
	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrAdminNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.admins.TouchLastLogin(ctx, admin.ID, now.UTC()); err != nil {
		slog.WarnContext(ctx, "failed to record admin login", "admin_id", admin.ID, "error", err)
	}

	access, err := s.sign(admin, TokenTypeAccess, now, s.cfg.JWTAccessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(admin, TokenTypeRefresh, now, s.cfg.JWTRefreshExpiry)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.JWTAccessExpiry.Seconds()),
		Admin: dto.AdminResponse{
			ID:       admin.ID,
			Username: admin.Username,
			Role:     RoleAdmin,
		},
	}, nil
}

// Refresh issues a new access token for a valid, unrevoked refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error) {
	revoked, err := s.revoked.Contains(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	claims, err := s.Parse(refreshToken)
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	if claims["type"] != TokenTypeRefresh || claims["role"] != RoleAdmin {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	username, _ := claims["username"].(string)
	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, err
	}
	if sub, _ := claims["sub"].(string); sub != strconv.FormatUint(uint64(admin.ID), 10) {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	access, err := s.sign(admin, TokenTypeAccess, s.now(), s.cfg.JWTAccessExpiry)
	if err != nil {
		return nil, err
	}
	return &dto.RefreshResponse{
		AccessToken: access,
		ExpiresIn:   int64(s.cfg.JWTAccessExpiry.Seconds()),
	}, nil
}

// Logout revokes the access token and, when given, the refresh token. Each
// stays revoked until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if err := s.revoked.Add(ctx, accessToken, s.expiry(accessToken, s.cfg.JWTAccessExpiry)); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	if refreshToken == "" {
		return nil
	}
	if err := s.revoked.Add(ctx, refreshToken, s.expiry(refreshToken, s.cfg.JWTRefreshExpiry)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *AuthService) IsRevoked(ctx context.Context, token string) (bool, error) {
	return s.revoked.Contains(ctx, token)
}

// Parse verifies signature and expiry and returns the claims.
func (s *AuthService) Parse(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *AuthService) expiry(token string, fallback time.Duration) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return s.now().Add(fallback)
}

func (s *AuthService) sign(admin *models.AdminUser, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(admin.ID), 10),
		"username": admin.Username,
		"role":     RoleAdmin,
		"type":     tokenType,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}
