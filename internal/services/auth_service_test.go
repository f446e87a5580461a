package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/config"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/database"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/models"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/repository"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/revocation"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuth(t *testing.T) (*services.AuthService, *gorm.DB) {
	t.Helper()
	db := database.OpenTest(t)
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 7 * 24 * time.Hour,
		AdminUsername:    "admin",
		AdminPassword:    "admin123",
	}
	svc := services.NewAuthService(repository.NewAdminRepository(db), revocation.NewMemoryStore(1000), cfg)
	require.NoError(t, svc.EnsureDefaultAdmin(context.Background()))
	return svc, db
}

func TestEnsureDefaultAdminIsIdempotent(t *testing.T) {
	svc, db := setupAuth(t)
	require.NoError(t, svc.EnsureDefaultAdmin(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.AdminUser{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, db := setupAuth(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	assert.Equal(t, services.RoleAdmin, resp.Admin.Role)

	access, err := svc.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, services.TokenTypeAccess, access["type"])
	assert.Equal(t, "admin", access["username"])
	assert.NotEmpty(t, access["jti"])

	refresh, err := svc.Parse(resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, services.TokenTypeRefresh, refresh["type"])

	var admin models.AdminUser
	require.NoError(t, db.First(&admin, "username = ?", "admin").Error)
	assert.NotNil(t, admin.LastLogin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "admin", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "ghost", "admin123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestRefreshRequiresRefreshType(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()
	resp, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	claims, err := svc.Parse(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, services.TokenTypeAccess, claims["type"])

	_, err = svc.Refresh(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()
	resp, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return time.Now().Add(8 * 24 * time.Hour) })
	_, err = svc.Refresh(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestLogoutRevokesBothTokens(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()
	resp, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, resp.AccessToken, resp.RefreshToken))

	revoked, err := svc.IsRevoked(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = svc.Refresh(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestCreateAdminValidatesPassword(t *testing.T) {
	svc, _ := setupAuth(t)
	ctx := context.Background()

	_, err := svc.CreateAdmin(ctx, "second", "123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	created, err := svc.CreateAdmin(ctx, "admin", "another-password")
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, svc.SetPassword(ctx, "admin", "rotated-pass"))
	_, err = svc.Login(ctx, "admin", "rotated-pass")
	assert.NoError(t, err)
	assert.ErrorIs(t, svc.SetPassword(ctx, "ghost", "rotated-pass"), repository.ErrAdminNotFound)
}
