package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/apperrors"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/database"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminCreateIsInsertOrIgnore(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAdminRepository(database.OpenTest(t))

	created, err := repo.Create(ctx, "admin", "hash-1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, "admin", "hash-2")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := repo.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", admin.PasswordHash)
	assert.Nil(t, admin.LastLogin)

	require.NoError(t, repo.TouchLastLogin(ctx, admin.ID, baseTime))
	admin, err = repo.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, admin.LastLogin)
	assert.True(t, admin.LastLogin.Equal(baseTime))

	_, err = repo.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrAdminNotFound)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, "ghost", "x"), repository.ErrAdminNotFound)
}

func TestSettingsUpsert(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSettingRepository(database.OpenTest(t))

	require.NoError(t, repo.SeedDefaults(ctx, map[string]string{"uploads_enabled": "true"}))
	_, err := repo.Set(ctx, "uploads_enabled", "false")
	require.NoError(t, err)
	require.NoError(t, repo.SeedDefaults(ctx, map[string]string{"uploads_enabled": "true", "site_name": "wall"}))

	setting, err := repo.Get(ctx, "uploads_enabled")
	require.NoError(t, err)
	assert.Equal(t, "false", setting.Value)
	assert.WithinDuration(t, time.Now(), setting.UpdatedAt, time.Minute)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "site_name", all[0].Key)

	require.NoError(t, repo.Delete(ctx, "site_name"))
	assert.ErrorIs(t, repo.Delete(ctx, "site_name"), apperrors.ErrSettingNotFound)
	_, err = repo.Get(ctx, "site_name")
	assert.ErrorIs(t, err, apperrors.ErrSettingNotFound)
}
