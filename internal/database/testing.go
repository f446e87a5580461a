package database

import (
	"path/filepath"
	"testing"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/config"
	"gorm.io/gorm"
)

// OpenTest opens a migrated SQLite database in a per-test temp directory.
func OpenTest(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "gallery.db"),
	}
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
