package database

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/models"
	"gorm.io/gorm"
)

// StartCleanup runs a goroutine that every interval removes system logs older
// than retention and revoked tokens that have expired.
func StartCleanup(db *gorm.DB, interval, retention time.Duration, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				RunCleanup(db, retention, time.Now().UTC())
			case <-done:
				return
			}
		}
	}()
}

// RunCleanup performs one cleanup pass and reports rows removed per table.
func RunCleanup(db *gorm.DB, retention time.Duration, now time.Time) (logs, tokens int64) {
	result := db.Where("timestamp < ?", now.Add(-retention)).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	logs = result.RowsAffected

	result = db.Where("expires_at <= ?", now).Delete(&models.RevokedToken{})
	if result.Error != nil {
		slog.Error("revoked token cleanup failed", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("revoked token cleanup completed", "deleted", result.RowsAffected)
	}
	tokens = result.RowsAffected
	return logs, tokens
}
