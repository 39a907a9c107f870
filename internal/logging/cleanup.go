package logging

import (
	"log/slog"
	"time"

	"github.com/civicpulse/pulse-backend/internal/models"
	"gorm.io/gorm"
)

const logRetention = 30 * 24 * time.Hour

// StartCleanup runs a daily goroutine that applies the retention window to system_logs
// and drops refresh tokens that can no longer be used.
func StartCleanup(db *gorm.DB, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				now := time.Now()
				if _, err := PurgeBefore(db, now.Add(-logRetention)); err != nil {
					slog.Error("log cleanup failed", "action", "cleanup", "error", err)
				}
				if _, err := PurgeRefreshTokens(db, now); err != nil {
					slog.Error("refresh token cleanup failed", "action", "cleanup", "error", err)
				}
			case <-done:
				return
			}
		}
	}()
}

// PurgeBefore deletes system logs recorded before cutoff and reports how many were removed.
func PurgeBefore(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// PurgeRefreshTokens deletes expired tokens and tokens revoked more than a day ago.
func PurgeRefreshTokens(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Where("expires_at < ? OR (revoked = true AND revoked_at < ?)", now, now.Add(-24*time.Hour)).
		Delete(&models.RefreshToken{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		slog.Info("refresh token cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
