// Package reputation keeps every citizen's points and level, and ranks them.
package reputation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/civicpulse/pulse-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidDelta = errors.New("points delta must be positive")

const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
)

// Awarder is the narrow view the report and mission flows need.
type Awarder interface {
	Award(ctx context.Context, userID uuid.UUID, delta int) (*models.Profile, error)
}

// Standing is one leaderboard row.
type Standing struct {
	Username string `json:"username"`
	Points   int    `json:"points"`
	Level    string `json:"level"`
}

type Ledger struct {
	db    *gorm.DB
	cache *LeaderboardCache
}

// NewLedger accepts a nil cache; rankings are then always read from Postgres.
func NewLedger(db *gorm.DB, cache *LeaderboardCache) *Ledger {
	return &Ledger{db: db, cache: cache}
}

// Profile returns the user's profile, creating a zero-point Citizen profile on first access.
func (l *Ledger) Profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := ensureProfile(l.db.WithContext(ctx), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// Award adds delta points atomically. Concurrent awards to the same user never lose an update.
func (l *Ledger) Award(ctx context.Context, userID uuid.UUID, delta int) (*models.Profile, error) {
	if delta <= 0 {
		return nil, ErrInvalidDelta
	}

	var profile *models.Profile
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		profile, err = l.AwardTx(ctx, tx, userID, delta)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.Invalidate(ctx)
	return profile, nil
}

// AwardTx applies an award inside the caller's transaction. The caller invalidates
// the leaderboard after commit.
func (l *Ledger) AwardTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int) (*models.Profile, error) {
	if delta <= 0 {
		return nil, ErrInvalidDelta
	}
	tx = tx.WithContext(ctx)

	if _, err := ensureProfile(tx, userID); err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	result := tx.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("points", gorm.Expr("points + ?", delta))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to award points: %w", result.Error)
	}

	var profile models.Profile
	if err := tx.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to reload profile: %w", err)
	}
	return &profile, nil
}

// Invalidate drops the cached leaderboard. Cache errors are logged, never returned.
func (l *Ledger) Invalidate(ctx context.Context) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Clear(ctx); err != nil {
		slog.Warn("leaderboard cache invalidation failed", "error", err)
	}
}

// Leaderboard returns the top profiles by points. Ties are broken by user id so the
// order is stable between calls.
func (l *Ledger) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	limit = clampLimit(limit)

	gen := int64(-1)
	if l.cache != nil {
		cached, cachedGen, ok := l.cache.Get(ctx)
		if ok {
			return truncate(cached, limit), nil
		}
		gen = cachedGen
	}

	standings, err := l.queryTop(ctx, MaxLeaderboardSize)
	if err != nil {
		return nil, err
	}

	// An award committed during the query has bumped the generation; this write is then never read.
	if l.cache != nil {
		if err := l.cache.Set(ctx, gen, standings); err != nil {
			slog.Warn("leaderboard cache write failed", "error", err)
		}
	}
	return truncate(standings, limit), nil
}

func (l *Ledger) queryTop(ctx context.Context, n int) ([]Standing, error) {
	standings := []Standing{}
	err := l.db.WithContext(ctx).
		Table("profiles").
		Select("users.username AS username, profiles.points AS points, profiles.level AS level").
		Joins("JOIN users ON users.id = profiles.user_id AND users.deleted_at IS NULL").
		Order("profiles.points DESC").
		Order("profiles.user_id ASC").
		Limit(n).
		Scan(&standings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return standings, nil
}

func ensureProfile(db *gorm.DB, userID uuid.UUID) (*models.Profile, error) {
	profile := models.Profile{UserID: userID, Level: models.DefaultLevel}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&profile).Error; err != nil {
		return nil, err
	}

	var existing models.Profile
	if err := db.Where("user_id = ?", userID).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLeaderboardSize
	case limit > MaxLeaderboardSize:
		return MaxLeaderboardSize
	}
	return limit
}

func truncate(s []Standing, n int) []Standing {
	if len(s) > n {
		return s[:n]
	}
	return s
}
