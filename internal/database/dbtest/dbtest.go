// Package dbtest opens the integration-test database shared by store tests.
// Tests are skipped unless TEST_POSTGRES_DSN points at a disposable Postgres.
package dbtest

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/civicpulse/pulse-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error
)

// DB returns a migrated connection with the shared models. Callers migrate their own plugin models.
func DB(tb testing.TB, extra ...interface{}) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			dbErr = errMissingDSN
			return
		}

		db, dbErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
			TranslateError: true,
		})
		if dbErr != nil {
			return
		}
		dbErr = db.AutoMigrate(
			&models.User{},
			&models.Profile{},
			&models.RefreshToken{},
			&models.SystemLog{},
		)
	})

	if errors.Is(dbErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run store integration tests")
	}
	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	if len(extra) > 0 {
		if err := db.AutoMigrate(extra...); err != nil {
			tb.Fatalf("migrate: %v", err)
		}
	}
	return db
}

// CreateUser inserts a throwaway user and removes it (and its profile) when the test ends.
func CreateUser(tb testing.TB, db *gorm.DB, username string) *models.User {
	tb.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.test",
		Password: "x",
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("create user: %v", err)
	}
	tb.Cleanup(func() {
		db.Where("user_id = ?", u.ID).Delete(&models.Profile{})
		db.Unscoped().Delete(u)
	})
	return u
}
