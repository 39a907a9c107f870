package apps

import (
	"context"

	"github.com/civicpulse/pulse-backend/internal/config"
	"github.com/civicpulse/pulse-backend/internal/evidence"
	"github.com/civicpulse/pulse-backend/internal/notify"
	"github.com/civicpulse/pulse-backend/internal/reputation"
	"github.com/civicpulse/pulse-backend/internal/services"
	"github.com/civicpulse/pulse-backend/internal/verification"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Deps are the shared collaborators handed to every plugin.
type Deps struct {
	DB         *gorm.DB
	Config     *config.Config
	Ledger     *reputation.Ledger
	Classifier verification.Classifier
	Evidence   evidence.Store
	Notifier   notify.Notifier
	Filter     *services.ContentFilter
}

// Plugin defines the interface every feature module must implement.
type Plugin interface {
	// ID returns the unique plugin identifier, used in logs.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts user routes on the given Fiber group.
	// The group is already prefixed with /api/p and has JWT middleware applied.
	RegisterRoutes(router fiber.Router)
}

// AdminPlugin extends Plugin with admin-specific route registration.
type AdminPlugin interface {
	Plugin

	// RegisterAdminRoutes mounts admin-only routes on the given Fiber group.
	// The group has both JWT and Admin middleware applied.
	RegisterAdminRoutes(router fiber.Router)
}

// Seeder is implemented by plugins that ship default rows. Seed runs after migration
// and must be a no-op when the data already exists.
type Seeder interface {
	Seed(ctx context.Context) error
}
