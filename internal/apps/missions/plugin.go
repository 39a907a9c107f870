package missions

import (
	"context"

	"github.com/civicpulse/pulse-backend/internal/apps"
	"github.com/gofiber/fiber/v2"
)

type MissionsPlugin struct {
	service *Service
	handler *MissionHandler
}

func New(deps *apps.Deps) *MissionsPlugin {
	service := NewService(
		NewGormStore(deps.DB, deps.Ledger),
		deps.Classifier,
		deps.Evidence,
		deps.Config.MaxImageBytes,
	)
	return &MissionsPlugin{
		service: service,
		handler: NewMissionHandler(service),
	}
}

func (p *MissionsPlugin) ID() string { return "missions" }

func (p *MissionsPlugin) Models() []interface{} {
	return []interface{}{
		&Mission{},
		&UserMission{},
	}
}

func (p *MissionsPlugin) Seed(ctx context.Context) error {
	return p.service.Seed(ctx)
}

func (p *MissionsPlugin) RegisterRoutes(router fiber.Router) {
	router.Get("/missions", p.handler.List)
	router.Get("/missions/mine", p.handler.Mine)
	router.Post("/missions/:id/join", p.handler.Join)
	router.Post("/missions/:id/proof", p.handler.SubmitProof)
}

func (p *MissionsPlugin) RegisterAdminRoutes(router fiber.Router) {
	router.Post("/missions", p.handler.AdminCreate)
	router.Put("/missions/:id", p.handler.AdminUpdate)
	router.Get("/missions/proofs", p.handler.AdminProofs)
	router.Get("/missions/proofs/:id/image", p.handler.AdminProofImage)
	router.Put("/missions/proofs/:id/approve", p.handler.AdminApprove)
}
