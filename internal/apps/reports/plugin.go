package reports

import (
	"github.com/civicpulse/pulse-backend/internal/apps"
	"github.com/gofiber/fiber/v2"
)

type ReportsPlugin struct {
	handler *ReportHandler
}

func New(deps *apps.Deps) *ReportsPlugin {
	service := NewService(
		NewGormStore(deps.DB),
		deps.Classifier,
		deps.Evidence,
		deps.Ledger,
		deps.Notifier,
		deps.Filter,
		ServiceConfig{
			ReportPoints:  deps.Config.ReportPoints,
			MaxImageBytes: deps.Config.MaxImageBytes,
		},
	)
	return &ReportsPlugin{handler: NewReportHandler(service)}
}

func (p *ReportsPlugin) ID() string { return "reports" }

func (p *ReportsPlugin) Models() []interface{} {
	return []interface{}{
		&Report{},
	}
}

func (p *ReportsPlugin) RegisterRoutes(router fiber.Router) {
	router.Post("/reports", p.handler.Create)
	router.Get("/reports", p.handler.List)
	router.Get("/reports/:id", p.handler.Get)
	router.Put("/reports/:id", p.handler.Update)
	router.Delete("/reports/:id", p.handler.Delete)
	router.Get("/reports/:id/image", p.handler.Image)
}

func (p *ReportsPlugin) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/reports", p.handler.AdminList)
	router.Get("/reports/export", p.handler.AdminExport)
	router.Put("/reports/:id/verify", p.handler.AdminVerify)
	router.Put("/reports/:id/resolve", p.handler.AdminResolve)
}
