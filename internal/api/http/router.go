package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/api/http/handlers"
	"github.com/moodshelf/recs-gateway/internal/auth"
	"github.com/moodshelf/recs-gateway/internal/domain"
	"github.com/moodshelf/recs-gateway/internal/gatekeeper"
	"github.com/moodshelf/recs-gateway/internal/observability"
)

// RouteConfig wires handlers and middleware into the fiber app.
type RouteConfig struct {
	Keeper         *gatekeeper.Gatekeeper
	Recommend      *handlers.RecommendHandler
	Admin          *handlers.AdminHandler
	Health         *handlers.HealthHandler
	AdminMW        *auth.AdminMiddleware
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	RequestTimeout time.Duration
}

// RegisterRoutes mounts all endpoints.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(ErrorHandling(cfg.Logger, cfg.Metrics))
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics))
	app.Use(RequestTimeout(cfg.RequestTimeout))

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	recommend := app.Group("/recommend")
	for _, category := range domain.Categories() {
		path := "/" + string(category)
		recommend.Post(path,
			cfg.Keeper.Guard(category),
			cfg.Keeper.WithQuota(category, cfg.Recommend.Recommend(category)))
	}

	app.Get("/quota/:category", cfg.Recommend.QuotaStatus)

	admin := app.Group("/admin")
	admin.Post("/login", cfg.Admin.Login)
	admin.Post("/tickets", cfg.AdminMW.Handle, cfg.Admin.IssueTicket)
	admin.Patch("/tickets/:key/status", cfg.AdminMW.Handle, cfg.Admin.UpdateStatus)
	admin.Get("/metrics", cfg.AdminMW.Handle, func(c *fiber.Ctx) error {
		return c.JSON(cfg.Metrics.Snapshot())
	})
}
