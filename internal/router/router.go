package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/soltixdb/dbstats/internal/config"
	"github.com/soltixdb/dbstats/internal/handlers"
	"github.com/soltixdb/dbstats/internal/logging"
	"github.com/soltixdb/dbstats/internal/middleware"
	"github.com/soltixdb/dbstats/internal/services"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, svc *services.StatsService, cfg *config.Config) *handlers.Handler {
	h := handlers.New(logger, svc)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, "/health"))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)
	v1 := app.Group("/v1", authMiddleware)

	// Ad hoc analysis
	v1.Post("/stats", h.SummarizeUpload)
	v1.Get("/stats", h.Summarize)
	v1.Get("/stats/distributions", h.Distributions)
	v1.Get("/stats/distributions/:name", h.Distribution)
	v1.Post("/analyses", h.Enqueue)

	// Dataset registry
	v1.Post("/datasets", h.RegisterDataset)
	v1.Get("/datasets", h.ListDatasets)
	v1.Get("/datasets/:name", h.GetDataset)
	v1.Delete("/datasets/:name", h.DeleteDataset)
	v1.Get("/datasets/:name/stats", h.SummarizeDataset)
	v1.Get("/datasets/:name/distributions/:dist", h.DatasetDistribution)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, svc *services.StatsService, cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "dbstats",
		DisableStartupMessage: true,
		BodyLimit:             cfg.Server.BodyLimit(),
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, svc, cfg)

	return app
}
