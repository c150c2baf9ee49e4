package bootstrap

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"

	"airsync_server/adapter/in/http"
	"airsync_server/config"
	"airsync_server/infra/middleware"
)

// NewAPI builds the Fiber app with the full middleware stack and routes.
func NewAPI(cfg *config.Config, log zerolog.Logger) (*fiber.App, func(), error) {
	deps, cleanup, err := NewDependencies(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(log),
		DisableStartupMessage: cfg.IsProduction(),
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,

		// go-json is drop-in and markedly faster than encoding/json
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		// Webhook payloads are small; anything bigger is not ours.
		BodyLimit: 1 * 1024 * 1024,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover(log))
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(log))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	if allowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: allowOrigins,
			AllowMethods: "GET,POST,OPTIONS",
			AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
			MaxAge:       86400,
		}))
	}

	// Health endpoints (no auth)
	healthHandler := http.NewHealthHandler(deps.Redis)
	healthHandler.Register(app)

	// Webhook ingress (no auth: called by the event platform)
	webhookHandler := http.NewWebhookHandler(deps.Dispatcher, deps.Redis, log)
	webhookHandler.Register(app)

	// Admin surface (static bearer token)
	adminHandler := http.NewAdminHandler(deps.Registrar, webhookHandler, cfg.AdminToken, log)
	adminHandler.Register(app)

	log.Info().Msg("API server initialized")

	return app, cleanup, nil
}
