package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"airsync_server/config"
	"airsync_server/internal/bootstrap"
	"airsync_server/pkg/logger"
)

const (
	shutdownTimeout = 30 * time.Second // Maximum time to wait for graceful shutdown
	registerTimeout = 60 * time.Second
)

func main() {
	// Load .env file if exists (for local development)
	_ = godotenv.Load()

	mode := flag.String("mode", "serve", "Run mode: serve, register")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Service: "airsync"})
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(logger.Config{
		Level:   os.Getenv("LOG_LEVEL"),
		Service: "airsync",
		Pretty:  cfg.IsDevelopment(),
	})

	switch *mode {
	case "serve":
		runAPI(cfg, log)
	case "register":
		runRegister(cfg, log)
	default:
		log.Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}

func runAPI(cfg *config.Config, log zerolog.Logger) {
	app, cleanup, err := bootstrap.NewAPI(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize API")
	}
	defer cleanup()

	// Graceful shutdown with timeout
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Dur("timeout", shutdownTimeout).Msg("shutting down API server")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- app.Shutdown()
		}()

		select {
		case err := <-done:
			if err != nil {
				log.Error().Err(err).Msg("error shutting down")
			} else {
				log.Info().Msg("API server shut down gracefully")
			}
		case <-ctx.Done():
			log.Warn().Msg("API shutdown timed out, forcing exit")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("starting API server")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// runRegister performs a one-shot webhook registration against the event
// platform and exits. Run it once per deployment (or per event with
// AIRMEET_ID set) before serving traffic.
func runRegister(cfg *config.Config, log zerolog.Logger) {
	if cfg.WebhookBaseURL == "" {
		log.Fatal().Msg("WEBHOOK_BASE_URL is required in register mode")
	}

	deps, cleanup, err := bootstrap.NewDependencies(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), registerTimeout)
	defer cancel()

	airmeetID := os.Getenv("AIRMEET_ID")
	if err := deps.Registrar.RegisterAll(ctx, airmeetID); err != nil {
		log.Fatal().Err(err).Msg("webhook registration failed")
	}
	log.Info().Str("airmeet_id", airmeetID).Msg("webhook registration complete")
}
