// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/futbolito/internal/api/matches"
	"github.com/codr1/futbolito/internal/api/players"
	"github.com/codr1/futbolito/internal/config"
	"github.com/codr1/futbolito/internal/db"
	"github.com/codr1/futbolito/internal/email"
	matchengine "github.com/codr1/futbolito/internal/matches"
	"github.com/codr1/futbolito/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Features.EnableDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if cfg.App.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = log.With().Str("app", cfg.App.Name).Logger()
	zerolog.DefaultContextLogger = &log.Logger
}

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "config/app.yaml"), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config_path", *configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	var notifier matchengine.Notifier
	sesClient, err := email.NewSESClientFromConfig(cfg.Email)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize SES client")
	}
	if sesClient != nil {
		notifier = email.NewLineupNotifier(sesClient, cfg.Email.OrganizerAddress)
	} else {
		log.Warn().Msg("Email sender not configured; lineup emails disabled")
	}

	engine, err := matchengine.NewEngine(database, matchengine.Options{
		Notifier: notifier,
		LeadTime: cfg.Balancing.LeadTime(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create match engine")
	}

	players.InitHandlers(database)
	matches.InitHandlers(database, engine)

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	svc, err := scheduler.ServiceInstance()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load scheduler")
	}
	if err := scheduler.RegisterAutoBalanceJob(svc, engine, cfg.Balancing); err != nil {
		log.Fatal().Err(err).Msg("Failed to register auto balance job")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	limiter := newWriteLimiter(cfg.RateLimit)
	if limiter != nil {
		defer limiter.Close()
	}
	server := newServer(cfg, limiter)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
