package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreach_server/adapter/in/scheduler"
	"outreach_server/config"
	"outreach_server/internal/bootstrap"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepDeadline   = 5 * time.Minute
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Logger()

	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	mode := flag.String("mode", "all", "Run mode: api, sweep, all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	deps, cleanup, err := bootstrap.NewDependencies(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize dependencies")
	}
	defer cleanup()

	switch *mode {
	case "api":
		runAPI(cfg, deps)
	case "sweep":
		runSweeper(cfg, deps)
	case "all":
		stopSweeper := startSweeper(cfg, deps)
		defer stopSweeper()
		runAPI(cfg, deps)
	default:
		log.Fatal().Str("mode", *mode).Msg("Unknown mode")
	}
}

func runAPI(cfg *config.Config, deps *bootstrap.Dependencies) {
	app := bootstrap.NewAPI(cfg, deps)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down API server")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("Error shutting down")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("Starting API server")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

// runSweeper runs the reply sweep without the API. With the scheduler
// enabled it blocks and sweeps on the cron schedule; otherwise it runs a
// single sweep and exits, for use from an external cron.
func runSweeper(cfg *config.Config, deps *bootstrap.Dependencies) {
	if deps.ReplySync == nil {
		log.Fatal().Msg("Reply sync unavailable: mail backend has no conversation source")
	}

	if !cfg.SchedulerEnabled {
		ctx, cancel := context.WithTimeout(context.Background(), sweepDeadline)
		defer cancel()

		result, err := deps.ReplySync.RunSweep(ctx, cfg.SweepLookback)
		if err != nil {
			log.Fatal().Err(err).Msg("Reply sweep failed")
		}
		log.Info().
			Int("checked", result.RecordsChecked).
			Int("updated", result.RecordsUpdated).
			Int("failed", result.RecordsFailed).
			Msg("Reply sweep finished")
		return
	}

	stop := startSweeper(cfg, deps)
	defer stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down sweeper")
}

func startSweeper(cfg *config.Config, deps *bootstrap.Dependencies) func() {
	if !cfg.SchedulerEnabled {
		log.Info().Msg("Sweep scheduler disabled by config")
		return func() {}
	}
	if deps.ReplySync == nil {
		log.Warn().Msg("Sweep scheduler not started: reply sync unavailable")
		return func() {}
	}

	sched := scheduler.New(deps.ReplySync, cfg.SweepSchedule, cfg.SweepLookback, deps.Log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start sweep scheduler")
	}
	return sched.Stop
}
