package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BrandonDHaskell/foodstation/internal/config"
	"github.com/BrandonDHaskell/foodstation/internal/db"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/actuator"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/imagestore"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/sensor"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/service"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/session"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/store/sqlite"
	"github.com/BrandonDHaskell/foodstation/internal/grpcserver"
	"github.com/BrandonDHaskell/foodstation/internal/httpapi"
	"github.com/BrandonDHaskell/foodstation/internal/platform/logger"
)

func main() {
	log := logger.New("foodstation-server")

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	policyFile, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("policy file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		log.Fatal().Err(err).Msg("db open")
	}
	defer conn.Close()

	writer := db.NewWorker(conn)
	defer writer.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn, db.SeedDevOptions{AdminToken: cfg.DevAdminToken}); err != nil {
			log.Fatal().Err(err).Msg("seed dev")
		}
	}

	// Stores
	stationStore := sqlite.NewStationStore(conn, writer)
	activityStore := sqlite.NewActivityStore(conn, writer)
	userStore := sqlite.NewUserStore(conn, writer)
	notificationStore := sqlite.NewNotificationStore(conn, writer)
	telemetryStore := sqlite.NewTelemetryStore(conn, writer)
	ledger := sqlite.NewLedger(writer)

	// Devices
	hub := sensor.NewHub(32)
	policy, err := sensor.NewPolicy(sensor.Thresholds{
		PresentBelowCm:  cfg.PresentBelowCm,
		AbsentAboveCm:   cfg.AbsentAboveCm,
		DebounceSamples: cfg.DebounceSamples,
	}, policyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("sensor policy")
	}
	gateway := actuator.NewGateway(actuator.NewCommandBoard(), actuator.Options{}, log)

	images, err := imagestore.NewDisk(cfg.ImageDir, cfg.ImageBaseURL, cfg.MaxImageBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("image store")
	}

	// Services
	identity := service.NewIdentityResolver(userStore, cfg.IdentityCacheSize, cfg.IdentityCacheTTL)
	registry := service.NewStationRegistry(stationStore)
	notifier := service.NewNotifier(notificationStore, log)
	telemetrySvc := service.NewTelemetryService(telemetryStore, stationStore, registry, hub, gateway)

	sessions := session.NewManager(session.Dependencies{
		Identity: identity,
		Stations: stationStore,
		Ledger:   ledger,
		Door:     gateway,
		Sensors:  hub,
		Policy:   policy,
		Notifier: notifier,
		Logger:   log,
		Config: session.Config{
			Retry:          session.RetryPolicy{MaxAttempts: cfg.MaxConfirmAttempts},
			ConfirmTimeout: cfg.ConfirmTimeout,
			RestoreTimeout: cfg.RestoreTimeout,
			IdleTTL:        cfg.SessionIdleTTL,
		},
	})

	// Background loops
	pruner := service.NewTelemetryPruner(telemetryStore, service.PrunerConfig{
		RetentionDays: cfg.TelemetryRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, log)
	pruner.Start(ctx)
	defer pruner.Stop()

	reaper := session.NewReaper(sessions, time.Minute)
	reaper.Start(ctx)
	defer reaper.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:    log,
		Addr:      cfg.HTTPAddr,
		Sessions:  sessions,
		Identity:  identity,
		Users:     service.NewUserService(userStore),
		Stations:  registry,
		Telemetry: telemetrySvc,
		Notifier:  notifier,
		Activity:  activityStore,
		Images:    images,
	})

	// gRPC health
	health := grpcserver.New(cfg.GRPCAddr, log)

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
			stop()
		}
	}()
	go func() {
		if err := health.Start(); err != nil {
			log.Error().Err(err).Msg("grpc server error")
			stop()
		}
	}()
	health.SetServing(true)

	<-ctx.Done()
	log.Info().Msg("shutting down")
	health.SetServing(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	health.Stop()
}
