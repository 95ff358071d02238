package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/velurestudio/velure-backend/internal/cron"
	"github.com/velurestudio/velure-backend/internal/forensic"
	"github.com/velurestudio/velure-backend/internal/patron"
	"github.com/velurestudio/velure-backend/internal/sets"
	"github.com/velurestudio/velure-backend/internal/tiers"
	"github.com/velurestudio/velure-backend/pkg/config"
	"github.com/velurestudio/velure-backend/pkg/db"
	"github.com/velurestudio/velure-backend/pkg/logger"
	"github.com/velurestudio/velure-backend/pkg/metrics"
	"github.com/velurestudio/velure-backend/pkg/migrate"
	"github.com/velurestudio/velure-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		logg.Error(bootCtx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing redis", err)
		}
	}()

	membershipRepo := patron.NewRepository(dbClient.DB())
	setRepo := sets.NewRepository(dbClient.DB())
	forensicRepo := forensic.NewRepository(dbClient.DB())
	erasureRepo := forensic.NewErasureRepository(dbClient.DB())

	catalogStore, err := tiers.NewCatalogStore(redisClient, cfg.Patron.CampaignID)
	if err != nil {
		logg.Error(bootCtx, "failed to create tier catalog store", err)
		os.Exit(1)
	}

	patronClient, err := patron.NewClient(cfg.Patron, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to create patron client", err)
		os.Exit(1)
	}

	syncSvc, err := patron.NewSyncService(patron.SyncServiceParams{
		Client:     patronClient,
		Repository: membershipRepo,
		Catalog:    catalogStore,
		CatalogTTL: cfg.Patron.CatalogTTL,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create patron sync service", err)
		os.Exit(1)
	}

	eraser, err := forensic.NewEraser(forensic.EraserParams{
		Queue:       erasureRepo,
		Logs:        forensicRepo,
		Memberships: membershipRepo,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create eraser", err)
		os.Exit(1)
	}

	patronJob, err := cron.NewPatronSyncJob(cron.PatronSyncJobParams{
		Logger: logg,
		Sync:   syncSvc,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create patron sync job", err)
		os.Exit(1)
	}

	publishJob, err := cron.NewScheduledPublishJob(cron.ScheduledPublishJobParams{
		Logger: logg,
		Sets:   setRepo,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create scheduled publish job", err)
		os.Exit(1)
	}

	erasureJob, err := cron.NewErasureDrainJob(cron.ErasureDrainJobParams{
		Logger: logg,
		Eraser: eraser,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create erasure drain job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(bootCtx, "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(patronJob, publishJob, erasureJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
