package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/velurestudio/velure-backend/api/controllers"
	"github.com/velurestudio/velure-backend/api/routes"
	"github.com/velurestudio/velure-backend/internal/delivery"
	"github.com/velurestudio/velure-backend/internal/forensic"
	"github.com/velurestudio/velure-backend/internal/images"
	"github.com/velurestudio/velure-backend/internal/patron"
	"github.com/velurestudio/velure-backend/internal/sets"
	"github.com/velurestudio/velure-backend/internal/tiers"
	"github.com/velurestudio/velure-backend/internal/urlcache"
	"github.com/velurestudio/velure-backend/internal/watermark"
	"github.com/velurestudio/velure-backend/pkg/bigquery"
	"github.com/velurestudio/velure-backend/pkg/config"
	"github.com/velurestudio/velure-backend/pkg/db"
	"github.com/velurestudio/velure-backend/pkg/logger"
	"github.com/velurestudio/velure-backend/pkg/metrics"
	"github.com/velurestudio/velure-backend/pkg/migrate"
	"github.com/velurestudio/velure-backend/pkg/pubsub"
	"github.com/velurestudio/velure-backend/pkg/redis"
	"github.com/velurestudio/velure-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(ctx, "error closing gcs client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub client", err)
		}
	}()

	// BigQuery only backs the readiness probe here; the forensic worker owns
	// streaming. Skipped entirely when streaming is disabled.
	var bqClient *bigquery.Client
	if !cfg.BigQuery.DisableStreaming {
		bqClient, err = bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap bigquery", err)
			os.Exit(1)
		}
		defer func() {
			if err := bqClient.Close(); err != nil {
				logg.Error(ctx, "error closing bigquery client", err)
			}
		}()
	}

	membershipRepo := patron.NewRepository(dbClient.DB())
	imageRepo := images.NewRepository(dbClient.DB())
	setRepo := sets.NewRepository(dbClient.DB())
	settingsRepo := watermark.NewRepository(dbClient.DB())
	forensicRepo := forensic.NewRepository(dbClient.DB())
	erasureRepo := forensic.NewErasureRepository(dbClient.DB())

	catalogStore, err := tiers.NewCatalogStore(redisClient, cfg.Patron.CampaignID)
	if err != nil {
		logg.Error(ctx, "failed to create tier catalog store", err)
		os.Exit(1)
	}

	signedURLCache, err := urlcache.New(redisClient, logg, cfg.URLCache)
	if err != nil {
		logg.Error(ctx, "failed to create signed-url cache", err)
		os.Exit(1)
	}

	engine := watermark.NewEngine(cfg.Watermark)

	recorder, err := forensic.NewRecorder(pubsubClient.ForensicPublisher(), logg)
	if err != nil {
		logg.Error(ctx, "failed to create forensic recorder", err)
		os.Exit(1)
	}

	deliverySvc, err := delivery.NewService(delivery.Params{
		Images:   imageRepo,
		Sets:     setRepo,
		Catalog:  catalogStore,
		Cache:    signedURLCache,
		Signer:   gcsClient,
		Objects:  gcsClient,
		Settings: settingsRepo,
		Engine:   engine,
		Recorder: recorder,
		Metrics:  metrics.NewDeliveryMetrics(prometheus.DefaultRegisterer),
		Logger:   logg,
		GCS:      cfg.GCS,
		URLCache: cfg.URLCache,
	})
	if err != nil {
		logg.Error(ctx, "failed to create delivery service", err)
		os.Exit(1)
	}

	regenSvc, err := images.NewRegenerationService(images.RegenerationServiceParams{
		Logger:   logg,
		Images:   imageRepo,
		Settings: settingsRepo,
		Storage:  gcsClient,
		Engine:   engine,
		Bucket:   gcsClient.DefaultBucket(),
	})
	if err != nil {
		logg.Error(ctx, "failed to create regeneration service", err)
		os.Exit(1)
	}

	patronClient, err := patron.NewClient(cfg.Patron, logg)
	if err != nil {
		logg.Error(ctx, "failed to create patron client", err)
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
		logg.Error(ctx, "failed to create patron sync service", err)
		os.Exit(1)
	}

	eraser, err := forensic.NewEraser(forensic.EraserParams{
		Queue:       erasureRepo,
		Logs:        forensicRepo,
		Memberships: membershipRepo,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create eraser", err)
		os.Exit(1)
	}

	readiness := controllers.ReadinessDeps(dbClient, redisClient, gcsClient, nil)
	if bqClient != nil {
		readiness["bigquery"] = bqClient
	}

	deps := routes.Deps{
		Memberships:    membershipRepo,
		Delivery:       deliverySvc,
		Likes:          imageRepo,
		Sets:           setRepo,
		SetPublisher:   setRepo,
		Watermarks:     settingsRepo,
		Regenerator:    regenSvc,
		Forensic:       forensicRepo,
		ErasureQueue:   erasureRepo,
		ErasureDrainer: eraser,
		PatronSync:     syncSvc,
		Readiness:      readiness,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, deps),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
