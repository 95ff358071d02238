package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/velurestudio/velure-backend/internal/forensic"
	"github.com/velurestudio/velure-backend/pkg/bigquery"
	"github.com/velurestudio/velure-backend/pkg/config"
	"github.com/velurestudio/velure-backend/pkg/db"
	"github.com/velurestudio/velure-backend/pkg/logger"
	"github.com/velurestudio/velure-backend/pkg/pubsub"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "forensic-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "forensic-worker"

	logg = logger.New(logger.Options{
		ServiceName: "forensic-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	subscription := pubsubClient.ForensicSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "forensic subscription", errors.New("subscription not configured"))
	}

	params := forensic.ConsumerParams{
		Repository:   forensic.NewRepository(dbClient.DB()),
		Subscription: subscription,
		Logger:       logg,
	}

	if !cfg.BigQuery.DisableStreaming {
		bqClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
		requireResource(ctx, logg, "bigquery client", err)
		defer func() {
			if err := bqClient.Close(); err != nil {
				logg.Error(ctx, "failed to close bigquery client", err)
			}
		}()
		params.Analytics = bqClient
		params.AnalyticsTable = cfg.BigQuery.AccessEventsTable
	}

	consumer, err := forensic.NewConsumer(params)
	requireResource(ctx, logg, "forensic consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "forensic worker ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "forensic worker failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
