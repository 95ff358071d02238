package cron

import (
	"context"
	"fmt"

	"github.com/velurestudio/velure-backend/internal/patron"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

type patronSyncRunner interface {
	Sync(ctx context.Context) (patron.SyncResult, error)
}

// PatronSyncJobParams configures the membership sync job.
type PatronSyncJobParams struct {
	Logger *logger.Logger
	Sync   patronSyncRunner
}

// NewPatronSyncJob constructs the job that reconciles memberships and the
// tier catalog against the subscription platform.
func NewPatronSyncJob(params PatronSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sync == nil {
		return nil, fmt.Errorf("sync service required")
	}
	return &patronSyncJob{logg: params.Logger, sync: params.Sync}, nil
}

type patronSyncJob struct {
	logg *logger.Logger
	sync patronSyncRunner
}

func (j *patronSyncJob) Name() string { return "patron-sync" }

func (j *patronSyncJob) Run(ctx context.Context) error {
	result, err := j.sync.Sync(ctx)
	if err != nil {
		return fmt.Errorf("patron sync: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"members_seen": result.MembersSeen,
		"upserted":     result.Upserted,
		"skipped":      result.Skipped,
		"downgraded":   result.Downgraded,
	})
	j.logg.Info(logCtx, "patron sync job complete")
	return nil
}
