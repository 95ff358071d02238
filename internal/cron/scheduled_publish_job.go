package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/velurestudio/velure-backend/pkg/logger"
)

type setPublisher interface {
	PublishDueSets(ctx context.Context, now time.Time) (int64, error)
}

// ScheduledPublishJobParams configures the scheduled-publish sweep.
type ScheduledPublishJobParams struct {
	Logger *logger.Logger
	Sets   setPublisher
}

// NewScheduledPublishJob constructs the job that flips due image sets live.
func NewScheduledPublishJob(params ScheduledPublishJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sets == nil {
		return nil, fmt.Errorf("set repository required")
	}
	return &scheduledPublishJob{
		logg: params.Logger,
		sets: params.Sets,
		now:  time.Now,
	}, nil
}

type scheduledPublishJob struct {
	logg *logger.Logger
	sets setPublisher
	now  func() time.Time
}

func (j *scheduledPublishJob) Name() string { return "scheduled-publish" }

func (j *scheduledPublishJob) Run(ctx context.Context) error {
	published, err := j.sets.PublishDueSets(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("publish due sets: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": published})
	j.logg.Info(logCtx, "scheduled publish sweep complete")
	return nil
}
