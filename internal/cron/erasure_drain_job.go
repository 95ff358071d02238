package cron

import (
	"context"
	"fmt"

	"github.com/velurestudio/velure-backend/pkg/logger"
)

type erasureProcessor interface {
	ProcessPending(ctx context.Context) (int, error)
}

// ErasureDrainJobParams configures the erasure queue drain.
type ErasureDrainJobParams struct {
	Logger *logger.Logger
	Eraser erasureProcessor
}

// NewErasureDrainJob constructs the job that drains pending data-erasure
// requests.
func NewErasureDrainJob(params ErasureDrainJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Eraser == nil {
		return nil, fmt.Errorf("eraser required")
	}
	return &erasureDrainJob{logg: params.Logger, eraser: params.Eraser}, nil
}

type erasureDrainJob struct {
	logg   *logger.Logger
	eraser erasureProcessor
}

func (j *erasureDrainJob) Name() string { return "erasure-drain" }

func (j *erasureDrainJob) Run(ctx context.Context) error {
	processed, err := j.eraser.ProcessPending(ctx)
	if processed > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{"count": processed})
		j.logg.Info(logCtx, "erasure drain complete")
	}
	if err != nil {
		return fmt.Errorf("drain erasure queue: %w", err)
	}
	return nil
}
