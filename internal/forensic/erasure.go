package forensic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	pkgdb "github.com/velurestudio/velure-backend/pkg/db"
	"github.com/velurestudio/velure-backend/pkg/db/models"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

// ErasureRepository queues and drains user data-erasure requests.
type ErasureRepository struct {
	db *gorm.DB
}

func NewErasureRepository(db *gorm.DB) *ErasureRepository {
	return &ErasureRepository{db: db}
}

// Enqueue records an erasure request. A user with a request already pending
// gets the existing one back instead of a duplicate.
func (r *ErasureRepository) Enqueue(ctx context.Context, userID uuid.UUID) (*models.ErasureRequest, error) {
	var existing models.ErasureRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND processed_at IS NULL", userID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking pending erasure request failed")
	}

	request := models.ErasureRequest{UserID: userID}
	if err := r.db.WithContext(ctx).Create(&request).Error; err != nil {
		// A concurrent enqueue may win the partial unique index race;
		// return the row it created.
		if pkgdb.IsUniqueViolation(err, "uq_erasure_requests_pending_user") {
			if readErr := r.db.WithContext(ctx).
				Where("user_id = ? AND processed_at IS NULL", userID).
				First(&existing).Error; readErr == nil {
				return &existing, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "enqueueing erasure request failed")
	}
	return &request, nil
}

// ListPending returns the oldest unprocessed requests.
func (r *ErasureRepository) ListPending(ctx context.Context, limit int) ([]models.ErasureRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	var requests []models.ErasureRequest
	err := r.db.WithContext(ctx).
		Where("processed_at IS NULL").
		Order("requested_at ASC").
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing pending erasure requests failed")
	}
	return requests, nil
}

// MarkProcessed stamps a request as done.
func (r *ErasureRepository) MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.ErasureRequest{}).
		Where("id = ?", id).
		Update("processed_at", processedAt).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking erasure request processed failed")
	}
	return nil
}

type erasureQueue interface {
	ListPending(ctx context.Context, limit int) ([]models.ErasureRequest, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error
}

type accessLogEraser interface {
	EraseUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type membershipEraser interface {
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// Eraser drains the erasure queue: for each pending request it deletes the
// user's access logs and synced membership row, then marks the request done.
type Eraser struct {
	queue       erasureQueue
	logs        accessLogEraser
	memberships membershipEraser
	logg        *logger.Logger
	batchSize   int
	now         func() time.Time
}

// EraserParams wires the erasure dependencies.
type EraserParams struct {
	Queue       erasureQueue
	Logs        accessLogEraser
	Memberships membershipEraser
	Logger      *logger.Logger
	BatchSize   int
}

func NewEraser(params EraserParams) (*Eraser, error) {
	if params.Queue == nil {
		return nil, errors.New("forensic: erasure queue is required")
	}
	if params.Logs == nil {
		return nil, errors.New("forensic: access log eraser is required")
	}
	if params.Memberships == nil {
		return nil, errors.New("forensic: membership eraser is required")
	}
	if params.Logger == nil {
		return nil, errors.New("forensic: eraser logger is required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Eraser{
		queue:       params.Queue,
		logs:        params.Logs,
		memberships: params.Memberships,
		logg:        params.Logger,
		batchSize:   batchSize,
		now:         time.Now,
	}, nil
}

// ProcessPending handles one batch of requests. A failing request is left
// pending for the next pass and never blocks the rest of the batch; its error
// is folded into the combined return so the run still reports the failure.
func (e *Eraser) ProcessPending(ctx context.Context) (int, error) {
	pending, err := e.queue.ListPending(ctx, e.batchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	var errs []error
	for _, request := range pending {
		logCtx := e.logg.WithFields(ctx, map[string]any{
			"erasure_request_id": request.ID.String(),
			"user_id":            request.UserID.String(),
		})

		erased, err := e.logs.EraseUser(ctx, request.UserID)
		if err != nil {
			e.logg.Error(logCtx, "forensic: erasing access logs failed", err)
			errs = append(errs, fmt.Errorf("erase logs for user %s: %w", request.UserID, err))
			continue
		}
		if err := e.memberships.DeleteByUser(ctx, request.UserID); err != nil {
			e.logg.Error(logCtx, "forensic: deleting membership failed", err)
			errs = append(errs, fmt.Errorf("delete membership for user %s: %w", request.UserID, err))
			continue
		}
		if err := e.queue.MarkProcessed(ctx, request.ID, e.now()); err != nil {
			e.logg.Error(logCtx, "forensic: marking erasure request failed", err)
			errs = append(errs, fmt.Errorf("mark request %s processed: %w", request.ID, err))
			continue
		}

		processed++
		e.logg.Info(e.logg.WithField(logCtx, "rows_erased", erased),
			"forensic: erasure request processed")
	}
	return processed, multierr.Combine(errs...)
}
