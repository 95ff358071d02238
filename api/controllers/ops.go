package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/velurestudio/velure-backend/api/responses"
	"github.com/velurestudio/velure-backend/internal/patron"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

// PatronSyncer runs one full patron reconciliation pass.
type PatronSyncer interface {
	Sync(ctx context.Context) (patron.SyncResult, error)
}

// SetPublisher publishes sets whose scheduled time has arrived.
type SetPublisher interface {
	PublishDueSets(ctx context.Context, now time.Time) (int64, error)
}

// ErasureDrainer processes queued data-erasure requests.
type ErasureDrainer interface {
	ProcessPending(ctx context.Context) (int, error)
}

// OpsPatronSync triggers a patron synchronization outside the cron cadence,
// e.g. right after a tier change on the platform.
func OpsPatronSync(svc PatronSyncer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		result, err := svc.Sync(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// OpsPublishDue flips published_at for sets whose schedule has arrived.
func OpsPublishDue(store SetPublisher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "set repository unavailable"))
			return
		}

		published, err := store.PublishDueSets(ctx, time.Now().UTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"published": published})
	}
}

// OpsErasureDrain processes pending data-erasure requests immediately.
func OpsErasureDrain(svc ErasureDrainer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "eraser unavailable"))
			return
		}

		processed, err := svc.ProcessPending(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"processed": processed})
	}
}
