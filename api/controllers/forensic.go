package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/api/responses"
	"github.com/velurestudio/velure-backend/api/validators"
	"github.com/velurestudio/velure-backend/internal/forensic"
	"github.com/velurestudio/velure-backend/pkg/db/models"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

// ForensicReader serves investigation queries over the append-only access log.
type ForensicReader interface {
	InvestigateByImage(ctx context.Context, imageID uuid.UUID, filter forensic.InvestigateFilter, limit int) ([]models.ForensicAccessLog, error)
	FindByTrackingID(ctx context.Context, trackingID string, limit int) ([]models.ForensicAccessLog, error)
}

// ErasureQueue accepts data-erasure requests for later processing.
type ErasureQueue interface {
	Enqueue(ctx context.Context, userID uuid.UUID) (*models.ErasureRequest, error)
}

// ForensicInvestigateImage lists access events for one image, oldest first,
// optionally narrowed with start/end query parameters (RFC 3339).
func ForensicInvestigateImage(repo ForensicReader, limit int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "forensic repository unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "imageID"))
		imageID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image id"))
			return
		}

		filter, err := investigateFilterFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rowLimit, err := validators.ParseQueryInt(r, "limit", limit, 1, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := repo.InvestigateByImage(ctx, imageID, filter, rowLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ForensicInvestigateTracking resolves a tracking id extracted from a leaked
// file back to the access events that produced it.
func ForensicInvestigateTracking(repo ForensicReader, limit int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "forensic repository unavailable"))
			return
		}

		trackingID := strings.TrimSpace(chi.URLParam(r, "trackingID"))
		if trackingID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tracking id is required"))
			return
		}

		rows, err := repo.FindByTrackingID(ctx, trackingID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ErasureRequestCreate queues a data-erasure request for the calling user.
// The forensic rows disappear when the cron drain picks the request up, not
// synchronously.
func ErasureRequestCreate(queue ErasureQueue, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if queue == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "erasure queue unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := queue.Enqueue(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, request)
	}
}

func investigateFilterFromQuery(r *http.Request) (forensic.InvestigateFilter, error) {
	var filter forensic.InvestigateFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("start")); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid start time")
		}
		filter.Start = &start
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("end")); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid end time")
		}
		filter.End = &end
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return filter, pkgerrors.New(pkgerrors.CodeValidation, "end must not precede start")
	}
	return filter, nil
}
