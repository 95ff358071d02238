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
	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/enums"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

// SetStore persists image sets for the creator surface.
type SetStore interface {
	Create(ctx context.Context, set *models.ImageSet) (*models.ImageSet, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.ImageSet, error)
	UpdateSchedule(ctx context.Context, id uuid.UUID, scheduledTime *time.Time) error
}

type createSetPayload struct {
	Title         string     `json:"title" validate:"required"`
	MinTierRank   string     `json:"min_tier_rank"`
	ScheduledTime *time.Time `json:"scheduled_time"`
	PublishNow    bool       `json:"publish_now"`
}

type updateSchedulePayload struct {
	ScheduledTime *time.Time `json:"scheduled_time"`
}

// SetCreate stores a new image set for the creator. The set starts hidden
// unless publish_now is set or a scheduled time is supplied.
func SetCreate(store SetStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "set repository unavailable"))
			return
		}

		creatorID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createSetPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		title := validators.SanitizeString(payload.Title, 200)
		if title == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "title is required"))
			return
		}

		rank := enums.TierBronze
		if raw := strings.TrimSpace(payload.MinTierRank); raw != "" {
			rank = enums.TierRank(raw)
			if !rank.IsValid() {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid minimum tier rank"))
				return
			}
		}
		if payload.PublishNow && payload.ScheduledTime != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "publish_now and scheduled_time are mutually exclusive"))
			return
		}

		set := &models.ImageSet{
			CreatorID:     creatorID,
			Title:         title,
			MinTierRank:   rank,
			ScheduledTime: payload.ScheduledTime,
		}
		if payload.PublishNow {
			now := time.Now().UTC()
			set.PublishedAt = &now
		}

		created, err := store.Create(ctx, set)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// SetList returns all sets owned by the creator, including unpublished ones.
func SetList(store SetStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "set repository unavailable"))
			return
		}

		creatorID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sets, err := store.ListByCreator(ctx, creatorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, sets)
	}
}

// SetUpdateSchedule moves or clears the scheduled publish time for an
// unpublished set. Published sets are immutable on the temporal axis.
func SetUpdateSchedule(store SetStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "set repository unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "setID"))
		setID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid set id"))
			return
		}

		var payload updateSchedulePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := store.UpdateSchedule(ctx, setID, payload.ScheduledTime); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}
