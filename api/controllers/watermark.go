package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/api/middleware"
	"github.com/velurestudio/velure-backend/api/responses"
	"github.com/velurestudio/velure-backend/api/validators"
	"github.com/velurestudio/velure-backend/internal/images"
	"github.com/velurestudio/velure-backend/internal/watermark"
	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/enums"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

// WatermarkSettingsStore persists the creator's single active watermark spec.
type WatermarkSettingsStore interface {
	FindByCreator(ctx context.Context, creatorID uuid.UUID) (*models.WatermarkSetting, error)
	Upsert(ctx context.Context, setting *models.WatermarkSetting) (*models.WatermarkSetting, error)
}

// Regenerator re-renders static protected variants after a settings change.
type Regenerator interface {
	RegenerateForCreator(ctx context.Context, creatorID uuid.UUID) (images.RegenerationResult, error)
}

type watermarkSettingPayload struct {
	Kind           string   `json:"kind"`
	Position       string   `json:"position"`
	TextTemplate   string   `json:"text_template"`
	BadgeObjectKey *string  `json:"badge_object_key"`
	Opacity        *float64 `json:"opacity"`
	Scale          *float64 `json:"scale"`
	OffsetX        float64  `json:"offset_x"`
	OffsetY        float64  `json:"offset_y"`
	Enabled        *bool    `json:"enabled"`
}

type watermarkSettingResponse struct {
	Kind           string  `json:"kind"`
	Position       string  `json:"position"`
	TextTemplate   string  `json:"text_template"`
	BadgeObjectKey *string `json:"badge_object_key,omitempty"`
	Opacity        float64 `json:"opacity"`
	Scale          float64 `json:"scale"`
	OffsetX        float64 `json:"offset_x"`
	OffsetY        float64 `json:"offset_y"`
	Enabled        bool    `json:"enabled"`
}

// WatermarkGet returns the creator's current watermark settings, falling back
// to the default protection when nothing was ever configured.
func WatermarkGet(store WatermarkSettingsStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "watermark repository unavailable"))
			return
		}

		creatorID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		setting, err := store.FindByCreator(ctx, creatorID)
		if err != nil {
			if pkgerrors.As(err).Code() == pkgerrors.CodeNotFound {
				responses.WriteSuccess(w, settingResponseFromSpec(watermark.DefaultSpec(), nil))
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, settingResponseFromModel(setting))
	}
}

// WatermarkUpsert validates, normalizes, and stores the creator's watermark
// settings. Existing static variants are untouched until regeneration runs.
func WatermarkUpsert(store WatermarkSettingsStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if store == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "watermark repository unavailable"))
			return
		}

		creatorID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload watermarkSettingPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		spec := specFromPayload(payload)
		if err := spec.Validate(); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		spec = spec.Normalize()

		if spec.Kind == enums.WatermarkKindImage && (payload.BadgeObjectKey == nil || strings.TrimSpace(*payload.BadgeObjectKey) == "") {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "badge object key is required for image watermarks"))
			return
		}

		setting := &models.WatermarkSetting{
			CreatorID:      creatorID,
			Kind:           spec.Kind,
			Position:       spec.Position,
			TextTemplate:   spec.TextTemplate,
			BadgeObjectKey: payload.BadgeObjectKey,
			Opacity:        spec.Opacity,
			Scale:          spec.Scale,
			OffsetX:        spec.OffsetX,
			OffsetY:        spec.OffsetY,
			Enabled:        spec.Enabled,
		}

		saved, err := store.Upsert(ctx, setting)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, settingResponseFromModel(saved))
	}
}

// WatermarkRegenerate re-renders every static protected variant for the
// creator with the current settings.
func WatermarkRegenerate(svc Regenerator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "regeneration service unavailable"))
			return
		}

		creatorID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.RegenerateForCreator(ctx, creatorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	creatorID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	return creatorID, nil
}

func specFromPayload(payload watermarkSettingPayload) watermark.Spec {
	spec := watermark.DefaultSpec()
	spec.Kind = enums.WatermarkKind(strings.TrimSpace(payload.Kind))
	spec.Position = enums.WatermarkPosition(strings.TrimSpace(payload.Position))
	spec.TextTemplate = payload.TextTemplate
	spec.OffsetX = payload.OffsetX
	spec.OffsetY = payload.OffsetY
	if payload.Opacity != nil {
		spec.Opacity = *payload.Opacity
	}
	if payload.Scale != nil {
		spec.Scale = *payload.Scale
	}
	if payload.Enabled != nil {
		spec.Enabled = *payload.Enabled
	}
	return spec
}

func settingResponseFromModel(setting *models.WatermarkSetting) watermarkSettingResponse {
	return watermarkSettingResponse{
		Kind:           setting.Kind.String(),
		Position:       setting.Position.String(),
		TextTemplate:   setting.TextTemplate,
		BadgeObjectKey: setting.BadgeObjectKey,
		Opacity:        setting.Opacity,
		Scale:          setting.Scale,
		OffsetX:        setting.OffsetX,
		OffsetY:        setting.OffsetY,
		Enabled:        setting.Enabled,
	}
}

func settingResponseFromSpec(spec watermark.Spec, badgeKey *string) watermarkSettingResponse {
	return watermarkSettingResponse{
		Kind:           spec.Kind.String(),
		Position:       spec.Position.String(),
		TextTemplate:   spec.TextTemplate,
		BadgeObjectKey: badgeKey,
		Opacity:        spec.Opacity,
		Scale:          spec.Scale,
		OffsetX:        spec.OffsetX,
		OffsetY:        spec.OffsetY,
		Enabled:        spec.Enabled,
	}
}
