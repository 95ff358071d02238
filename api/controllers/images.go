package controllers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/api/middleware"
	"github.com/velurestudio/velure-backend/api/responses"
	"github.com/velurestudio/velure-backend/internal/delivery"
	"github.com/velurestudio/velure-backend/pkg/enums"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

// ImageResolver is the delivery entry point for gated image access.
type ImageResolver interface {
	Resolve(ctx context.Context, input delivery.ResolveInput) (*delivery.Resolution, error)
}

// LikeCounter mutates per-image reaction counts.
type LikeCounter interface {
	IncrementLikeCount(ctx context.Context, id uuid.UUID) error
	DecrementLikeCount(ctx context.Context, id uuid.UUID) error
}

type viewResponse struct {
	URL              string `json:"url"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
	TrackingID       string `json:"tracking_id"`
	TierRank         string `json:"tier_rank"`
}

// ImageView resolves a short-lived signed URL for inline display.
func ImageView(svc ImageResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		input, err := buildResolveInput(r, enums.AccessActionView)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resolution, err := svc.Resolve(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set("X-Cache-Status", string(resolution.CacheStatus))
		w.Header().Set("X-Tracking-ID", resolution.TrackingID)
		responses.WriteSuccess(w, viewResponse{
			URL:              resolution.URL,
			ExpiresInSeconds: int64(resolution.ExpiresIn.Seconds()),
			TrackingID:       resolution.TrackingID,
			TierRank:         string(resolution.Tier),
		})
	}
}

// ImageDownload streams the tier-appropriate variant as an attachment.
func ImageDownload(svc ImageResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		input, err := buildResolveInput(r, enums.AccessActionDownload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resolution, err := svc.Resolve(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set("X-Tracking-ID", resolution.TrackingID)
		w.Header().Set("Content-Type", resolution.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resolution.FileName))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resolution.Bytes)
	}
}

// ImageLike records a like for the image.
func ImageLike(likes LikeCounter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if likes == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "image repository unavailable"))
			return
		}

		imageID, err := imageIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := likes.IncrementLikeCount(ctx, imageID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"liked": true})
	}
}

// ImageUnlike removes a like for the image.
func ImageUnlike(likes LikeCounter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if likes == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "image repository unavailable"))
			return
		}

		imageID, err := imageIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := likes.DecrementLikeCount(ctx, imageID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"liked": false})
	}
}

func buildResolveInput(r *http.Request, action enums.AccessAction) (delivery.ResolveInput, error) {
	imageID, err := imageIDParam(r)
	if err != nil {
		return delivery.ResolveInput{}, err
	}

	userID, user, err := middleware.UserFactFromContext(r.Context())
	if err != nil {
		return delivery.ResolveInput{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}

	return delivery.ResolveInput{
		ImageID:   imageID,
		UserID:    userID,
		User:      user,
		Action:    action,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	}, nil
}

func imageIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "imageID"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "image id is required")
	}
	imageID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image id")
	}
	return imageID, nil
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
