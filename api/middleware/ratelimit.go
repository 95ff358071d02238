package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/velurestudio/velure-backend/api/responses"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

type windowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// DownloadRateLimit throttles watermarked-file downloads per member. Bulk
// pulls are the cheapest way to harvest a gallery, so the limit sits on the
// download route only; signed-URL views stay unthrottled. A zero limit or
// missing store disables the check, and limiter backend errors fail open —
// redis trouble must not take delivery down with it.
func DownloadRateLimit(store windowLimiter, limit int64, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || limit <= 0 || window <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			scope := "download:" + limiterIdentity(r)
			allowed, count, err := store.FixedWindowAllow(ctx, scope, limit, window)
			if err != nil {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{"scope": scope})
					logg.Warn(logCtx, "rate limiter unavailable; allowing request")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"scope":          scope,
						"attempts":       count,
						"limit":          limit,
						"window_seconds": int(window.Seconds()),
					})
					logg.Warn(logCtx, "download rate limit exceeded")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "download rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// limiterIdentity prefers the authenticated user so shared NATs don't starve
// each other; unauthenticated requests fall back to the client address.
func limiterIdentity(r *http.Request) string {
	if userID := UserIDFromContext(r.Context()); userID != "" {
		return userID
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
