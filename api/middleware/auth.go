package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/api/responses"
	pkgAuth "github.com/velurestudio/velure-backend/pkg/auth"
	"github.com/velurestudio/velure-backend/pkg/config"
	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/enums"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

// MembershipResolver re-reads the stored tier for a user. The rank baked into
// the JWT is only a hint; downgrades applied by the patron sync must take
// effect before the token expires.
type MembershipResolver interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error)
}

// Auth validates a bearer token, resolves the caller's current membership, and
// seeds the request context with identity and tier.
func Auth(cfg config.JWTConfig, memberships MembershipResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.UserID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing subject"))
				return
			}

			rank := claims.TierRank
			isCreator := claims.IsCreator
			if memberships != nil {
				membership, err := memberships.FindByUser(r.Context(), claims.UserID)
				switch {
				case err == nil:
					rank = membership.TierRank
					isCreator = membership.IsCreator
				case pkgerrors.As(err).Code() == pkgerrors.CodeNotFound:
					// No synced membership yet: treat as free tier.
					rank = enums.TierBronze
					isCreator = false
				default:
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve membership"))
					return
				}
			}
			if !rank.IsValid() {
				rank = enums.TierBronze
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxTierRank, rank)
			ctx = context.WithValue(ctx, ctxIsCreator, isCreator)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"tier_rank":  string(rank),
					"is_creator": isCreator,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
