package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/internal/tiers"
	"github.com/velurestudio/velure-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxTierRank  contextKey = "tier_rank"
	ctxIsCreator contextKey = "is_creator"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func TierRankFromContext(ctx context.Context) enums.TierRank {
	if ctx == nil {
		return enums.TierBronze
	}
	if v, ok := ctx.Value(ctxTierRank).(enums.TierRank); ok {
		return v
	}
	return enums.TierBronze
}

func IsCreatorFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(ctxIsCreator).(bool); ok {
		return v
	}
	return false
}

// UserFactFromContext assembles the per-request tier fact the delivery and
// gating paths consume.
func UserFactFromContext(ctx context.Context) (uuid.UUID, tiers.UserFact, error) {
	userID, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, tiers.UserFact{}, err
	}
	return userID, tiers.UserFact{
		Rank:      TierRankFromContext(ctx),
		IsCreator: IsCreatorFromContext(ctx),
	}, nil
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithTierRank injects the tier rank into the context.
func WithTierRank(ctx context.Context, rank enums.TierRank) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTierRank, rank)
}

// WithIsCreator marks the request as coming from the creator.
func WithIsCreator(ctx context.Context, isCreator bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIsCreator, isCreator)
}
