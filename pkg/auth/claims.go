package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	TierRank  enums.TierRank
	IsCreator bool
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients. The tier rank
// embedded here is a hint for clients; access decisions always re-resolve the
// rank from the stored membership so revocations take effect immediately.
type AccessTokenClaims struct {
	UserID    uuid.UUID      `json:"user_id"`
	TierRank  enums.TierRank `json:"tier_rank"`
	IsCreator bool           `json:"is_creator"`
	jwt.RegisteredClaims
}
