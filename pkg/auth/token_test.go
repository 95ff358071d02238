package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/pkg/config"
	"github.com/velurestudio/velure-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "velure-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	userID := uuid.New()
	now := time.Now()

	signed, err := MintAccessToken(cfg, now, AccessTokenPayload{
		UserID:    userID,
		TierRank:  enums.TierGold,
		IsCreator: false,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user %s, got %s", userID, claims.UserID)
	}
	if claims.TierRank != enums.TierGold {
		t.Fatalf("expected gold tier, got %s", claims.TierRank)
	}
	if claims.IsCreator {
		t.Fatal("expected is_creator false")
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		cfg     config.JWTConfig
		payload AccessTokenPayload
	}{
		{
			name:    "missing secret",
			cfg:     config.JWTConfig{Issuer: "velure-test", ExpirationMinutes: 15},
			payload: AccessTokenPayload{UserID: uuid.New(), TierRank: enums.TierBronze},
		},
		{
			name:    "missing issuer",
			cfg:     config.JWTConfig{Secret: "s", ExpirationMinutes: 15},
			payload: AccessTokenPayload{UserID: uuid.New(), TierRank: enums.TierBronze},
		},
		{
			name:    "zero expiration",
			cfg:     config.JWTConfig{Secret: "s", Issuer: "velure-test"},
			payload: AccessTokenPayload{UserID: uuid.New(), TierRank: enums.TierBronze},
		},
		{
			name:    "nil user id",
			cfg:     testJWTConfig(),
			payload: AccessTokenPayload{TierRank: enums.TierBronze},
		},
		{
			name:    "invalid tier rank",
			cfg:     testJWTConfig(),
			payload: AccessTokenPayload{UserID: uuid.New(), TierRank: enums.TierRank("mythril")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := MintAccessToken(tc.cfg, time.Now(), tc.payload); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{
		UserID:   uuid.New(),
		TierRank: enums.TierSilver,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseAccessTokenRejectsWrongAlg(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, AccessTokenClaims{
		UserID:   uuid.New(),
		TierRank: enums.TierGold,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected wrong signing method to be rejected")
	}
}
