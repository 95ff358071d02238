package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/api/controllers"
	"github.com/velurestudio/velure-backend/internal/delivery"
	"github.com/velurestudio/velure-backend/internal/forensic"
	"github.com/velurestudio/velure-backend/internal/patron"
	pkgAuth "github.com/velurestudio/velure-backend/pkg/auth"
	"github.com/velurestudio/velure-backend/pkg/config"
	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/enums"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubMemberships struct {
	membership *models.Membership
}

func (s stubMemberships) FindByUser(_ context.Context, userID uuid.UUID) (*models.Membership, error) {
	if s.membership == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
	}
	m := *s.membership
	m.UserID = userID
	return &m, nil
}

type stubDelivery struct{}

func (stubDelivery) Resolve(context.Context, delivery.ResolveInput) (*delivery.Resolution, error) {
	return &delivery.Resolution{
		URL:         "https://storage.example/signed",
		ExpiresIn:   time.Minute,
		TrackingID:  "aabbccddeeff",
		Tier:        enums.TierGold,
		CacheStatus: enums.CacheStatusMiss,
	}, nil
}

type stubLikes struct{}

func (stubLikes) IncrementLikeCount(context.Context, uuid.UUID) error { return nil }
func (stubLikes) DecrementLikeCount(context.Context, uuid.UUID) error { return nil }

type stubSets struct{}

func (stubSets) Create(_ context.Context, set *models.ImageSet) (*models.ImageSet, error) {
	return set, nil
}

func (stubSets) ListByCreator(context.Context, uuid.UUID) ([]models.ImageSet, error) {
	return nil, nil
}

func (stubSets) UpdateSchedule(context.Context, uuid.UUID, *time.Time) error { return nil }

func (stubSets) PublishDueSets(context.Context, time.Time) (int64, error) { return 2, nil }

type stubWatermarks struct{}

func (stubWatermarks) FindByCreator(context.Context, uuid.UUID) (*models.WatermarkSetting, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "watermark settings not found")
}

func (stubWatermarks) Upsert(_ context.Context, setting *models.WatermarkSetting) (*models.WatermarkSetting, error) {
	return setting, nil
}

type stubForensicReader struct{}

func (stubForensicReader) InvestigateByImage(context.Context, uuid.UUID, forensic.InvestigateFilter, int) ([]models.ForensicAccessLog, error) {
	return nil, nil
}

func (stubForensicReader) FindByTrackingID(context.Context, string, int) ([]models.ForensicAccessLog, error) {
	return nil, nil
}

type stubErasure struct{}

func (stubErasure) Enqueue(_ context.Context, userID uuid.UUID) (*models.ErasureRequest, error) {
	return &models.ErasureRequest{ID: uuid.New(), UserID: userID}, nil
}

func (stubErasure) ProcessPending(context.Context) (int, error) { return 1, nil }

type stubPatronSync struct{}

func (stubPatronSync) Sync(context.Context) (patron.SyncResult, error) {
	return patron.SyncResult{TiersSeen: 4}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	cfg.Cron.SharedSecret = "cron-secret"
	cfg.Forensic.InvestigateLimit = 500
	return cfg
}

func newTestRouter(cfg *config.Config, memberships stubMemberships) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "routes-test"})
	return NewRouter(cfg, logg, nil, Deps{
		Memberships:    memberships,
		Delivery:       stubDelivery{},
		Likes:          stubLikes{},
		Sets:           stubSets{},
		SetPublisher:   stubSets{},
		Watermarks:     stubWatermarks{},
		Regenerator:    nil,
		Forensic:       stubForensicReader{},
		ErasureQueue:   stubErasure{},
		ErasureDrainer: stubErasure{},
		PatronSync:     stubPatronSync{},
		Readiness:      map[string]controllers.Pinger{"postgres": stubPinger{}},
	})
}

func mintToken(t *testing.T, cfg *config.Config, rank enums.TierRank, isCreator bool) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:    uuid.New(),
		TierRank:  rank,
		IsCreator: isCreator,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), stubMemberships{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Velure-Env") != "test" {
		t.Fatalf("expected env header, got %q", resp.Header().Get("X-Velure-Env"))
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), stubMemberships{})
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestImageViewRouteServesSignedURL(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubMemberships{membership: &models.Membership{TierRank: enums.TierGold}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/images/"+uuid.NewString()+"/view", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.TierGold, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("X-Cache-Status") != "miss" {
		t.Fatalf("expected cache status header, got %q", resp.Header().Get("X-Cache-Status"))
	}
}

func TestCreatorGroupRequiresCreator(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubMemberships{membership: &models.Membership{TierRank: enums.TierGold}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/creator/ping", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.TierGold, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-creator got %d", resp.Code)
	}

	creatorMembers := stubMemberships{membership: &models.Membership{TierRank: enums.TierDiamond, IsCreator: true}}
	router = newTestRouter(cfg, creatorMembers)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/creator/ping", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.TierDiamond, true))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for creator got %d", resp.Code)
	}
}

func TestOpsGroupRequiresSharedSecret(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubMemberships{})

	req := httptest.NewRequest(http.MethodPost, "/ops/publish-due", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/ops/publish-due", nil)
	req.Header.Set("X-Cron-Secret", "cron-secret")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with secret got %d", resp.Code)
	}
}

func TestErasureRouteAcceptsRequest(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, stubMemberships{membership: &models.Membership{TierRank: enums.TierSilver}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/me/erasure", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.TierSilver, false))
	req.Header.Set("Idempotency-Key", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d: %s", resp.Code, resp.Body.String())
	}
}
