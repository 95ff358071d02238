package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/enums"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
)

type testSetStore struct {
	createFn   func(ctx context.Context, set *models.ImageSet) (*models.ImageSet, error)
	listFn     func(ctx context.Context, creatorID uuid.UUID) ([]models.ImageSet, error)
	scheduleFn func(ctx context.Context, id uuid.UUID, scheduledTime *time.Time) error
}

func (s *testSetStore) Create(ctx context.Context, set *models.ImageSet) (*models.ImageSet, error) {
	if s.createFn != nil {
		return s.createFn(ctx, set)
	}
	return set, nil
}

func (s *testSetStore) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.ImageSet, error) {
	if s.listFn != nil {
		return s.listFn(ctx, creatorID)
	}
	return nil, nil
}

func (s *testSetStore) UpdateSchedule(ctx context.Context, id uuid.UUID, scheduledTime *time.Time) error {
	if s.scheduleFn != nil {
		return s.scheduleFn(ctx, id, scheduledTime)
	}
	return nil
}

func TestSetCreatePersistsHiddenSet(t *testing.T) {
	var created *models.ImageSet
	store := &testSetStore{createFn: func(_ context.Context, set *models.ImageSet) (*models.ImageSet, error) {
		created = set
		return set, nil
	}}

	body := `{"title":"Summer Collection","min_tier_rank":"gold"}`
	resp := httptest.NewRecorder()
	SetCreate(store, testControllerLogger())(resp, creatorRequest(http.MethodPost, "/api/v1/creator/sets", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if created == nil {
		t.Fatal("expected set persisted")
	}
	if created.Title != "Summer Collection" {
		t.Fatalf("unexpected title %q", created.Title)
	}
	if created.MinTierRank != enums.TierGold {
		t.Fatalf("unexpected tier %s", created.MinTierRank)
	}
	if created.PublishedAt != nil {
		t.Fatal("expected set to start unpublished")
	}
}

func TestSetCreatePublishNow(t *testing.T) {
	store := &testSetStore{}
	body := `{"title":"Launch Day","publish_now":true}`
	resp := httptest.NewRecorder()
	SetCreate(store, testControllerLogger())(resp, creatorRequest(http.MethodPost, "/api/v1/creator/sets", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data models.ImageSet `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if envelope.Data.PublishedAt == nil {
		t.Fatal("expected published_at set")
	}
	if envelope.Data.MinTierRank != enums.TierBronze {
		t.Fatalf("expected bronze default got %s", envelope.Data.MinTierRank)
	}
}

func TestSetCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"min_tier_rank":"gold"}`},
		{"unknown tier", `{"title":"x","min_tier_rank":"titanium"}`},
		{"conflicting publish", `{"title":"x","publish_now":true,"scheduled_time":"2026-09-01T00:00:00Z"}`},
	}

	for _, tt := range tests {
		resp := httptest.NewRecorder()
		SetCreate(&testSetStore{}, testControllerLogger())(resp, creatorRequest(http.MethodPost, "/api/v1/creator/sets", tt.body))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", tt.name, resp.Code)
		}
	}
}

func TestSetUpdateSchedulePropagatesConflict(t *testing.T) {
	store := &testSetStore{scheduleFn: func(context.Context, uuid.UUID, *time.Time) error {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "set is already published")
	}}

	setID := uuid.New()
	req := creatorRequest(http.MethodPatch, "/api/v1/creator/sets/"+setID.String()+"/schedule", `{"scheduled_time":"2026-09-01T00:00:00Z"}`)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("setID", setID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	SetUpdateSchedule(store, testControllerLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestSetListReturnsCreatorSets(t *testing.T) {
	creatorSets := []models.ImageSet{
		{ID: uuid.New(), Title: "One"},
		{ID: uuid.New(), Title: "Two"},
	}
	store := &testSetStore{listFn: func(context.Context, uuid.UUID) ([]models.ImageSet, error) {
		return creatorSets, nil
	}}

	resp := httptest.NewRecorder()
	SetList(store, testControllerLogger())(resp, creatorRequest(http.MethodGet, "/api/v1/creator/sets", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "One") || !strings.Contains(resp.Body.String(), "Two") {
		t.Fatalf("expected both sets in response: %s", resp.Body.String())
	}
}
