package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/api/middleware"
	"github.com/velurestudio/velure-backend/internal/forensic"
	"github.com/velurestudio/velure-backend/pkg/db/models"
)

type testForensicReader struct {
	investigateFn func(ctx context.Context, imageID uuid.UUID, filter forensic.InvestigateFilter, limit int) ([]models.ForensicAccessLog, error)
	trackingFn    func(ctx context.Context, trackingID string, limit int) ([]models.ForensicAccessLog, error)
}

func (r *testForensicReader) InvestigateByImage(ctx context.Context, imageID uuid.UUID, filter forensic.InvestigateFilter, limit int) ([]models.ForensicAccessLog, error) {
	if r.investigateFn != nil {
		return r.investigateFn(ctx, imageID, filter, limit)
	}
	return nil, nil
}

func (r *testForensicReader) FindByTrackingID(ctx context.Context, trackingID string, limit int) ([]models.ForensicAccessLog, error) {
	if r.trackingFn != nil {
		return r.trackingFn(ctx, trackingID, limit)
	}
	return nil, nil
}

type testErasureQueue struct {
	enqueued []uuid.UUID
	err      error
}

func (q *testErasureQueue) Enqueue(_ context.Context, userID uuid.UUID) (*models.ErasureRequest, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.enqueued = append(q.enqueued, userID)
	return &models.ErasureRequest{ID: uuid.New(), UserID: userID, RequestedAt: time.Now().UTC()}, nil
}

func TestForensicInvestigateImageParsesWindow(t *testing.T) {
	imageID := uuid.New()
	var captured forensic.InvestigateFilter
	var capturedLimit int
	repo := &testForensicReader{investigateFn: func(_ context.Context, id uuid.UUID, filter forensic.InvestigateFilter, limit int) ([]models.ForensicAccessLog, error) {
		if id != imageID {
			t.Fatalf("unexpected image id %s", id)
		}
		captured = filter
		capturedLimit = limit
		return []models.ForensicAccessLog{}, nil
	}}

	url := "/api/v1/forensic/images/" + imageID.String() + "?start=2026-08-01T00:00:00Z&end=2026-08-20T00:00:00Z"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("imageID", imageID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	ForensicInvestigateImage(repo, 500, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Start == nil || captured.End == nil {
		t.Fatal("expected both window bounds parsed")
	}
	if !captured.Start.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", captured.Start)
	}
	if capturedLimit != 500 {
		t.Fatalf("unexpected limit %d", capturedLimit)
	}
}

func TestForensicInvestigateImageRejectsInvertedWindow(t *testing.T) {
	imageID := uuid.New()
	url := "/api/v1/forensic/images/" + imageID.String() + "?start=2026-08-20T00:00:00Z&end=2026-08-01T00:00:00Z"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("imageID", imageID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	ForensicInvestigateImage(&testForensicReader{}, 500, testControllerLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestForensicInvestigateTracking(t *testing.T) {
	repo := &testForensicReader{trackingFn: func(_ context.Context, trackingID string, _ int) ([]models.ForensicAccessLog, error) {
		if trackingID != "deadbeef0123" {
			t.Fatalf("unexpected tracking id %q", trackingID)
		}
		return []models.ForensicAccessLog{{ID: uuid.New(), TrackingID: trackingID}}, nil
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forensic/tracking/deadbeef0123", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("trackingID", "deadbeef0123")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	ForensicInvestigateTracking(repo, 500, testControllerLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestErasureRequestCreateQueuesUser(t *testing.T) {
	queue := &testErasureQueue{}
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/me/erasure", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

	resp := httptest.NewRecorder()
	ErasureRequestCreate(queue, testControllerLogger())(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", resp.Code)
	}
	if len(queue.enqueued) != 1 || queue.enqueued[0] != userID {
		t.Fatalf("expected user queued, got %v", queue.enqueued)
	}
}
