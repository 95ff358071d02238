package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/internal/watermark"
	"github.com/velurestudio/velure-backend/pkg/config"
	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/enums"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

type stubImageStore struct {
	images  []models.Image
	listErr error
	updated map[uuid.UUID]string
}

func (s *stubImageStore) ListByCreator(context.Context, uuid.UUID) ([]models.Image, error) {
	return s.images, s.listErr
}

func (s *stubImageStore) SetWatermarkedKey(_ context.Context, id uuid.UUID, key string) error {
	if s.updated == nil {
		s.updated = map[uuid.UUID]string{}
	}
	s.updated[id] = key
	return nil
}

type stubSettings struct {
	setting *models.WatermarkSetting
	err     error
}

func (s *stubSettings) FindByCreator(context.Context, uuid.UUID) (*models.WatermarkSetting, error) {
	return s.setting, s.err
}

type stubObjectStore struct {
	objects map[string][]byte
	puts    map[string][]byte
	getErr  map[string]error
}

func newStubObjectStore() *stubObjectStore {
	return &stubObjectStore{objects: map[string][]byte{}, puts: map[string][]byte{}, getErr: map[string]error{}}
}

func (s *stubObjectStore) GetObject(_ context.Context, _, object string) ([]byte, error) {
	if err := s.getErr[object]; err != nil {
		return nil, err
	}
	data, ok := s.objects[object]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (s *stubObjectStore) PutObject(_ context.Context, _, object, _ string, data []byte) error {
	s.puts[object] = data
	return nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 100, G: 100, B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func enabledSetting(creatorID uuid.UUID) *models.WatermarkSetting {
	return &models.WatermarkSetting{
		CreatorID:    creatorID,
		Kind:         enums.WatermarkKindText,
		Position:     enums.WatermarkPositionCorner,
		TextTemplate: "studio · {user}",
		Opacity:      0.6,
		Scale:        1,
		Enabled:      true,
	}
}

func testService(t *testing.T, imgs *stubImageStore, settings *stubSettings, store *stubObjectStore) *RegenerationService {
	t.Helper()
	svc, err := NewRegenerationService(RegenerationServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "images-test"}),
		Images:   imgs,
		Settings: settings,
		Storage:  store,
		Engine:   watermark.NewEngine(config.WatermarkConfig{CornerMarginPct: 3}),
		Bucket:   "velure-media",
	})
	if err != nil {
		t.Fatalf("NewRegenerationService: %v", err)
	}
	return svc
}

func TestRegenerateForCreator(t *testing.T) {
	t.Parallel()

	creatorID := uuid.New()
	imgA := models.Image{ID: uuid.New(), ObjectKey: "sets/a/1.png", MimeType: "image/png"}
	imgB := models.Image{ID: uuid.New(), ObjectKey: "sets/a/2.png", MimeType: "image/png"}

	imgs := &stubImageStore{images: []models.Image{imgA, imgB}}
	store := newStubObjectStore()
	store.objects[imgA.ObjectKey] = testPNG(t)
	store.objects[imgB.ObjectKey] = testPNG(t)

	svc := testService(t, imgs, &stubSettings{setting: enabledSetting(creatorID)}, store)

	result, err := svc.RegenerateForCreator(context.Background(), creatorID)
	if err != nil {
		t.Fatalf("RegenerateForCreator: %v", err)
	}
	if result.Processed != 2 || result.Failed != 0 {
		t.Fatalf("expected 2 processed, got %+v", result)
	}

	for _, img := range []models.Image{imgA, imgB} {
		wantKey := StaticVariantKey(img.ObjectKey)
		if imgs.updated[img.ID] != wantKey {
			t.Fatalf("expected watermarked key %s, got %s", wantKey, imgs.updated[img.ID])
		}
		if len(store.puts[wantKey]) == 0 {
			t.Fatalf("expected variant uploaded at %s", wantKey)
		}
		if bytes.Equal(store.puts[wantKey], store.objects[img.ObjectKey]) {
			t.Fatal("variant must differ from original")
		}
	}
}

func TestRegenerateSkipsFailedImages(t *testing.T) {
	t.Parallel()

	creatorID := uuid.New()
	good := models.Image{ID: uuid.New(), ObjectKey: "sets/a/good.png"}
	bad := models.Image{ID: uuid.New(), ObjectKey: "sets/a/bad.png"}

	imgs := &stubImageStore{images: []models.Image{bad, good}}
	store := newStubObjectStore()
	store.objects[good.ObjectKey] = testPNG(t)
	store.getErr[bad.ObjectKey] = errors.New("storage unavailable")

	svc := testService(t, imgs, &stubSettings{setting: enabledSetting(creatorID)}, store)

	result, err := svc.RegenerateForCreator(context.Background(), creatorID)
	if err != nil {
		t.Fatalf("RegenerateForCreator: %v", err)
	}
	if result.Processed != 1 || result.Failed != 1 {
		t.Fatalf("expected 1 processed / 1 failed, got %+v", result)
	}
	if _, ok := imgs.updated[good.ID]; !ok {
		t.Fatal("good image should have been regenerated despite the bad one")
	}
}

func TestRegenerateDisabledSettingsSkipsBatch(t *testing.T) {
	t.Parallel()

	creatorID := uuid.New()
	setting := enabledSetting(creatorID)
	setting.Enabled = false

	imgs := &stubImageStore{images: []models.Image{{ID: uuid.New(), ObjectKey: "sets/a/1.png"}}}
	svc := testService(t, imgs, &stubSettings{setting: setting}, newStubObjectStore())

	result, err := svc.RegenerateForCreator(context.Background(), creatorID)
	if err != nil {
		t.Fatalf("RegenerateForCreator: %v", err)
	}
	if result.Processed != 0 {
		t.Fatalf("expected nothing processed, got %+v", result)
	}
	if len(imgs.updated) != 0 {
		t.Fatal("no keys should be updated when watermarking is disabled")
	}
}
