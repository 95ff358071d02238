package images

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/velurestudio/velure-backend/internal/watermark"
	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/enums"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

// staticIdentity is substituted into the text template for static variants:
// the pre-rendered mark identifies the tier, never an individual user.
const staticIdentity = "member"

type imageStore interface {
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Image, error)
	SetWatermarkedKey(ctx context.Context, id uuid.UUID, key string) error
}

type settingsReader interface {
	FindByCreator(ctx context.Context, creatorID uuid.UUID) (*models.WatermarkSetting, error)
}

type objectStore interface {
	GetObject(ctx context.Context, bucket, object string) ([]byte, error)
	PutObject(ctx context.Context, bucket, object, contentType string, data []byte) error
}

type renderer interface {
	RenderText(text string) *image.RGBA
	Composite(base []byte, overlay image.Image, spec watermark.Spec) ([]byte, string, error)
}

// RegenerationServiceParams configure the batch regeneration service.
type RegenerationServiceParams struct {
	Logger   *logger.Logger
	Images   imageStore
	Settings settingsReader
	Storage  objectStore
	Engine   renderer
	Bucket   string
}

// RegenerationService re-renders the static watermarked variants for every
// image a creator owns. Triggered by an explicit administrative action, never
// implicitly by settings changes.
type RegenerationService struct {
	logg     *logger.Logger
	images   imageStore
	settings settingsReader
	storage  objectStore
	engine   renderer
	bucket   string
}

// NewRegenerationService validates dependencies and builds the service.
func NewRegenerationService(params RegenerationServiceParams) (*RegenerationService, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Images == nil {
		return nil, fmt.Errorf("image repository required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("object storage required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("watermark engine required")
	}
	if params.Bucket == "" {
		return nil, fmt.Errorf("bucket required")
	}
	return &RegenerationService{
		logg:     params.Logger,
		images:   params.Images,
		settings: params.Settings,
		storage:  params.Storage,
		engine:   params.Engine,
		bucket:   params.Bucket,
	}, nil
}

// RegenerationResult summarizes one batch run.
type RegenerationResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// RegenerateForCreator renders a fresh static variant for each of the
// creator's images. Individual failures are logged and skipped so one corrupt
// object never blocks the rest of the batch; rendering is deterministic, so
// re-running after a partial failure is idempotent.
func (s *RegenerationService) RegenerateForCreator(ctx context.Context, creatorID uuid.UUID) (RegenerationResult, error) {
	var result RegenerationResult

	setting, err := s.settings.FindByCreator(ctx, creatorID)
	if err != nil {
		return result, err
	}
	spec := watermark.SpecFromSetting(setting)
	if !spec.Enabled {
		s.logg.Info(ctx, "watermarking disabled for creator; skipping regeneration")
		return result, nil
	}

	overlay, err := s.buildOverlay(ctx, setting, spec)
	if err != nil {
		return result, err
	}

	imgs, err := s.images.ListByCreator(ctx, creatorID)
	if err != nil {
		return result, err
	}

	var itemErrs []error
	for _, img := range imgs {
		if err := s.regenerateOne(ctx, img, overlay, spec); err != nil {
			itemErrs = append(itemErrs, fmt.Errorf("image %s: %w", img.ID, err))
			result.Failed++
			continue
		}
		result.Processed++
	}
	if combined := multierr.Combine(itemErrs...); combined != nil {
		// Item failures surface through the Failed count in the admin
		// response; the combined chain goes to the log.
		s.logg.Error(ctx, "static variant regeneration completed with failures", combined)
	}
	return result, nil
}

func (s *RegenerationService) buildOverlay(ctx context.Context, setting *models.WatermarkSetting, spec watermark.Spec) (image.Image, error) {
	if spec.Kind == enums.WatermarkKindImage && setting.BadgeObjectKey != nil {
		raw, err := s.storage.GetObject(ctx, s.bucket, *setting.BadgeObjectKey)
		if err != nil {
			return nil, fmt.Errorf("fetching badge object: %w", err)
		}
		badge, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decoding badge object: %w", err)
		}
		return badge, nil
	}
	text := watermark.FillTemplate(spec.TextTemplate, staticIdentity)
	return s.engine.RenderText(text), nil
}

func (s *RegenerationService) regenerateOne(ctx context.Context, img models.Image, overlay image.Image, spec watermark.Spec) error {
	original, err := s.storage.GetObject(ctx, s.bucket, img.ObjectKey)
	if err != nil {
		return fmt.Errorf("fetching original: %w", err)
	}

	marked, format, err := s.engine.Composite(original, overlay, spec)
	if err != nil {
		return fmt.Errorf("compositing: %w", err)
	}

	key := StaticVariantKey(img.ObjectKey)
	if err := s.storage.PutObject(ctx, s.bucket, key, mimeForFormat(format), marked); err != nil {
		return fmt.Errorf("storing variant: %w", err)
	}
	return s.images.SetWatermarkedKey(ctx, img.ID, key)
}

// StaticVariantKey derives the object key for the pre-rendered variant.
func StaticVariantKey(objectKey string) string {
	return "wm/" + objectKey
}

func mimeForFormat(format string) string {
	if format == "jpeg" {
		return "image/jpeg"
	}
	return "image/png"
}
