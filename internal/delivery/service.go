package delivery

import (
	"bytes"
	"context"
	"errors"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/velurestudio/velure-backend/internal/forensic"
	"github.com/velurestudio/velure-backend/internal/sets"
	"github.com/velurestudio/velure-backend/internal/tiers"
	"github.com/velurestudio/velure-backend/internal/watermark"
	"github.com/velurestudio/velure-backend/pkg/config"
	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/enums"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
	"github.com/velurestudio/velure-backend/pkg/metrics"
)

var (
	errImageStoreRequired  = errors.New("delivery: image store is required")
	errSetStoreRequired    = errors.New("delivery: set store is required")
	errCatalogRequired     = errors.New("delivery: catalog loader is required")
	errURLCacheRequired    = errors.New("delivery: url cache is required")
	errSignerRequired      = errors.New("delivery: url signer is required")
	errObjectStoreRequired = errors.New("delivery: object store is required")
	errSettingsRequired    = errors.New("delivery: watermark settings reader is required")
	errRendererRequired    = errors.New("delivery: renderer is required")
	errRecorderRequired    = errors.New("delivery: forensic recorder is required")
	errDeliveryLogRequired = errors.New("delivery: logger is required")
)

type imageStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Image, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
}

type setStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ImageSet, error)
}

type catalogLoader interface {
	Load(ctx context.Context) (tiers.Catalog, error)
}

type urlCache interface {
	Get(ctx context.Context, objectKey string, tier enums.TierRank) (string, enums.CacheStatus)
	Put(ctx context.Context, objectKey string, tier enums.TierRank, url string, urlTTL time.Duration) error
}

type urlSigner interface {
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
}

type objectStore interface {
	GetObject(ctx context.Context, bucket, object string) ([]byte, error)
}

type settingsReader interface {
	FindByCreator(ctx context.Context, creatorID uuid.UUID) (*models.WatermarkSetting, error)
}

type renderer interface {
	RenderText(text string) *image.RGBA
	Composite(base []byte, overlay image.Image, spec watermark.Spec) ([]byte, string, error)
}

type recorder interface {
	Record(ctx context.Context, event forensic.Event)
}

// ResolveInput carries one access request. User facts arrive from the
// session layer as already-authenticated truth.
type ResolveInput struct {
	ImageID   uuid.UUID
	UserID    uuid.UUID
	User      tiers.UserFact
	Action    enums.AccessAction
	IPAddress string
	UserAgent string
	Referer   string
}

// Resolution is the delivery outcome: a signed URL for views, bytes for
// downloads, plus the forensic tracking id and cache diagnostics.
type Resolution struct {
	URL         string
	Bytes       []byte
	MimeType    string
	FileName    string
	ExpiresIn   time.Duration
	TrackingID  string
	Tier        enums.TierRank
	CacheStatus enums.CacheStatus
}

// Service resolves gated image access: gate check, variant selection, URL
// signing or compositing, and fire-and-forget forensic logging.
type Service struct {
	images   imageStore
	sets     setStore
	catalog  catalogLoader
	cache    urlCache
	signer   urlSigner
	objects  objectStore
	settings settingsReader
	engine   renderer
	recorder recorder
	metrics  *metrics.DeliveryMetrics
	logg     *logger.Logger

	bucket   string
	urlTTL   time.Duration
	cacheTTL time.Duration
	now      func() time.Time
}

// Params wires the delivery service.
type Params struct {
	Images   imageStore
	Sets     setStore
	Catalog  catalogLoader
	Cache    urlCache
	Signer   urlSigner
	Objects  objectStore
	Settings settingsReader
	Engine   renderer
	Recorder recorder
	Metrics  *metrics.DeliveryMetrics
	Logger   *logger.Logger
	GCS      config.GCSConfig
	URLCache config.URLCacheConfig
}

func NewService(params Params) (*Service, error) {
	if params.Images == nil {
		return nil, errImageStoreRequired
	}
	if params.Sets == nil {
		return nil, errSetStoreRequired
	}
	if params.Catalog == nil {
		return nil, errCatalogRequired
	}
	if params.Cache == nil {
		return nil, errURLCacheRequired
	}
	if params.Signer == nil {
		return nil, errSignerRequired
	}
	if params.Objects == nil {
		return nil, errObjectStoreRequired
	}
	if params.Settings == nil {
		return nil, errSettingsRequired
	}
	if params.Engine == nil {
		return nil, errRendererRequired
	}
	if params.Recorder == nil {
		return nil, errRecorderRequired
	}
	if params.Logger == nil {
		return nil, errDeliveryLogRequired
	}

	urlTTL := params.GCS.DownloadURLExpiry
	if urlTTL <= 0 {
		urlTTL = 15 * time.Minute
	}
	cacheTTL := params.URLCache.EntryTTL
	if cacheTTL <= 0 {
		cacheTTL = 4 * time.Minute
	}

	m := params.Metrics
	if m == nil {
		m = metrics.NewDeliveryMetrics(nil)
	}

	return &Service{
		images:   params.Images,
		sets:     params.Sets,
		catalog:  params.Catalog,
		cache:    params.Cache,
		signer:   params.Signer,
		objects:  params.Objects,
		settings: params.Settings,
		engine:   params.Engine,
		recorder: params.Recorder,
		metrics:  m,
		logg:     params.Logger,
		bucket:   params.GCS.BucketName,
		urlTTL:   urlTTL,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}, nil
}

// Resolve serves one access request. The gate check completes before any
// storage or rendering work; a denial short-circuits everything downstream.
// Retrying a failed Resolve is always safe: nothing it does is destructive.
func (s *Service) Resolve(ctx context.Context, input ResolveInput) (*Resolution, error) {
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown access action")
	}

	logCtx := s.logg.WithImageID(ctx, input.ImageID.String())
	logCtx = s.logg.WithTier(logCtx, input.User.Rank.String())

	img, err := s.images.FindByID(ctx, input.ImageID)
	if err != nil {
		return nil, err
	}
	set, err := s.sets.FindByID(ctx, img.SetID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	catalog, err := s.catalog.Load(ctx)
	if err != nil {
		// Treated as an empty catalog: gating stays conservative.
		s.logg.Warn(logCtx, "delivery: tier catalog unavailable")
		catalog = tiers.Catalog{}
	}

	if err := sets.Authorize(set, input.User, catalog, now); err != nil {
		s.metrics.IncAccessDenied(input.Action.String())
		return nil, err
	}

	trackingID := TrackingID(input.UserID, input.ImageID, now)

	var resolution *Resolution
	switch input.Action {
	case enums.AccessActionDownload:
		resolution, err = s.resolveDownload(logCtx, img, set, input, trackingID)
	default:
		resolution, err = s.resolveView(logCtx, img, input)
	}
	if err != nil {
		return nil, err
	}

	resolution.TrackingID = trackingID
	resolution.Tier = input.User.Rank
	resolution.FileName = img.FileName

	s.recorder.Record(ctx, forensic.Event{
		UserID:     input.UserID,
		ImageID:    img.ID,
		SetID:      img.SetID,
		Action:     input.Action,
		UserTier:   input.User.Rank,
		IPAddress:  input.IPAddress,
		UserAgent:  input.UserAgent,
		Referer:    input.Referer,
		TrackingID: trackingID,
		OccurredAt: now,
	})

	if input.Action == enums.AccessActionView {
		if err := s.images.IncrementViewCount(ctx, img.ID); err != nil {
			s.logg.Error(logCtx, "delivery: incrementing view count failed", err)
		}
	}

	return resolution, nil
}

// resolveView returns a signed URL for gallery browsing, going through the
// signed-URL cache.
func (s *Service) resolveView(ctx context.Context, img *models.Image, input ResolveInput) (*Resolution, error) {
	variant := SelectViewVariant(img, input.User)
	key := variant.Key()

	url, status := s.cache.Get(ctx, key, input.User.Rank)
	s.metrics.ObserveCacheLookup(status.String())
	if status == enums.CacheStatusHit {
		// The entry's own TTL is the conservative lower bound on how long
		// the underlying URL stays valid.
		return &Resolution{URL: url, ExpiresIn: s.cacheTTL, CacheStatus: status}, nil
	}

	url, err := s.signer.SignedReadURL(s.bucket, key, s.urlTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "signing download url failed")
	}
	if err := s.cache.Put(ctx, key, input.User.Rank, url, s.urlTTL); err != nil {
		s.logg.Warn(ctx, "delivery: caching signed url failed")
	}

	return &Resolution{URL: url, ExpiresIn: s.urlTTL, CacheStatus: status}, nil
}

// resolveDownload returns the image bytes with tracking metadata embedded,
// compositing a personal watermark only when the variant calls for it.
func (s *Service) resolveDownload(ctx context.Context, img *models.Image, set *models.ImageSet, input ResolveInput, trackingID string) (*Resolution, error) {
	spec := watermark.DefaultSpec()
	var badgeKey *string
	setting, err := s.settings.FindByCreator(ctx, set.CreatorID)
	switch {
	case err == nil:
		spec = watermark.SpecFromSetting(setting)
		badgeKey = setting.BadgeObjectKey
	case pkgerrors.As(err).Code() != pkgerrors.CodeNotFound:
		return nil, err
	}

	variant := SelectDownloadVariant(img, input.User, spec, spec.Enabled)

	data, err := s.objects.GetObject(ctx, s.bucket, variant.Key())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching image object failed")
	}

	mimeType := img.MimeType
	if !variant.Static() {
		data, mimeType, err = s.compositeDownload(ctx, data, variant.Spec(), badgeKey, input.UserID)
		if err != nil {
			return nil, err
		}
	}

	marked, err := EmbedTracking(data, mimeType, trackingID)
	if err != nil {
		// Metadata embedding is best-effort for odd formats; the download
		// still carries the tracking id through the forensic log.
		s.logg.Warn(ctx, "delivery: embedding tracking metadata failed")
		marked = data
	}

	return &Resolution{
		Bytes:       marked,
		MimeType:    mimeType,
		CacheStatus: enums.CacheStatusBypass,
	}, nil
}

func (s *Service) compositeDownload(ctx context.Context, data []byte, spec watermark.Spec, badgeKey *string, userID uuid.UUID) ([]byte, string, error) {
	overlay := s.buildOverlay(ctx, spec, badgeKey, userID)

	start := s.now()
	out, format, err := s.engine.Composite(data, overlay, spec)
	if err != nil {
		return nil, "", err
	}
	s.metrics.ObserveRenderDuration("dynamic", s.now().Sub(start))

	return out, mimeForFormat(format), nil
}

// buildOverlay renders the personal mark: the creator's badge when the spec
// is image-kind, otherwise the text template filled with a masked user id.
func (s *Service) buildOverlay(ctx context.Context, spec watermark.Spec, badgeKey *string, userID uuid.UUID) image.Image {
	if spec.Kind == enums.WatermarkKindImage {
		if badgeKey != nil && *badgeKey != "" {
			data, err := s.objects.GetObject(ctx, s.bucket, *badgeKey)
			if err == nil {
				if badge, _, decodeErr := image.Decode(bytes.NewReader(data)); decodeErr == nil {
					return badge
				}
			}
		}
		// Badge unavailable: degrade to the text mark instead of failing
		// the download.
		s.logg.Warn(ctx, "delivery: watermark badge unavailable, using text mark")
	}

	text := watermark.FillTemplate(spec.TextTemplate, maskIdentity(userID))
	return s.engine.RenderText(text)
}

// maskIdentity shortens a user id to something identifying but not
// enumerable when printed on an image.
func maskIdentity(userID uuid.UUID) string {
	return userID.String()[:8]
}

func mimeForFormat(format string) string {
	if format == "jpeg" {
		return "image/jpeg"
	}
	return "image/png"
}
