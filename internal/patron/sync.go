package patron

import (
	"context"
	"errors"
	"time"

	"github.com/velurestudio/velure-backend/internal/tiers"
	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

var (
	errPlatformClientRequired = errors.New("patron: platform client is required")
	errMembershipRepoRequired = errors.New("patron: membership repository is required")
	errCatalogStoreRequired   = errors.New("patron: catalog store is required")
	errSyncLoggerRequired     = errors.New("patron: sync logger is required")
)

type platformClient interface {
	ListTiers(ctx context.Context) ([]PlatformTier, error)
	ListMembers(ctx context.Context) ([]PlatformMember, error)
}

type membershipWriter interface {
	UpsertBatch(ctx context.Context, memberships []models.Membership, syncedAt time.Time) error
	DowngradeStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type catalogSaver interface {
	Save(ctx context.Context, catalog tiers.Catalog) error
}

// SyncResult summarizes one sync pass for logging and the cron job.
type SyncResult struct {
	TiersSeen   int
	MembersSeen int
	Upserted    int
	Skipped     int
	Downgraded  int64
}

// SyncService pulls the campaign's tiers and members from the subscription
// platform and reconciles the local membership table and catalog snapshot.
type SyncService struct {
	client     platformClient
	repo       membershipWriter
	catalog    catalogSaver
	catalogTTL time.Duration
	logger     *logger.Logger
	now        func() time.Time
}

// SyncServiceParams wires the sync dependencies.
type SyncServiceParams struct {
	Client     platformClient
	Repository membershipWriter
	Catalog    catalogSaver
	CatalogTTL time.Duration
	Logger     *logger.Logger
}

func NewSyncService(params SyncServiceParams) (*SyncService, error) {
	if params.Client == nil {
		return nil, errPlatformClientRequired
	}
	if params.Repository == nil {
		return nil, errMembershipRepoRequired
	}
	if params.Catalog == nil {
		return nil, errCatalogStoreRequired
	}
	if params.Logger == nil {
		return nil, errSyncLoggerRequired
	}
	ttl := params.CatalogTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SyncService{
		client:     params.Client,
		repo:       params.Repository,
		catalog:    params.Catalog,
		catalogTTL: ttl,
		logger:     params.Logger,
		now:        time.Now,
	}, nil
}

// Sync runs one full reconciliation pass. The catalog snapshot is saved
// before memberships so that a mid-pass failure still leaves tier gating with
// fresh pricing data.
func (s *SyncService) Sync(ctx context.Context) (SyncResult, error) {
	start := s.now()
	var result SyncResult

	platformTiers, err := s.client.ListTiers(ctx)
	if err != nil {
		return result, err
	}
	result.TiersSeen = len(platformTiers)

	catalog, rankByTierID := BuildCatalog(platformTiers, start, s.catalogTTL)
	if err := s.catalog.Save(ctx, catalog); err != nil {
		return result, err
	}

	members, err := s.client.ListMembers(ctx)
	if err != nil {
		return result, err
	}
	result.MembersSeen = len(members)

	memberships := make([]models.Membership, 0, len(members))
	for _, member := range members {
		membership, ok := MapMember(member, rankByTierID)
		if !ok {
			result.Skipped++
			s.logger.Warn(s.logger.WithField(ctx, "platform_member_id", member.ID),
				"patron: skipping unmappable member record")
			continue
		}
		memberships = append(memberships, membership)
	}

	if err := s.repo.UpsertBatch(ctx, memberships, start); err != nil {
		return result, err
	}
	result.Upserted = len(memberships)

	downgraded, err := s.repo.DowngradeStale(ctx, start)
	if err != nil {
		return result, err
	}
	result.Downgraded = downgraded

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"members_seen": result.MembersSeen,
		"upserted":     result.Upserted,
		"downgraded":   result.Downgraded,
	}), "patron: sync pass complete")
	return result, nil
}
