package forensic

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/velurestudio/velure-backend/pkg/db/models"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

type eventInserter interface {
	Insert(ctx context.Context, row *models.ForensicAccessLog) error
}

type analyticsSink interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// accessEventRow is the BigQuery projection of an access event.
type accessEventRow struct {
	UserID     string    `bigquery:"user_id"`
	ImageID    string    `bigquery:"image_id"`
	SetID      string    `bigquery:"set_id"`
	Action     string    `bigquery:"action"`
	UserTier   string    `bigquery:"user_tier"`
	TrackingID string    `bigquery:"tracking_id"`
	OccurredAt time.Time `bigquery:"occurred_at"`
}

// Consumer drains the forensic subscription into Postgres and, when
// streaming is enabled, mirrors each event to BigQuery for analytics.
type Consumer struct {
	repo           eventInserter
	analytics      analyticsSink
	analyticsTable string
	subscription   *gcppubsub.Subscriber
	logg           *logger.Logger
}

// ConsumerParams wires the consumer. Analytics may be nil to disable the
// BigQuery mirror.
type ConsumerParams struct {
	Repository     eventInserter
	Analytics      analyticsSink
	AnalyticsTable string
	Subscription   *gcppubsub.Subscriber
	Logger         *logger.Logger
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Repository == nil {
		return nil, errors.New("forensic: repository is required")
	}
	if params.Subscription == nil {
		return nil, errors.New("forensic: subscription is required")
	}
	if params.Logger == nil {
		return nil, errors.New("forensic: consumer logger is required")
	}
	if params.Analytics != nil && params.AnalyticsTable == "" {
		return nil, errors.New("forensic: analytics table is required when analytics is set")
	}
	return &Consumer{
		repo:           params.Repository,
		analytics:      params.Analytics,
		analyticsTable: params.AnalyticsTable,
		subscription:   params.Subscription,
		logg:           params.Logger,
	}, nil
}

// Run processes messages until the context is canceled or the subscription
// errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	logCtx := c.logg.WithField(ctx, "message_id", msg.ID)

	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "forensic: unmarshaling access event failed", err)
		return processResult{ack: true}
	}
	if err := event.Validate(); err != nil {
		c.logg.Error(logCtx, "forensic: dropping invalid access event", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"image_id":    event.ImageID.String(),
		"action":      event.Action.String(),
		"tracking_id": event.TrackingID,
	})

	row := event.ToModel()
	if err := c.repo.Insert(ctx, &row); err != nil {
		c.logg.Error(logCtx, "forensic: persisting access event failed", err)
		if isTransientDBError(err) {
			return processResult{nack: true}
		}
		return processResult{ack: true}
	}

	// The Postgres row is the source of record; a BigQuery hiccup is not
	// worth a redelivery that would duplicate it.
	if c.analytics != nil {
		bqRow := accessEventRow{
			UserID:     event.UserID.String(),
			ImageID:    event.ImageID.String(),
			SetID:      event.SetID.String(),
			Action:     event.Action.String(),
			UserTier:   event.UserTier.String(),
			TrackingID: event.TrackingID,
			OccurredAt: event.OccurredAt,
		}
		if err := c.analytics.InsertRows(ctx, c.analyticsTable, []any{bqRow}); err != nil {
			c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()),
				"forensic: mirroring access event to analytics failed")
		}
	}

	c.logg.Info(logCtx, "forensic: access event recorded")
	return processResult{ack: true}
}

func isTransientDBError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
