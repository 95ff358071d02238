package forensic

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/velurestudio/velure-backend/pkg/logger"
)

const publishConfirmTimeout = 10 * time.Second

var (
	errPublisherRequired      = errors.New("forensic: publisher is required")
	errRecorderLoggerRequired = errors.New("forensic: recorder logger is required")
)

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

// Recorder sends access events to the forensic topic. Record is a one-way
// send: it returns immediately, delivery is best-effort, and failures are
// logged and swallowed so the delivery path is never blocked by logging.
type Recorder struct {
	pub  publisher
	logg *logger.Logger
}

// NewRecorder wraps the forensic topic publisher.
func NewRecorder(pub *gcppubsub.Publisher, logg *logger.Logger) (*Recorder, error) {
	if pub == nil {
		return nil, errPublisherRequired
	}
	if logg == nil {
		return nil, errRecorderLoggerRequired
	}
	return &Recorder{pub: &gcpPublisher{Publisher: pub}, logg: logg}, nil
}

// Record enqueues one event. The publish confirmation is awaited off the
// request path; the caller never sees an error.
func (r *Recorder) Record(ctx context.Context, event Event) {
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"image_id":    event.ImageID.String(),
		"action":      event.Action.String(),
		"tracking_id": event.TrackingID,
	})

	if err := event.Validate(); err != nil {
		r.logg.Warn(logCtx, "forensic: dropping invalid access event")
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		r.logg.Error(logCtx, "forensic: encoding access event failed", err)
		return
	}

	// Publish buffers locally; Get on the result blocks, so confirmation
	// happens on a detached context in the background.
	result := r.pub.Publish(ctx, &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"action":      event.Action.String(),
			"occurred_at": event.OccurredAt.Format(time.RFC3339Nano),
		},
	})
	if result == nil {
		r.logg.Warn(logCtx, "forensic: publisher returned no result")
		return
	}

	go func() {
		confirmCtx, cancel := context.WithTimeout(context.Background(), publishConfirmTimeout)
		defer cancel()
		if _, err := result.Get(confirmCtx); err != nil {
			r.logg.Error(logCtx, "forensic: access event publish failed", err)
		}
	}()
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}
