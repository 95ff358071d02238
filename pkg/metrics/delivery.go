package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DeliveryMetrics records signed-URL cache behavior and watermark rendering
// latency for the image delivery path.
type DeliveryMetrics struct {
	cacheLookups   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	accessDenied   *prometheus.CounterVec
}

// NewDeliveryMetrics registers the delivery metrics on the provided registerer.
func NewDeliveryMetrics(reg prometheus.Registerer) *DeliveryMetrics {
	if reg == nil {
		return &DeliveryMetrics{}
	}
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signed_url_cache_lookups",
		Help: "Signed-URL cache lookups partitioned by outcome.",
	}, []string{"status"})
	renderDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "watermark_render_seconds",
		Help:    "Duration of watermark rendering in seconds.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"kind"})
	accessDenied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "image_access_denied",
		Help: "Denied image access attempts partitioned by action.",
	}, []string{"action"})
	reg.MustRegister(cacheLookups, renderDuration, accessDenied)
	return &DeliveryMetrics{
		cacheLookups:   cacheLookups,
		renderDuration: renderDuration,
		accessDenied:   accessDenied,
	}
}

// ObserveCacheLookup counts one cache lookup with the given outcome status.
func (d *DeliveryMetrics) ObserveCacheLookup(status string) {
	if d == nil || d.cacheLookups == nil {
		return
	}
	d.cacheLookups.WithLabelValues(normalizeLabel(status)).Inc()
}

// ObserveRenderDuration records how long one watermark render took.
func (d *DeliveryMetrics) ObserveRenderDuration(kind string, duration time.Duration) {
	if d == nil || d.renderDuration == nil {
		return
	}
	d.renderDuration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncAccessDenied counts one denied access attempt for the given action.
func (d *DeliveryMetrics) IncAccessDenied(action string) {
	if d == nil || d.accessDenied == nil {
		return
	}
	d.accessDenied.WithLabelValues(normalizeLabel(action)).Inc()
}
