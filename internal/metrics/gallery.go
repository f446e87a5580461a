// Package metrics provides Prometheus metrics for the gallery workflows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// GalleryMetrics counts moderation, engagement and access policy events.
// A nil *GalleryMetrics is valid and records nothing.
type GalleryMetrics struct {
	registry *prometheus.Registry

	uploadsTotal     *prometheus.CounterVec
	moderationTotal  *prometheus.CounterVec
	likesTotal       *prometheus.CounterVec
	reportsTotal     *prometheus.CounterVec
	authEventsTotal  *prometheus.CounterVec
	rateLimitedTotal *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	revocationsTotal prometheus.Counter
}

// NewGalleryMetrics creates and registers gallery metrics on registry.
func NewGalleryMetrics(registry *prometheus.Registry) (*GalleryMetrics, error) {
	m := &GalleryMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *GalleryMetrics) initMetrics() {
	m.uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_uploads_total",
			Help: "Photo uploads by outcome",
		},
		[]string{"status"}, // accepted, rejected, error
	)
	m.moderationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_moderation_decisions_total",
			Help: "Admin moderation decisions",
		},
		[]string{"decision", "status"},
	)
	m.likesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_likes_total",
			Help: "Like toggles by result",
		},
		[]string{"result"}, // liked, unliked, conflict, not_eligible, error
	)
	m.reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_reports_total",
			Help: "Photo reports by reason and result",
		},
		[]string{"reason", "result"},
	)
	m.authEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_auth_events_total",
			Help: "Admin authentication events",
		},
		[]string{"event"},
	)
	m.rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_rate_limited_total",
			Help: "Requests rejected by rate limiting",
		},
		[]string{"category"},
	)
	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	m.revocationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gallery_revocations_total",
		Help: "Tokens revoked since start",
	})
}

// Describe implements prometheus.Collector.
func (m *GalleryMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.uploadsTotal.Describe(ch)
	m.moderationTotal.Describe(ch)
	m.likesTotal.Describe(ch)
	m.reportsTotal.Describe(ch)
	m.authEventsTotal.Describe(ch)
	m.rateLimitedTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.revocationsTotal.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *GalleryMetrics) Collect(ch chan<- prometheus.Metric) {
	m.uploadsTotal.Collect(ch)
	m.moderationTotal.Collect(ch)
	m.likesTotal.Collect(ch)
	m.reportsTotal.Collect(ch)
	m.authEventsTotal.Collect(ch)
	m.rateLimitedTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.revocationsTotal.Collect(ch)
}

func (m *GalleryMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *GalleryMetrics) RecordUpload(status string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(status).Inc()
}

func (m *GalleryMetrics) RecordModeration(decision, status string) {
	if m == nil {
		return
	}
	m.moderationTotal.WithLabelValues(decision, status).Inc()
}

func (m *GalleryMetrics) RecordLike(result string) {
	if m == nil {
		return
	}
	m.likesTotal.WithLabelValues(result).Inc()
}

func (m *GalleryMetrics) RecordReport(reason, result string) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(reason, result).Inc()
}

func (m *GalleryMetrics) RecordAuthEvent(event string) {
	if m == nil {
		return
	}
	m.authEventsTotal.WithLabelValues(event).Inc()
}

func (m *GalleryMetrics) RecordRateLimited(category string) {
	if m == nil {
		return
	}
	m.rateLimitedTotal.WithLabelValues(category).Inc()
}

func (m *GalleryMetrics) RecordRevocation() {
	if m == nil {
		return
	}
	m.revocationsTotal.Inc()
}

func (m *GalleryMetrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, status).Observe(seconds)
}
