package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Intake metrics
	Submissions      *prometheus.CounterVec
	ReviewActions    *prometheus.CounterVec
	Uploads          *prometheus.CounterVec
	PublicCacheHits  prometheus.Counter
	PublicCacheMiss  prometheus.Counter
	RateLimitRejects *prometheus.CounterVec

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

// NewMetrics creates all application metrics and registers them with reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Hospital profile submissions by result",
		}, []string{"result"}),
		ReviewActions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_transitions_total",
			Help:      "Administrator review actions by action and result",
		}, []string{"action", "result"}),
		Uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Proxied image uploads by result",
		}, []string{"result"}),
		PublicCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "public_cache_hits_total",
			Help:      "Approved profile list requests served from cache",
		}),
		PublicCacheMiss: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "public_cache_misses_total",
			Help:      "Approved profile list requests that queried the database",
		}),
		RateLimitRejects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by the per-client rate limiter",
		}, []string{"route"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route", "status"}),

		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}

// RecordSubmission counts a submission outcome: accepted, invalid or error
func (m *Metrics) RecordSubmission(result string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(result).Inc()
}

// RecordReviewAction counts an administrator action outcome
func (m *Metrics) RecordReviewAction(action, result string) {
	if m == nil {
		return
	}
	m.ReviewActions.WithLabelValues(action, result).Inc()
}

// RecordUpload counts a proxied upload outcome
func (m *Metrics) RecordUpload(result string) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(result).Inc()
}

// RecordPublicCache counts a public list cache hit or miss
func (m *Metrics) RecordPublicCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.PublicCacheHits.Inc()
		return
	}
	m.PublicCacheMiss.Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter
func (m *Metrics) RecordRateLimited(route string) {
	if m == nil {
		return
	}
	m.RateLimitRejects.WithLabelValues(route).Inc()
}

// ObserveRequest records the duration of one HTTP request
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// ObserveDatabase records one database operation and its latency
func (m *Metrics) ObserveDatabase(operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.DatabaseOperations.WithLabelValues(operation, status).Inc()
	m.DatabaseLatency.WithLabelValues(operation).Observe(d.Seconds())
}
