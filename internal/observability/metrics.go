package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "workorders"

// Publish outcomes recorded by PublishTotal.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeUnroutable  = "unroutable"
	OutcomeSkipped     = "skipped"
	OutcomeDecodeError = "decode_error"
)

// Metrics holds the Prometheus collectors for the work order service.
// Each Metrics owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// Ingress metrics
	created            *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec

	// Routing metrics
	publishTotal    *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec

	// Change feed metrics
	changeRecords *prometheus.CounterVec
	feedPosition  *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all collectors registered.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "created_total",
			Help:      "Work orders persisted, by status.",
		}, []string{"status"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Rejected creation requests, by validation kind.",
		}, []string{"kind"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Ingress request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "code"}),

		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Routed messages, by channel and outcome.",
		}, []string{"channel", "outcome"}),
		publishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Time spent publishing one envelope, retries included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),

		changeRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_records_total",
			Help:      "Change records seen by the CDC adapter, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		feedPosition: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "change_feed_position",
			Help:      "Last change sequence committed by each consumer.",
		}, []string{"consumer"}),
	}

	m.registry.MustRegister(
		m.created,
		m.validationFailures,
		m.requestDuration,
		m.publishTotal,
		m.publishDuration,
		m.changeRecords,
		m.feedPosition,
		collectors.NewGoCollector(),
	)
	return m
}

// Ingress metrics accessors
func (m *Metrics) Created() *prometheus.CounterVec            { return m.created }
func (m *Metrics) ValidationFailures() *prometheus.CounterVec { return m.validationFailures }
func (m *Metrics) RequestDuration() *prometheus.HistogramVec  { return m.requestDuration }

// Routing metrics accessors
func (m *Metrics) PublishTotal() *prometheus.CounterVec      { return m.publishTotal }
func (m *Metrics) PublishDuration() *prometheus.HistogramVec { return m.publishDuration }

// Change feed metrics accessors
func (m *Metrics) ChangeRecords() *prometheus.CounterVec { return m.changeRecords }
func (m *Metrics) FeedPosition() *prometheus.GaugeVec    { return m.feedPosition }

// ObservePublish records one publish attempt sequence. A nil Metrics is a no-op.
func (m *Metrics) ObservePublish(channel, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.publishTotal.WithLabelValues(channel, outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomeFailure {
		m.publishDuration.WithLabelValues(channel).Observe(d.Seconds())
	}
}

// ObserveChangeRecord counts one change record. A nil Metrics is a no-op.
func (m *Metrics) ObserveChangeRecord(operation, outcome string) {
	if m == nil {
		return
	}
	m.changeRecords.WithLabelValues(operation, outcome).Inc()
}

// ObserveCreated counts one persisted work order. A nil Metrics is a no-op.
func (m *Metrics) ObserveCreated(status string) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(status).Inc()
}

// ObserveValidationFailure counts one rejected request. A nil Metrics is a no-op.
func (m *Metrics) ObserveValidationFailure(kind string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(kind).Inc()
}

// ObserveRequest records the latency of one ingress request. A nil Metrics is a no-op.
func (m *Metrics) ObserveRequest(method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, code).Observe(d.Seconds())
}

// SetFeedPosition records a committed consumer position. A nil Metrics is a no-op.
func (m *Metrics) SetFeedPosition(consumer string, position int64) {
	if m == nil {
		return
	}
	m.feedPosition.WithLabelValues(consumer).Set(float64(position))
}

// ServeHTTP serves the metrics in the Prometheus text format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
