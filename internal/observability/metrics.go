package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the agent.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Turns           *prometheus.CounterVec
	ExtractedFields *prometheus.CounterVec
	LayerErrors     *prometheus.CounterVec
	SessionErrors   *prometheus.CounterVec
	UploadTasks     *prometheus.CounterVec
	UploadDuration  prometheus.Histogram
}

// NewMetrics registers the instruments on a fresh registry so that
// several agents (and tests) can live in one process.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns by resulting status.",
		}, []string{"status"}),
		ExtractedFields: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extracted_fields_total",
			Help:      "Fields produced by each extraction layer.",
		}, []string{"layer", "field"}),
		LayerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_layer_errors_total",
			Help:      "Extraction layer failures by layer and reason.",
		}, []string{"layer", "reason"}),
		SessionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_store_errors_total",
			Help:      "Session store failures by operation.",
		}, []string{"op"}),
		UploadTasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_tasks_total",
			Help:      "Upload tasks by terminal status.",
		}, []string{"status"}),
		UploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Wall time of upload tasks from dispatch to terminal state.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 4, 8, 16, 32},
		}),
	}
}

func (m *Metrics) Turn(status string) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(status).Inc()
}

func (m *Metrics) Extracted(layer, field string) {
	if m == nil {
		return
	}
	m.ExtractedFields.WithLabelValues(layer, field).Inc()
}

func (m *Metrics) LayerError(layer, reason string) {
	if m == nil {
		return
	}
	m.LayerErrors.WithLabelValues(layer, reason).Inc()
}

func (m *Metrics) SessionError(op string) {
	if m == nil {
		return
	}
	m.SessionErrors.WithLabelValues(op).Inc()
}

// UploadFinished records a task reaching a terminal status
func (m *Metrics) UploadFinished(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.UploadTasks.WithLabelValues(status).Inc()
	m.UploadDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
