// Package metrics provides Prometheus metrics collection for confsync.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/artpar/confsync/ports"
)

const namespace = "confsync"

// Collector holds all Prometheus metrics for confsync.
type Collector struct {
	// Sync metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	FieldRejections   *prometheus.CounterVec
	DecodeErrors      *prometheus.CounterVec
	QueuePending      prometheus.Gauge
	SchemaFields      prometheus.Gauge

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthFailures    *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total sync operations handled, by kind and outcome",
			},
			[]string{"op", "outcome"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Time spent handling a sync operation",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"op"},
		),
		FieldRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "field_rejections_total",
				Help:      "Field writes refused by coercion or range checks",
			},
			[]string{"field", "reason"},
		),
		DecodeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decode_errors_total",
				Help:      "Messages discarded because they could not be decoded",
			},
			[]string{"reason"},
		),
		QueuePending: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queue_pending",
				Help:      "Jobs waiting on the sync queue",
			},
		),
		SchemaFields: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "schema_fields",
				Help:      "Number of fields in the built schema",
			},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Total number of authentication failures",
			},
			[]string{"reason"},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// ObserveOperation counts a handled operation.
func (c *Collector) ObserveOperation(op, outcome string, d time.Duration) {
	c.Operations.WithLabelValues(op, outcome).Inc()
	c.OperationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// FieldRejected counts a refused field write.
func (c *Collector) FieldRejected(field, reason string) {
	c.FieldRejections.WithLabelValues(field, reason).Inc()
}

// DecodeError counts a discarded message.
func (c *Collector) DecodeError(reason string) {
	c.DecodeErrors.WithLabelValues(reason).Inc()
}

// QueueDepth reports pending queue jobs.
func (c *Collector) QueueDepth(n int) {
	c.QueuePending.Set(float64(n))
}

// ConfigReloaded records the outcome of a config reload.
func (c *Collector) ConfigReloaded(err error, at time.Time) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.Set(float64(at.Unix()))
}

// Ensure interface compliance.
var _ ports.SyncMetrics = (*Collector)(nil)
