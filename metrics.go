package tinyhttpd

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsSink observes connection and request lifecycle events. The core
// never blocks on it and never treats it as load-bearing — it exists
// purely for observability, per the ambient stack. A first-class,
// always-compiled interface rather than a package-level var block behind
// a build tag.
type MetricsSink interface {
	ConnectionOpened()
	ConnectionClosed()
	RequestServed(status int, d time.Duration)
	ParseError(kind ReadErrorKind)
}

// NopMetrics discards every event. It is the default Sink when a Server
// is built without NewPrometheusMetrics.
type NopMetrics struct{}

func (NopMetrics) ConnectionOpened()                        {}
func (NopMetrics) ConnectionClosed()                        {}
func (NopMetrics) RequestServed(int, time.Duration)         {}
func (NopMetrics) ParseError(ReadErrorKind)                 {}

// PrometheusMetrics is a MetricsSink backed by the default registry (or
// any prometheus.Registerer, via NewPrometheusMetricsFor).
type PrometheusMetrics struct {
	connectionsActive   prometheus.Gauge
	connectionsAccepted prometheus.Counter
	requestsServed      *prometheus.CounterVec
	requestDuration     prometheus.Histogram
	parseErrors         *prometheus.CounterVec
}

// NewPrometheusMetrics registers the core's metrics on the default
// registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsFor(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsFor registers the core's metrics on reg.
func NewPrometheusMetricsFor(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		connectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tinyhttpd",
			Name:      "connections_active",
			Help:      "Currently open connections.",
		}),
		connectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tinyhttpd",
			Name:      "connections_accepted_total",
			Help:      "Connections accepted since start.",
		}),
		requestsServed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tinyhttpd",
			Name:      "requests_served_total",
			Help:      "Requests served, by status class.",
		}, []string{"status"}),
		requestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tinyhttpd",
			Name:      "request_duration_seconds",
			Help:      "Time from request parsed to response flushed.",
			Buckets:   prometheus.DefBuckets,
		}),
		parseErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tinyhttpd",
			Name:      "parse_errors_total",
			Help:      "Request parse failures, by error kind.",
		}, []string{"kind"}),
	}
}

func (m *PrometheusMetrics) ConnectionOpened() {
	m.connectionsActive.Inc()
	m.connectionsAccepted.Inc()
}

func (m *PrometheusMetrics) ConnectionClosed() {
	m.connectionsActive.Dec()
}

func (m *PrometheusMetrics) RequestServed(status int, d time.Duration) {
	m.requestsServed.WithLabelValues(statusClassLabel(status)).Inc()
	m.requestDuration.Observe(d.Seconds())
}

func (m *PrometheusMetrics) ParseError(kind ReadErrorKind) {
	m.parseErrors.WithLabelValues(kind.String()).Inc()
}

func statusClassLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}

func orNopMetrics(m MetricsSink) MetricsSink {
	if m == nil {
		return NopMetrics{}
	}
	return m
}
