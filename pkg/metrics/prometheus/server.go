package prometheus

import (
	"strconv"
	"time"

	"github.com/marmos91/hellod/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// serverMetrics is the Prometheus implementation of metrics.ServerMetrics.
type serverMetrics struct {
	connectionsAccepted prometheus.Counter
	connectionsClosed   prometheus.Counter
	connectionDuration  prometheus.Histogram
	activeWorkers       prometheus.Gauge
	acceptErrors        prometheus.Counter
	responsesTotal      *prometheus.CounterVec
	bytesTransferred    *prometheus.CounterVec
}

// NewServerMetrics creates ServerMetrics registered on the global registry.
//
// Returns a no-op implementation if metrics.InitRegistry has not been called.
func NewServerMetrics() metrics.ServerMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopServerMetrics()
	}
	return NewServerMetricsWith(metrics.GetRegistry())
}

// NewServerMetricsWith registers the collectors on reg.
func NewServerMetricsWith(reg prometheus.Registerer) metrics.ServerMetrics {
	return &serverMetrics{
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hellod_connections_accepted_total",
				Help: "Total number of connections accepted",
			},
		),
		connectionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hellod_connections_closed_total",
				Help: "Total number of connections closed by their worker",
			},
		),
		connectionDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "hellod_connection_duration_seconds",
				Help: "Time from accept to close for each connection",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.1,   // 100ms
					1,     // 1s
					10,    // 10s
					60,    // 1m
				},
			},
		),
		activeWorkers: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "hellod_active_workers",
				Help: "Current number of running connection workers",
			},
		),
		acceptErrors: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hellod_accept_errors_total",
				Help: "Total number of accept failures that were retried",
			},
		),
		responsesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hellod_responses_total",
				Help: "Total number of responses written by status code",
			},
			[]string{"status"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hellod_bytes_transferred_total",
				Help: "Total bytes read from and written to clients",
			},
			[]string{"direction"},
		),
	}
}

func (m *serverMetrics) RecordConnectionAccepted() {
	m.connectionsAccepted.Inc()
	m.activeWorkers.Inc()
}

func (m *serverMetrics) RecordConnectionClosed(duration time.Duration) {
	m.connectionsClosed.Inc()
	m.activeWorkers.Dec()
	m.connectionDuration.Observe(duration.Seconds())
}

func (m *serverMetrics) RecordAcceptError() {
	m.acceptErrors.Inc()
}

func (m *serverMetrics) RecordResponse(statusCode int) {
	m.responsesTotal.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (m *serverMetrics) RecordBytesTransferred(direction string, bytes int64) {
	m.bytesTransferred.WithLabelValues(direction).Add(float64(bytes))
}
