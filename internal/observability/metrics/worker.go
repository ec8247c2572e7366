package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
)

// BatchMetrics observes the bulk pipeline: per-row outcomes and batch lifecycle.
type BatchMetrics struct {
	registry *prometheus.Registry
	service  string

	rowsTotal       *prometheus.CounterVec
	rowDuration     *prometheus.HistogramVec
	batchesTotal    *prometheus.CounterVec
	batchDuration   *prometheus.HistogramVec
	batchesInFlight prometheus.Gauge
}

func NewBatchMetrics(service string) *BatchMetrics {
	registry := prometheus.NewRegistry()

	rowsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows_total",
			Help:      "Classified rows by outcome.",
		},
		[]string{"service", "outcome"},
	)
	rowDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "row_duration_seconds",
			Help:      "Round trip to the classification endpoint per row.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service", "outcome"},
	)
	batchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "batches_total",
			Help:      "Finished batches by final status.",
		},
		[]string{"service", "status"},
	)
	batchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "batch_duration_seconds",
			Help:      "Batch processing duration in seconds by status.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"service", "status"},
	)
	batchesInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "batches_in_flight",
			Help:      "Number of batches being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(rowsTotal, rowDuration, batchesTotal, batchDuration, batchesInFlight)

	return &BatchMetrics{
		registry:        registry,
		service:         service,
		rowsTotal:       rowsTotal,
		rowDuration:     rowDuration,
		batchesTotal:    batchesTotal,
		batchDuration:   batchDuration,
		batchesInFlight: batchesInFlight,
	}
}

func (m *BatchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *BatchMetrics) ObserveRow(outcome string, duration time.Duration) {
	m.rowsTotal.WithLabelValues(m.service, outcome).Inc()
	m.rowDuration.WithLabelValues(m.service, outcome).Observe(duration.Seconds())
}

func (m *BatchMetrics) StartBatch() {
	m.batchesInFlight.Inc()
}

func (m *BatchMetrics) FinishBatch(status domain.BatchStatus, duration time.Duration) {
	m.batchesInFlight.Dec()
	m.batchesTotal.WithLabelValues(m.service, string(status)).Inc()
	m.batchDuration.WithLabelValues(m.service, string(status)).Observe(duration.Seconds())
}
