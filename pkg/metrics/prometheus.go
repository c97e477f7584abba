package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
	renders      *prometheus.CounterVec
}

// New creates a Prometheus metrics recorder registered on reg.
// A nil reg means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		fetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockdash_fetches_total",
				Help: "Total number of market-data fetches",
			},
			[]string{"source", "kind", "result"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockdash_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockdash_last_price",
				Help: "Last fetched price for a symbol in its quote currency",
			},
			[]string{"symbol"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockdash_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		renders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockdash_renders_total",
				Help: "Total number of dashboards rendered",
			},
			[]string{"style", "mode"},
		),
	}
}

// RecordFetch records one upstream or cache fetch.
func (r *Recorder) RecordFetch(source, kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.fetchesTotal.WithLabelValues(source, kind, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordRender counts a rendered dashboard.
func (r *Recorder) RecordRender(style, mode string) {
	r.renders.WithLabelValues(style, mode).Inc()
}
