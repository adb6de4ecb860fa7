package infra

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the run's Prometheus collectors on a private registry,
// dumped to a node-exporter textfile at the end of the run.
type Metrics struct {
	registry *prometheus.Registry

	fetchDuration *prometheus.HistogramVec
	assets        *prometheus.CounterVec
	lastRun       prometheus.Gauge
	lastRunAssets *prometheus.GaugeVec
}

// NewMetrics registers the marketweek collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marketweek",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of source page fetches.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"strategy", "result"}),
		assets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketweek",
			Name:      "assets_total",
			Help:      "Assets processed, by outcome and failure kind.",
		}, []string{"result", "kind"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "marketweek",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		lastRunAssets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "marketweek",
			Name:      "last_run_assets",
			Help:      "Assets in the last run, by outcome.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.fetchDuration, m.assets, m.lastRun, m.lastRunAssets)
	return m
}

// ObserveFetch records one fetch attempt.
func (m *Metrics) ObserveFetch(strategy string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetchDuration.WithLabelValues(strategy, result).Observe(d.Seconds())
}

// ObserveAsset counts one asset outcome. kind is empty for a success.
func (m *Metrics) ObserveAsset(kind string) {
	if kind == "" {
		m.assets.WithLabelValues("ok", "").Inc()
		return
	}
	m.assets.WithLabelValues("failed", kind).Inc()
}

// MarkRun records the end of a run.
func (m *Metrics) MarkRun(at time.Time, ok, failed int) {
	m.lastRun.Set(float64(at.Unix()))
	m.lastRunAssets.WithLabelValues("ok").Set(float64(ok))
	m.lastRunAssets.WithLabelValues("failed").Set(float64(failed))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all collectors in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
