// Package metrics exports run statistics in the Prometheus textfile format,
// for pickup by the node_exporter textfile collector after batch runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the metrics of one process. Each Recorder has its own registry.
type Recorder struct {
	registry *prometheus.Registry
	entries  *prometheus.GaugeVec
	lastRun  prometheus.Gauge
	success  prometheus.Gauge
	duration prometheus.Gauge
}

// NewRecorder creates and registers the sitemap metrics.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		entries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sitemap_entries",
			Help: "Number of URL entries in the last generated sitemap by kind",
		}, []string{"kind"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sitemap_last_run_timestamp_seconds",
			Help: "Unix time of the last generation attempt",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sitemap_last_run_success",
			Help: "1 if the last generation attempt succeeded, 0 otherwise",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sitemap_build_duration_seconds",
			Help: "Wall time of the last generation attempt",
		}),
	}

	r.registry.MustRegister(r.entries, r.lastRun, r.success, r.duration)

	return r
}

// RecordRun stores the outcome of one generation attempt. Entry counts are
// only updated on success so a failed run does not zero the last good values.
func (r *Recorder) RecordRun(static, dynamic int, took time.Duration, runErr error, at time.Time) {
	r.lastRun.Set(float64(at.Unix()))
	r.duration.Set(took.Seconds())

	if runErr != nil {
		r.success.Set(0)
		return
	}

	r.success.Set(1)
	r.entries.WithLabelValues("static").Set(float64(static))
	r.entries.WithLabelValues("dynamic").Set(float64(dynamic))
}

// WriteTextfile atomically writes all metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
