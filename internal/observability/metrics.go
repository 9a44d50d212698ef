package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of one build run.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	entryPointsTotal *prometheus.CounterVec
	bundlesTotal     *prometheus.CounterVec
	bundleDuration   prometheus.Histogram
	artifactBytes    prometheus.Histogram
	buildDuration    prometheus.Gauge
	buildSuccess     prometheus.Gauge
	buildTimestamp   prometheus.Gauge
}

// NewMetrics creates the build metrics on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		entryPointsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reactbundle_entry_points_total",
				Help: "Entry points discovered, by kind",
			},
			[]string{"kind"},
		),
		bundlesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reactbundle_bundles_total",
				Help: "Bundle invocations, by status",
			},
			[]string{"status"},
		),
		bundleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reactbundle_bundle_duration_seconds",
				Help:    "Time spent bundling one entry point",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		artifactBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reactbundle_artifact_size_bytes",
				Help:    "Size of produced artifacts in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),
		buildDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "reactbundle_build_duration_seconds",
				Help: "Duration of the last build",
			},
		),
		buildSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "reactbundle_build_success",
				Help: "1 if the last build succeeded, 0 otherwise",
			},
		),
		buildTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "reactbundle_build_timestamp_seconds",
				Help: "Unix time the last build finished",
			},
		),
	}
}

// Registry returns the registry holding the build metrics
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordEntryPoint counts a discovered entry point
func (m *Metrics) RecordEntryPoint(kind string) {
	if m == nil {
		return
	}
	m.entryPointsTotal.WithLabelValues(kind).Inc()
}

// RecordBundle records one bundle invocation
func (m *Metrics) RecordBundle(duration time.Duration, bytes int, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.bundlesTotal.WithLabelValues(status).Inc()
	m.bundleDuration.Observe(duration.Seconds())
	if err == nil {
		m.artifactBytes.Observe(float64(bytes))
	}
}

// RecordBuild records the outcome of a whole run
func (m *Metrics) RecordBuild(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.buildDuration.Set(duration.Seconds())
	if err == nil {
		m.buildSuccess.Set(1)
	} else {
		m.buildSuccess.Set(0)
	}
	m.buildTimestamp.SetToCurrentTime()
}

// WriteTextfile writes the metrics in the node_exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
