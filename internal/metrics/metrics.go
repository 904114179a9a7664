// Package metrics exposes reconciliation run statistics in the Prometheus format,
// either over HTTP or as a node-exporter textfile.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/reconcile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "iptvsync"

// Metrics holds the collectors of one process on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal          *prometheus.CounterVec
	lastRunTimestamp   prometheus.Gauge
	lastSuccessTime    prometheus.Gauge
	playlistEntries    *prometheus.GaugeVec
	probesTotal        *prometheus.CounterVec
	runDurationSeconds prometheus.Histogram
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of reconciliation runs by outcome",
			},
			[]string{"status"},
		),

		lastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix timestamp of the last finished run",
			},
		),

		lastSuccessTime: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix timestamp of the last successful run",
			},
		),

		playlistEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "playlist_entries",
				Help:      "Entry counts of the last run",
			},
			[]string{"kind"}, // upstream, local, discovered, merged, added, updated, preserved
		),

		probesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probes_total",
				Help:      "Total number of liveness probes by result",
			},
			[]string{"result"},
		),

		runDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of reconciliation runs in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
	}
}

// ObserveProbe counts a liveness probe result.
func (m *Metrics) ObserveProbe(alive bool) {
	result := "dead"
	if alive {
		result = "alive"
	}

	m.probesTotal.WithLabelValues(result).Inc()
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(r *reconcile.Report) {
	m.runsTotal.WithLabelValues(string(r.Outcome)).Inc()
	m.lastRunTimestamp.Set(float64(r.FinishedAt.Unix()))
	m.runDurationSeconds.Observe(r.Duration().Seconds())

	if !r.Succeeded() {
		return
	}

	m.lastSuccessTime.Set(float64(r.FinishedAt.Unix()))

	counts := map[string]int{
		"upstream":   r.Upstream,
		"local":      r.Local,
		"discovered": r.Discovered,
		"merged":     r.Merged,
		"added":      len(r.Added),
		"updated":    len(r.Updated),
		"preserved":  len(r.Preserved),
	}

	for kind, count := range counts {
		m.playlistEntries.WithLabelValues(kind).Set(float64(count))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path for the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}

	return nil
}
