// Package metrics records per-run counters and exports them in the Prometheus
// textfile format for node_exporter style collection.
package metrics

import (
	"fmt"

	"github.com/mres-project/mres/schema"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mres"

// Metrics holds the Prometheus counters, histograms and gauges for one process.
type Metrics struct {
	registry *prometheus.Registry

	RowsRead         *prometheus.CounterVec // labels: hazard
	BuildingsScored  *prometheus.CounterVec // labels: hazard
	FeaturesModified *prometheus.CounterVec // labels: hazard
	DuplicateIDs     *prometheus.CounterVec // labels: hazard
	HazardOutcomes   *prometheus.CounterVec // labels: hazard, status

	ScoreDistribution *prometheus.HistogramVec // labels: hazard
	HazardDuration    *prometheus.HistogramVec // labels: hazard

	ExposureFeatures prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
	LastRunDuration  prometheus.Gauge
}

// NewMetrics creates all metrics and registers them with a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indicator_rows_total",
			Help:      "Indicator rows read from hazard tables.",
		}, []string{"hazard"}),
		BuildingsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buildings_scored_total",
			Help:      "Distinct buildings with a computed RRL.",
		}, []string{"hazard"}),
		FeaturesModified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_modified_total",
			Help:      "Exposure features that received an RRL property.",
		}, []string{"hazard"}),
		DuplicateIDs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_ids_total",
			Help:      "Building ids that appeared more than once in a hazard table.",
		}, []string{"hazard"}),
		HazardOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazard_outcomes_total",
			Help:      "Hazard passes by final status.",
		}, []string{"hazard", "status"}),
		ScoreDistribution: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rrl_score",
			Help:      "Distribution of computed RRL scores.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}, []string{"hazard"}),
		HazardDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hazard_duration_seconds",
			Help:      "Duration of a single hazard pass.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"hazard"}),
		ExposureFeatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "exposure_features",
			Help:      "Features in the exposure collection of the last run.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		LastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
	}

	m.registry.MustRegister(
		m.RowsRead,
		m.BuildingsScored,
		m.FeaturesModified,
		m.DuplicateIDs,
		m.HazardOutcomes,
		m.ScoreDistribution,
		m.HazardDuration,
		m.ExposureFeatures,
		m.LastRunTimestamp,
		m.LastRunDuration,
	)

	return m
}

// Registry exposes the gatherer behind these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHazard records the outcome of one hazard pass. r.Scores is expected
// to hold every building, before any display limit is applied.
func (m *Metrics) ObserveHazard(r schema.HazardResult) {
	h := string(r.Hazard)
	m.HazardOutcomes.WithLabelValues(h, string(r.Status)).Inc()
	m.HazardDuration.WithLabelValues(h).Observe(r.Duration.Seconds())
	if r.Failed() || r.Status == schema.SkippedStatus || r.Status == schema.CancelledStatus {
		return
	}
	m.RowsRead.WithLabelValues(h).Add(float64(r.Rows))
	m.BuildingsScored.WithLabelValues(h).Add(float64(r.Buildings))
	m.FeaturesModified.WithLabelValues(h).Add(float64(r.Modified))
	m.DuplicateIDs.WithLabelValues(h).Add(float64(len(r.DuplicateIDs)))
	for _, s := range r.Scores {
		m.ScoreDistribution.WithLabelValues(h).Observe(s.Score)
	}
}

// ObserveRun records every hazard of a run plus the run-level gauges.
func (m *Metrics) ObserveRun(out schema.RunOutput) {
	for _, r := range out.Hazards {
		m.ObserveHazard(r)
	}
	m.ExposureFeatures.Set(float64(out.Features))
	m.LastRunDuration.Set(out.Duration.Seconds())
	m.LastRunTimestamp.Set(float64(out.StartTime.Add(out.Duration).Unix()))
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
