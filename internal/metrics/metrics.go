// Package metrics records run metrics for icspmerge.
//
// Each run owns its own registry; there is no long-running process to
// scrape, so the registry is written to a node-exporter textfile at the end
// of the run when a path is configured.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "icspmerge"

// Run results.
const (
	ResultApplied   = "applied"
	ResultAborted   = "aborted"
	ResultUnchanged = "unchanged"
	ResultFailed    = "failed"
	ResultMerged    = "merged"
)

// Recorder holds the metrics of one run. A nil *Recorder discards all
// observations.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	mergedRules      prometheus.Gauge
	mergedMirrors    prometheus.Gauge
	skippedDocuments prometheus.Counter
	backupFiles      prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "total",
				Help:      "Total number of runs by result",
			},
			[]string{"result"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "duration_seconds",
				Help:      "Duration of a run in seconds, including the confirmation wait",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8), // 10ms to ~164s
			},
		),

		mergedRules: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "merge",
				Name:      "rules",
				Help:      "Number of mirror rules in the merged manifest",
			},
		),

		mergedMirrors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "merge",
				Name:      "mirrors",
				Help:      "Number of mirrors across all rules of the merged manifest",
			},
		),

		skippedDocuments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "source",
				Name:      "skipped_documents_total",
				Help:      "Total number of malformed documents skipped while loading",
			},
		),

		backupFiles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "backup",
				Name:      "files",
				Help:      "Number of files written by the last backup",
			},
		),

		lastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "last_timestamp_seconds",
				Help:      "Unix time at which the last run finished",
			},
		),
	}

	r.registry.MustRegister(
		r.runsTotal,
		r.runDuration,
		r.mergedRules,
		r.mergedMirrors,
		r.skippedDocuments,
		r.backupFiles,
		r.lastRunTimestamp,
	)
	return r
}

// Registry returns the registry holding the run metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordRun records the result and duration of a run.
func (r *Recorder) RecordRun(result string, duration time.Duration, finished time.Time) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(result).Inc()
	r.runDuration.Observe(duration.Seconds())
	r.lastRunTimestamp.Set(float64(finished.Unix()))
}

// RecordMerge records the size of the merged manifest.
func (r *Recorder) RecordMerge(rules, mirrors int) {
	if r == nil {
		return
	}
	r.mergedRules.Set(float64(rules))
	r.mergedMirrors.Set(float64(mirrors))
}

// RecordSkipped adds n skipped documents.
func (r *Recorder) RecordSkipped(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.skippedDocuments.Add(float64(n))
}

// RecordBackup records the number of files of a backup.
func (r *Recorder) RecordBackup(files int) {
	if r == nil {
		return
	}
	r.backupFiles.Set(float64(files))
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
