package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const metricsNamespace = "ddosprep"

// RunMetrics exposes a finished run as Prometheus gauges. The registry is
// private to the run and written out as a node_exporter textfile.
type RunMetrics struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	success       prometheus.Gauge
	lastRun       prometheus.Gauge
	runDuration   prometheus.Gauge
	stageDuration *prometheus.GaugeVec
	rows          *prometheus.GaugeVec
	classRows     *prometheus.GaugeVec
	clippedCells  *prometheus.GaugeVec
	duplicates    prometheus.Gauge
}

// NewRunMetrics creates a new RunMetrics instance
func NewRunMetrics(logger *zap.Logger) *RunMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		logger:   logger,
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_success",
			Help:      "1 if the last run completed without error.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage in the last run.",
		}, []string{"stage"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "rows",
			Help:      "Rows per split before and after resampling.",
		}, []string{"split", "phase"}),
		classRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "class_rows",
			Help:      "Rows per class per split after resampling.",
		}, []string{"split", "class"}),
		clippedCells: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "clipped_cells",
			Help:      "Cells winsorized per feature and split.",
		}, []string{"split", "column"}),
		duplicates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "duplicate_rows_dropped",
			Help:      "Duplicate rows removed during ingestion.",
		}),
	}

	m.registry.MustRegister(
		m.success,
		m.lastRun,
		m.runDuration,
		m.stageDuration,
		m.rows,
		m.classRows,
		m.clippedCells,
		m.duplicates,
	)
	return m
}

// Registry returns the gatherer holding the run metrics
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe copies a completed report into the gauges
func (m *RunMetrics) Observe(report *RunReport) {
	if report.Success {
		m.success.Set(1)
	} else {
		m.success.Set(0)
	}
	m.lastRun.Set(float64(report.EndTime.Unix()))
	m.runDuration.Set(report.Duration.Seconds())

	for _, s := range report.Stages {
		m.stageDuration.WithLabelValues(string(s.Stage)).Set(s.Duration.Seconds())
	}

	if report.Ingestion != nil {
		m.duplicates.Set(float64(report.Ingestion.Duplicates))
	}

	for _, split := range report.Splits {
		m.rows.WithLabelValues(string(split.Split), "in").Set(float64(split.RowsIn))
		m.rows.WithLabelValues(string(split.Split), "out").Set(float64(split.RowsOut))
		for class, n := range split.ClassesAfter {
			m.classRows.WithLabelValues(string(split.Split), class).Set(float64(n))
		}
	}

	for _, op := range report.Clips {
		m.clippedCells.WithLabelValues(string(op.Split), strings.TrimSpace(op.Column)).Set(float64(op.Clipped()))
	}
}

// WriteTextfile writes the metrics in the text exposition format. The
// client library writes a temp file and renames it into place.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return err
	}
	m.logger.Debug("Wrote run metrics", zap.String("path", path))
	return nil
}
