// Package metrics exposes Prometheus collectors for analysis runs and drilling model fits.
// Collectors live on a package registry so a CLI run can dump them to a textfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds every tyon collector.
	Registry = prometheus.NewRegistry()

	// AnalysisRuns counts analyses by mode and status (success or error).
	AnalysisRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tyon_analysis_runs_total",
			Help: "Total number of well-log analyses",
		},
		[]string{"mode", "status"},
	)

	// WindowsProcessed counts scored windows by mode.
	WindowsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tyon_windows_processed_total",
			Help: "Total number of scored windows",
		},
		[]string{"mode"},
	)

	// TargetZones records how many zones each analysis selects.
	TargetZones = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tyon_target_zones",
			Help:    "Number of target zones selected per analysis",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"mode"},
	)

	// AnalysisDuration records the wall time of each analysis.
	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tyon_analysis_duration_seconds",
			Help:    "Analysis duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"mode"},
	)

	// ModelFits counts drilling model fits by status.
	ModelFits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tyon_drilling_model_fits_total",
			Help: "Total number of drilling model fits",
		},
		[]string{"status"},
	)

	// ModelRSquared is the R² of the last successful fit.
	ModelRSquared = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tyon_drilling_model_r_squared",
			Help: "Coefficient of determination of the last drilling model fit",
		},
	)
)

func init() {
	Registry.MustRegister(
		AnalysisRuns,
		WindowsProcessed,
		TargetZones,
		AnalysisDuration,
		ModelFits,
		ModelRSquared,
	)
}

// RecordAnalysis records one successful analysis.
func RecordAnalysis(mode string, windows, zones int, seconds float64) {
	AnalysisRuns.WithLabelValues(mode, "success").Inc()
	WindowsProcessed.WithLabelValues(mode).Add(float64(windows))
	TargetZones.WithLabelValues(mode).Observe(float64(zones))
	AnalysisDuration.WithLabelValues(mode).Observe(seconds)
}

// RecordAnalysisError records one analysis rejected by input validation.
func RecordAnalysisError(mode string) {
	AnalysisRuns.WithLabelValues(mode, "error").Inc()
}

// RecordFit records a drilling model fit attempt.
func RecordFit(rSquared float64, err error) {
	if err != nil {
		ModelFits.WithLabelValues("error").Inc()
		return
	}
	ModelFits.WithLabelValues("success").Inc()
	ModelRSquared.Set(rSquared)
}

// WriteTextfile writes the registry in the Prometheus text format to path.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
