// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RunsTotal tracks pipeline runs by status
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		},
		[]string{"status"},
	)

	// RunDuration tracks pipeline run duration in seconds
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"status"},
	)

	// StageDuration tracks the duration of single pipeline stages
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"stage"},
	)

	// Clusters tracks the number of duplicate clusters of the last run
	Clusters = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "clover",
			Subsystem: "resolution",
			Name:      "clusters",
			Help:      "Number of duplicate clusters found by the last run",
		},
		[]string{"entity_type"},
	)

	// WarningsTotal tracks data quality warnings
	WarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "resolution",
			Name:      "warnings_total",
			Help:      "Total number of data quality warnings by kind",
		},
		[]string{"kind"},
	)
)

// Recorder reports pipeline progress to the package level collectors
type Recorder struct{}

// NewRecorder creates a new Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// ObserveStage records the duration of one stage
func (Recorder) ObserveStage(stage string, d time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRun records a finished run
func (Recorder) ObserveRun(status string, d time.Duration) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.WithLabelValues(status).Observe(d.Seconds())
}

// SetClusters records the cluster count of an entity type
func (Recorder) SetClusters(entity string, n int) {
	Clusters.WithLabelValues(entity).Set(float64(n))
}

// AddWarnings adds n warnings of kind
func (Recorder) AddWarnings(kind string, n int) {
	WarningsTotal.WithLabelValues(kind).Add(float64(n))
}

// RegisterRoutes exposes the default registry on /metrics
func RegisterRoutes(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
