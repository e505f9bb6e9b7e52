package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// CheckerMetrics tracks orchestration runs and the per-target pipeline.
type CheckerMetrics struct {
	registry *prometheus.Registry

	runsTotal         *prometheus.CounterVec
	runDuration       prometheus.Histogram
	activeRuns        prometheus.Gauge
	targetsTotal      *prometheus.CounterVec
	versionsAdded     prometheus.Counter
	manualReviewTotal prometheus.Counter
	anomaliesTotal    prometheus.Counter
	confidenceScore   prometheus.Histogram
	stageDuration     *prometheus.HistogramVec
}

// NewCheckerMetrics creates and registers the checker collectors.
func NewCheckerMetrics(registry *prometheus.Registry) (*CheckerMetrics, error) {
	m := &CheckerMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *CheckerMetrics) initMetrics() {
	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "releasewatch_check_runs_total",
			Help: "Total number of orchestration runs",
		},
		[]string{"status"}, // success, failure, timeout, aborted
	)

	m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "releasewatch_check_run_duration_seconds",
		Help:    "Wall-clock duration of orchestration runs",
		Buckets: prometheus.ExponentialBuckets(BucketStart1s, BucketFactor2, BucketCount12), // 1s to ~34m
	})

	m.activeRuns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "releasewatch_check_runs_active",
		Help: "Number of orchestration runs in progress",
	})

	m.targetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "releasewatch_target_checks_total",
			Help: "Total number of target checks by final state",
		},
		[]string{"status", "state"}, // state: the pipeline state where the check ended
	)

	m.versionsAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "releasewatch_versions_added_total",
		Help: "Total number of new version records",
	})

	m.manualReviewTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "releasewatch_manual_review_total",
		Help: "Total number of checks flagged for manual review",
	})

	m.anomaliesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "releasewatch_anomalies_total",
		Help: "Total number of suspicious version transitions",
	})

	m.confidenceScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "releasewatch_confidence_score",
		Help:    "Distribution of final confidence scores",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	m.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "releasewatch_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount15),
		},
		[]string{"stage", "status"},
	)
}

func (m *CheckerMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.runsTotal,
		m.runDuration,
		m.activeRuns,
		m.targetsTotal,
		m.versionsAdded,
		m.manualReviewTotal,
		m.anomaliesTotal,
		m.confidenceScore,
		m.stageDuration,
	}
}

// Describe implements the Collector interface
func (m *CheckerMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *CheckerMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RunStarted marks a run as active.
func (m *CheckerMetrics) RunStarted() {
	m.activeRuns.Inc()
}

// RunFinished records a completed or aborted run.
func (m *CheckerMetrics) RunFinished(status string, duration time.Duration) {
	m.activeRuns.Dec()
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(duration.Seconds())
}

// RunAborted records a run refused before it started.
func (m *CheckerMetrics) RunAborted() {
	m.runsTotal.WithLabelValues(StatusAborted).Inc()
}

// RecordTarget records one target's terminal state.
func (m *CheckerMetrics) RecordTarget(status, state string, versionsAdded int) {
	m.targetsTotal.WithLabelValues(status, state).Inc()
	if versionsAdded > 0 {
		m.versionsAdded.Add(float64(versionsAdded))
	}
}

// RecordScore records the final score and review decision of a validated check.
func (m *CheckerMetrics) RecordScore(score int, anomaly, manualReview bool) {
	m.confidenceScore.Observe(float64(score))
	if anomaly {
		m.anomaliesTotal.Inc()
	}
	if manualReview {
		m.manualReviewTotal.Inc()
	}
}

// RecordStage records the duration of one pipeline stage.
func (m *CheckerMetrics) RecordStage(stage, status string, duration time.Duration) {
	m.stageDuration.WithLabelValues(stage, status).Observe(duration.Seconds())
}

// ActiveRuns returns the number of runs in progress.
func (m *CheckerMetrics) ActiveRuns() float64 {
	metric := &dto.Metric{}
	if err := m.activeRuns.Write(metric); err != nil {
		return 0
	}
	if metric.Gauge != nil && metric.Gauge.Value != nil {
		return *metric.Gauge.Value
	}
	return 0
}
