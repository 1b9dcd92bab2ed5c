package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the backend.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	externalErrors    *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	detectorRuns      *prometheus.CounterVec
	detectorGroups    *prometheus.CounterVec
	skippedRows       prometheus.Counter
	patternEvals      prometheus.Counter
	patternConflicts  prometheus.Counter
	budgetSummaries   prometheus.Counter
	budgetAnomalies   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hhb_request_duration_seconds",
				Help:    "Duration of operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hhb_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hhb_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hhb_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		detectorRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hhb_detector_runs_total",
				Help: "Total recurrence detector runs by outcome.",
			},
			[]string{"outcome"},
		),
		detectorGroups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hhb_detector_groups_total",
				Help: "Merchant groups considered vs. qualified per run.",
			},
			[]string{"stage"},
		),
		skippedRows: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hhb_detector_skipped_rows_total",
				Help: "Source rows skipped for malformed dates.",
			},
		),
		patternEvals: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hhb_pattern_evaluations_total",
				Help: "Total pattern-vs-transaction evaluations.",
			},
		),
		patternConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hhb_pattern_conflicts_total",
				Help: "Evaluations where multiple patterns of one target kind matched.",
			},
		),
		budgetSummaries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hhb_budget_summaries_total",
				Help: "Total budget summary computations.",
			},
		),
		budgetAnomalies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hhb_budget_anomalies_total",
				Help: "Data-integrity warnings seen while resolving budgets.",
			},
			[]string{"kind"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrDetectorRun records one detector run with its outcome label
// ("ok" or "error").
func (m *Metrics) IncrDetectorRun(outcome string) {
	m.detectorRuns.WithLabelValues(outcome).Inc()
}

// RecordDetectorGroups records how many merchant groups entered
// classification and how many qualified.
func (m *Metrics) RecordDetectorGroups(considered, qualified int) {
	m.detectorGroups.WithLabelValues("considered").Add(float64(considered))
	m.detectorGroups.WithLabelValues("qualified").Add(float64(qualified))
}

// AddSkippedRows counts source rows dropped for malformed dates.
func (m *Metrics) AddSkippedRows(n int) {
	m.skippedRows.Add(float64(n))
}

// IncrPatternEval counts one pattern batch evaluation.
func (m *Metrics) IncrPatternEval() {
	m.patternEvals.Inc()
}

// IncrPatternConflict counts an ambiguous classification.
func (m *Metrics) IncrPatternConflict() {
	m.patternConflicts.Inc()
}

// IncrBudgetSummary counts one summary computation.
func (m *Metrics) IncrBudgetSummary() {
	m.budgetSummaries.Inc()
}

// IncrBudgetAnomaly counts a tolerated data-integrity problem, e.g. a
// budget with zero versions or overlapping version ranges.
func (m *Metrics) IncrBudgetAnomaly(kind string) {
	m.budgetAnomalies.WithLabelValues(kind).Inc()
}

// DetectorRunCount returns the cumulative run counter for an outcome;
// used by the operational snapshot endpoint.
func (m *Metrics) DetectorRunCount(outcome string) float64 {
	return getCounterValue(m.detectorRuns, outcome)
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	metric := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(metric); err != nil {
		return 0
	}
	if metric.Counter != nil && metric.Counter.Value != nil {
		return *metric.Counter.Value
	}
	return 0
}
