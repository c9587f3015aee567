package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	validationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightgate_validations_total",
			Help: "SQL validation outcomes by rejection reason; reason is 'ok' for accepted statements.",
		},
		[]string{"reason"},
	)
	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightgate_cache_lookups_total",
			Help: "Pattern cache lookups by outcome (hit, miss).",
		},
		[]string{"outcome"},
	)
	translationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightgate_translations_total",
			Help: "Natural-language translation attempts by outcome (ok, error).",
		},
		[]string{"outcome"},
	)
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightgate_warehouse_queries_total",
			Help: "Warehouse query executions by outcome (ok, timeout, execution_failed, rejected).",
		},
		[]string{"outcome"},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insightgate_warehouse_query_duration_seconds",
			Help:    "Warehouse query latency for accepted statements.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
	queryRowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insightgate_warehouse_query_rows",
			Help:    "Rows returned per accepted query.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)
	analysisStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightgate_analysis_steps_total",
			Help: "Multi-step analysis subquery executions by outcome (ok, error).",
		},
		[]string{"plan", "outcome"},
	)
	auditRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insightgate_audit_records_total",
			Help: "Audit records produced by the executor.",
		},
	)
	auditArchiveFlushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightgate_audit_archive_flushes_total",
			Help: "Audit archive flushes to object storage by outcome (ok, error, empty).",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		validationsTotal,
		cacheLookupsTotal,
		translationsTotal,
		queriesTotal,
		queryDurationSeconds,
		queryRowsReturned,
		analysisStepsTotal,
		auditRecordsTotal,
		auditArchiveFlushesTotal,
	)
}

// ObserveValidation records one validation outcome. Pass an empty reason for
// accepted statements.
func ObserveValidation(reason string) {
	if reason == "" {
		reason = "ok"
	}
	validationsTotal.WithLabelValues(reason).Inc()
}

func ObserveCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheLookupsTotal.WithLabelValues(outcome).Inc()
}

func ObserveTranslation(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	translationsTotal.WithLabelValues(outcome).Inc()
}

func ObserveQuery(outcome string, rows int, elapsed time.Duration) {
	queriesTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		queryDurationSeconds.Observe(elapsed.Seconds())
		queryRowsReturned.Observe(float64(rows))
	}
}

func ObserveAnalysisStep(plan string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	analysisStepsTotal.WithLabelValues(plan, outcome).Inc()
}

func IncrementAuditRecords() {
	auditRecordsTotal.Inc()
}

func ObserveArchiveFlush(outcome string) {
	auditArchiveFlushesTotal.WithLabelValues(outcome).Inc()
}
