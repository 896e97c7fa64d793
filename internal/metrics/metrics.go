package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Stage outcome label values.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

var (
	// StageRuns counts stage executions by outcome
	StageRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legisync_stage_runs_total",
			Help: "Total number of stage executions by outcome",
		},
		[]string{"stage", "outcome"},
	)

	// StageRetries counts retried attempts per stage
	StageRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legisync_stage_retries_total",
			Help: "Total number of stage attempts retried after a transient failure",
		},
		[]string{"stage"},
	)

	// StageDuration tracks wall time per stage, retries included
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "legisync_stage_duration_seconds",
			Help:    "Stage duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// RowsAffected tracks rows written by each stage
	RowsAffected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legisync_rows_affected_total",
			Help: "Total number of rows written per stage",
		},
		[]string{"stage"},
	)

	// RowsDropped counts input records dropped before reaching the store
	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legisync_rows_dropped_total",
			Help: "Total number of input records dropped as duplicates or orphans",
		},
		[]string{"entity", "reason"},
	)

	// DBBatchSize tracks the size of transactional batches
	DBBatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "legisync_db_batch_size",
			Help:    "Number of records written per transaction",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionPoolUsage is open connections as a percentage of the pool limit
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "legisync_db_connection_pool_usage_percent",
			Help: "Open connections as a percentage of max open connections",
		},
	)

	// Enrichments counts generated summaries by outcome
	Enrichments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legisync_enrichments_total",
			Help: "Total number of bill enrichments by outcome",
		},
		[]string{"outcome"},
	)

	// EnrichmentTokens counts tokens consumed by the generator
	EnrichmentTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legisync_enrichment_tokens_total",
			Help: "Total number of model tokens consumed",
		},
		[]string{"kind"},
	)

	// RunLastSuccess is the unix time of the last run that exited zero
	RunLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "legisync_run_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		},
	)

	// RunDuration is the duration of the last run
	RunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "legisync_run_duration_seconds",
			Help: "Duration of the last run in seconds",
		},
	)
)

// Push sends every registered metric to a Prometheus pushgateway. Batch runs
// exit before a scrape could happen, so this is how they report.
func Push(url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
