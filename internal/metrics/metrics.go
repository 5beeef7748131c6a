// Package metrics holds the process-wide Prometheus collectors for the
// scanner and broker, registered once against the default registry and
// served by internal/dashboard's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScanDuration observes wall-clock time spent inside scanner.Scan.
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sym2arb",
		Subsystem: "scanner",
		Name:      "scan_duration_seconds",
		Help:      "Time spent evaluating one scan across all candidate pairs.",
		Buckets:   prometheus.DefBuckets,
	})

	// PairsEvaluated counts candidate pairs passed to evaluatePair,
	// regardless of whether they produced an admissible result.
	PairsEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sym2arb",
		Subsystem: "scanner",
		Name:      "pairs_evaluated_total",
		Help:      "Total candidate strike pairs evaluated across all scans.",
	})

	// StalePriceRejections counts sampled times, within a candidate pair's
	// spread series, at which either leg's price was stale. The sample is
	// still kept in the series; the counter does not filter anything.
	StalePriceRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sym2arb",
		Subsystem: "scanner",
		Name:      "stale_price_rejections_total",
		Help:      "Spread-series samples at which either leg's price was stale.",
	})

	// BrokerCircuitState reports the broker circuit breaker's current
	// state: 0 closed, 1 half-open, 2 open (matches gobreaker.State's
	// own ordering).
	BrokerCircuitState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sym2arb",
		Subsystem: "broker",
		Name:      "circuit_state",
		Help:      "Current broker circuit breaker state (0=closed, 1=half-open, 2=open).",
	})
)
