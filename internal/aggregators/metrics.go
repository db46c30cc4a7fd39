package aggregators

import (
	"log-analyzer/internal/shared/metrics"
)

const (
	valueResultOK     = "ok"
	valueResultFailed = "failed"
)

var (
	// metricParserLinesTotal counts logfile lines seen by the aggregator, labeled by whether
	// the line parsed (result="ok") or not (result="failed").
	metricParserLinesTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubParser,
			Name:      "lines_total",
		},
		[]string{metrics.FieldResult},
	)

	metricParserLinesOK     = metricParserLinesTotal.WithLabelValues(valueResultOK)
	metricParserLinesFailed = metricParserLinesTotal.WithLabelValues(valueResultFailed)

	// metricAggregationRunsTotal counts finished aggregation runs. error_code is empty on success.
	metricAggregationRunsTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubAggregation,
			Name:      "runs_total",
		},
		[]string{metrics.FieldErrorCode},
	)

	// metricAggregationErrorRate is the share of unparseable lines of the last aggregated
	// logfile, set whether or not it passed the threshold.
	metricAggregationErrorRate = metrics.NewGauge(
		metrics.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubAggregation,
			Name:      "error_rate",
		},
	)
)
