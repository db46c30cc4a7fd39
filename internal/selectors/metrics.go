package selectors

import (
	"log-analyzer/internal/shared/metrics"
)

// metricSelectorSkippedTotal counts directory entries that match the logfile name pattern
// but cannot be selected, labeled by reason (invalid_date, not_regular).
var (
	metricSelectorSkippedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubSelector,
			Name:      "skipped_total",
		},
		[]string{metrics.FieldReason},
	)
)
