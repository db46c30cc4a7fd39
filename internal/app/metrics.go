package app

import (
	"time"

	"log-analyzer/internal/shared/metrics"
	"log-analyzer/internal/shared/svcerrors"
)

var (
	// metricReportRenderedTotal counts report publications. error_code is empty on success.
	metricReportRenderedTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubReport,
			Name:      "rendered_total",
		},
		[]string{metrics.FieldErrorCode},
	)

	metricRunsTotal = metrics.NewCounterVec(
		metrics.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubRun,
			Name:      "total",
		},
		[]string{metrics.FieldStatus, metrics.FieldErrorCode},
	)

	// metricRunLastSuccess is the unix time of the last run that ended without error.
	metricRunLastSuccess = metrics.NewGauge(
		metrics.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: metrics.SubRun,
			Name:      "last_success_timestamp_seconds",
		},
	)
)

func recordReportRendered(err error) {
	metricReportRenderedTotal.WithLabelValues(errorCode(err)).Inc()
}

func recordRun(result *RunResult, err error) {
	if err != nil {
		metricRunsTotal.WithLabelValues("failed", errorCode(err)).Inc()
		return
	}
	metricRunsTotal.WithLabelValues(string(result.Status), metrics.ValueNoError).Inc()
	metricRunLastSuccess.Set(float64(time.Now().Unix()))
}

func errorCode(err error) string {
	if err == nil {
		return metrics.ValueNoError
	}
	svcErr, ok := svcerrors.AsServiceError(err)
	if !ok {
		svcErr = svcerrors.NewInternalErrorUndefined(err)
	}
	return svcErr.Code
}
