package aggregators

import (
	"fmt"

	"log-analyzer/internal/shared/svcerrors"
)

const (
	codeErrorRateExceeded = "AGG_1000"

	codeInternalLineSourceFailed        = "AGG_9000"
	codeInternalAccumulatorRollupFailed = "AGG_9001"
)

// errErrorRateExceeded returns an error when too many lines of the logfile could not be parsed.
func errErrorRateExceeded(errorRate float64) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(
		codeErrorRateExceeded,
		fmt.Sprintf("error rate %.3f exceeds threshold %.3f", errorRate, ErrorThreshold),
		nil,
	)
}

// errInternalLineSourceFailed returns an error when reading the logfile fails midway.
func errInternalLineSourceFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalLineSourceFailed, fmt.Errorf("lineSourceFailed: %w", cause))
}

// errInternalAccumulatorRollupFailed returns an error when a batch accumulator cannot be merged.
func errInternalAccumulatorRollupFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalAccumulatorRollupFailed, fmt.Errorf("accumulatorRollupFailed: %w", cause))
}
