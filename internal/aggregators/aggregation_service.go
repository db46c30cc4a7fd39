package aggregators

import (
	"context"
	"errors"
	"io"

	"log-analyzer/internal/models"
	"log-analyzer/internal/readers"
	"log-analyzer/internal/shared/loggers"
	"log-analyzer/internal/shared/metrics"
	"log-analyzer/internal/shared/svcerrors"
)

const (
	// ErrorThreshold is the highest tolerated share of unparsable lines.
	ErrorThreshold = 0.2

	defaultBatchSize = 4096
)

type AggregationService interface {
	// Aggregate drains source and returns per-URL accumulators and run totals.
	// It fails when the share of unparsable lines exceeds ErrorThreshold.
	Aggregate(ctx context.Context, source readers.LineSource) (*models.AggregationResult, error)
}

type aggregationService struct {
	rolluper  AccumulatorRolluper
	batchSize int
}

func NewAggregationService(rolluper AccumulatorRolluper) AggregationService {
	return &aggregationService{rolluper: rolluper, batchSize: defaultBatchSize}
}

func (s *aggregationService) Aggregate(ctx context.Context, source readers.LineSource) (*models.AggregationResult, error) {
	logger := loggers.Ctx(ctx)
	logger.Debug().Msg("started aggregating logfile")

	result := models.NewAggregationResult()
	uaNormalizer := newUserAgentNormalizer()
	batch := make(map[string]*models.URLAccumulator)
	batchLines := 0

	for {
		outcome, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			svcErr := errInternalLineSourceFailed(err)
			metricAggregationRunsTotal.WithLabelValues(svcErr.Code).Inc()
			return nil, svcErr
		}

		result.Totals.TotalLines++
		if outcome.Failed() {
			result.Totals.ErrorLines++
			metricParserLinesFailed.Inc()
			logger.Warn().
				Int(loggers.FieldLineNumber, outcome.LineNum).
				Str(loggers.FieldLine, outcome.Raw).
				Msg("failed to parse line")
			continue
		}
		metricParserLinesOK.Inc()

		record := outcome.Record
		acc, ok := batch[record.URL]
		if !ok {
			acc = models.NewURLAccumulator(record.URL)
			batch[record.URL] = acc
		}
		acc.Add(record.RequestTime)
		result.Totals.SummaryTime += record.RequestTime
		result.RequestsByUserAgent[uaNormalizer.Normalize(record.UserAgent)]++

		batchLines++
		if batchLines >= s.batchSize {
			if err := s.rollupBatch(result, batch); err != nil {
				return nil, err
			}
			batch = make(map[string]*models.URLAccumulator)
			batchLines = 0
		}
	}

	if err := s.rollupBatch(result, batch); err != nil {
		return nil, err
	}
	result.Totals.SummaryTime = models.Round3(result.Totals.SummaryTime)

	logger.Info().
		Int64("total_lines", result.Totals.TotalLines).
		Int64("error_lines", result.Totals.ErrorLines).
		Int("urls", len(result.Accumulators)).
		Msg("finished aggregating logfile")

	errorRate := result.Totals.ErrorRate()
	metricAggregationErrorRate.Set(errorRate)
	if errorRate > ErrorThreshold {
		svcErr := errErrorRateExceeded(errorRate)
		metricAggregationRunsTotal.WithLabelValues(svcErr.Code).Inc()
		return nil, svcErr
	}

	metricAggregationRunsTotal.WithLabelValues(metrics.ValueNoError).Inc()
	return result, nil
}

// rollupBatch folds the accumulators of one batch into result.
func (s *aggregationService) rollupBatch(result *models.AggregationResult, batch map[string]*models.URLAccumulator) *svcerrors.ServiceError {
	for url, partial := range batch {
		acc, ok := result.Accumulators[url]
		if !ok {
			result.Accumulators[url] = partial
			continue
		}
		if err := s.rolluper.Rollup(acc, partial); err != nil {
			svcErr := errInternalAccumulatorRollupFailed(err)
			metricAggregationRunsTotal.WithLabelValues(svcErr.Code).Inc()
			return svcErr
		}
	}
	return nil
}
