package aggregators

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"log-analyzer/internal/models"
	"log-analyzer/internal/shared/svcerrors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const firefoxUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:123.0) Gecko/20100101 Firefox/123.0"

// sliceSource replays outcomes and then returns err, or io.EOF when err is nil.
type sliceSource struct {
	outcomes []*models.ParseOutcome
	err      error
	pos      int
}

func (s *sliceSource) Next(ctx context.Context) (*models.ParseOutcome, error) {
	if s.pos >= len(s.outcomes) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	s.pos++
	return s.outcomes[s.pos-1], nil
}

func (s *sliceSource) Close() error { return nil }

func okLine(url string, duration float64) *models.ParseOutcome {
	return &models.ParseOutcome{
		Raw:    url,
		Record: &models.LogLineRecord{URL: url, RequestTime: duration, UserAgent: firefoxUA},
	}
}

func failedLine() *models.ParseOutcome {
	return &models.ParseOutcome{Raw: "garbage"}
}

func numbered(outcomes ...*models.ParseOutcome) []*models.ParseOutcome {
	for i, o := range outcomes {
		o.LineNum = i + 1
	}
	return outcomes
}

func linesWithFailures(total, failed int) []*models.ParseOutcome {
	outcomes := make([]*models.ParseOutcome, 0, total)
	for i := 0; i < total; i++ {
		if i < failed {
			outcomes = append(outcomes, failedLine())
			continue
		}
		outcomes = append(outcomes, okLine(fmt.Sprintf("/u/%d", i%7), 0.1))
	}
	return numbered(outcomes...)
}

func TestAggregate_AccumulatesPerURL(t *testing.T) {
	t.Parallel()

	service := NewAggregationService(NewAccumulatorRolluper())
	source := &sliceSource{outcomes: numbered(
		okLine("/a", 0.1),
		okLine("/a", 0.3),
		okLine("/b", 1.0),
		okLine("/a", 0.2),
	)}

	result, err := service.Aggregate(context.Background(), source)
	require.NoError(t, err)

	require.Len(t, result.Accumulators, 2)
	a := result.Accumulators["/a"]
	assert.Equal(t, int64(3), a.Count)
	assert.Equal(t, 0.6, a.TimeSum)
	assert.Equal(t, 0.3, a.TimeMax)
	assert.Equal(t, []float64{0.1, 0.3, 0.2}, a.Durations)

	b := result.Accumulators["/b"]
	assert.Equal(t, int64(1), b.Count)
	assert.Equal(t, 1.0, b.TimeSum)

	assert.Equal(t, models.RunTotals{TotalLines: 4, ErrorLines: 0, SummaryTime: 1.6}, result.Totals)
	assert.Equal(t, map[string]int64{"Firefox": 4}, result.RequestsByUserAgent)
}

func TestAggregate_RollsUpAcrossBatches(t *testing.T) {
	t.Parallel()

	service := &aggregationService{rolluper: NewAccumulatorRolluper(), batchSize: 2}
	source := &sliceSource{outcomes: numbered(
		okLine("/a", 0.1),
		okLine("/b", 0.5),
		failedLine(),
		okLine("/a", 0.4),
		okLine("/a", 0.2),
		okLine("/b", 0.1),
		okLine("/a", 0.3),
	)}

	result, err := service.Aggregate(context.Background(), source)
	require.NoError(t, err)

	a := result.Accumulators["/a"]
	assert.Equal(t, int64(4), a.Count)
	assert.Equal(t, 1.0, a.TimeSum)
	assert.Equal(t, 0.4, a.TimeMax)
	assert.Equal(t, []float64{0.1, 0.4, 0.2, 0.3}, a.Durations)

	b := result.Accumulators["/b"]
	assert.Equal(t, int64(2), b.Count)
	assert.Equal(t, 0.6, b.TimeSum)
	assert.Equal(t, 0.5, b.TimeMax)

	assert.Equal(t, int64(7), result.Totals.TotalLines)
	assert.Equal(t, int64(1), result.Totals.ErrorLines)
	assert.Equal(t, 1.6, result.Totals.SummaryTime)
}

func TestAggregate_ErrorThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		total       int
		failed      int
		expectError bool
	}{
		{name: "no failures", total: 100, failed: 0},
		{name: "exactly at threshold", total: 100, failed: 20},
		{name: "just above threshold", total: 100, failed: 21, expectError: true},
		{name: "all lines fail", total: 5, failed: 5, expectError: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service := NewAggregationService(NewAccumulatorRolluper())
			result, err := service.Aggregate(context.Background(), &sliceSource{outcomes: linesWithFailures(tt.total, tt.failed)})

			if !tt.expectError {
				require.NoError(t, err)
				assert.Equal(t, int64(tt.total), result.Totals.TotalLines)
				assert.Equal(t, int64(tt.failed), result.Totals.ErrorLines)
				return
			}

			assert.Nil(t, result, "no partial result on failure")
			svcErr, ok := svcerrors.AsServiceError(err)
			require.True(t, ok, "expected ServiceError")
			assert.Equal(t, "AGG_1000", svcErr.Code)
			assert.Equal(t, "invalid_argument", svcErr.Category)
		})
	}
}

// Not parallel: the error rate gauge is shared by every aggregation run.
func TestAggregate_ErrorRateGaugeSetOnFailure(t *testing.T) {
	service := NewAggregationService(NewAccumulatorRolluper())

	_, err := service.Aggregate(context.Background(), &sliceSource{outcomes: linesWithFailures(100, 10)})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, testutil.ToFloat64(metricAggregationErrorRate), 1e-9)

	_, err = service.Aggregate(context.Background(), &sliceSource{outcomes: linesWithFailures(100, 21)})
	require.Error(t, err)
	assert.InDelta(t, 0.21, testutil.ToFloat64(metricAggregationErrorRate), 1e-9)
}

func TestAggregate_EmptySource(t *testing.T) {
	t.Parallel()

	service := NewAggregationService(NewAccumulatorRolluper())
	result, err := service.Aggregate(context.Background(), &sliceSource{})
	require.NoError(t, err)

	assert.Empty(t, result.Accumulators)
	assert.Equal(t, models.RunTotals{}, result.Totals)
	assert.Equal(t, 0.0, result.Totals.ErrorRate())
}

func TestAggregate_SourceFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cause error
	}{
		{name: "read error", cause: errors.New("unexpected EOF in gzip stream")},
		{name: "cancelled", cause: context.Canceled},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service := NewAggregationService(NewAccumulatorRolluper())
			source := &sliceSource{outcomes: numbered(okLine("/a", 0.1)), err: tt.cause}

			result, err := service.Aggregate(context.Background(), source)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.cause)

			svcErr, ok := svcerrors.AsServiceError(err)
			require.True(t, ok, "expected ServiceError")
			assert.Equal(t, "AGG_9000", svcErr.Code)
			assert.True(t, svcErr.IsInternalError())
		})
	}
}

func TestUserAgentNormalizer_Normalize(t *testing.T) {
	t.Parallel()

	normalizer := newUserAgentNormalizer()

	tests := []struct {
		ua       string
		expected string
	}{
		{ua: firefoxUA, expected: "Firefox"},
		{ua: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", expected: "Chrome"},
		{ua: "-", expected: "-"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizer.Normalize(tt.ua), tt.ua)
		// cached lookups give the same answer
		assert.Equal(t, tt.expected, normalizer.Normalize(tt.ua), tt.ua)
	}
}
