package finalizers

import (
	"slices"
	"sort"

	"log-analyzer/internal/models"
)

// DefaultUserAgentLimit is the number of user agent families kept in a report.
const DefaultUserAgentLimit = 20

type StatsFinalizer interface {
	// Finalize returns the n URLs with the largest total request time, slowest first.
	Finalize(result *models.AggregationResult, n int) []models.URLStat

	// SummarizeUserAgents returns the n most frequent user agent families.
	SummarizeUserAgents(result *models.AggregationResult, n int) []models.UserAgentStat
}

type statsFinalizer struct{}

func NewStatsFinalizer() StatsFinalizer {
	return &statsFinalizer{}
}

func (f *statsFinalizer) Finalize(result *models.AggregationResult, n int) []models.URLStat {
	accumulators := make([]*models.URLAccumulator, 0, len(result.Accumulators))
	for _, acc := range result.Accumulators {
		accumulators = append(accumulators, acc)
	}

	// URL breaks ties so the report order is deterministic.
	sort.Slice(accumulators, func(i, j int) bool {
		if accumulators[i].TimeSum != accumulators[j].TimeSum {
			return accumulators[i].TimeSum > accumulators[j].TimeSum
		}
		return accumulators[i].URL < accumulators[j].URL
	})
	if n >= 0 && len(accumulators) > n {
		accumulators = accumulators[:n]
	}

	validLines := result.Totals.ValidLines()
	summaryTime := result.Totals.SummaryTime

	stats := make([]models.URLStat, 0, len(accumulators))
	for _, acc := range accumulators {
		stat := models.URLStat{
			URL:     acc.URL,
			Count:   acc.Count,
			TimeSum: acc.TimeSum,
			TimeMax: acc.TimeMax,
			TimeMed: models.NewDecimal3(median(acc.Durations)),
		}
		if validLines > 0 {
			stat.CountPerc = models.NewDecimal3(float64(acc.Count) / float64(validLines) * 100)
		}
		if summaryTime > 0 {
			stat.TimePerc = models.NewDecimal3(acc.TimeSum / summaryTime * 100)
		}
		if acc.Count > 0 {
			stat.TimeAvg = models.NewDecimal3(acc.TimeSum / float64(acc.Count))
		}
		stats = append(stats, stat)
	}

	return stats
}

func (f *statsFinalizer) SummarizeUserAgents(result *models.AggregationResult, n int) []models.UserAgentStat {
	var total int64
	stats := make([]models.UserAgentStat, 0, len(result.RequestsByUserAgent))
	for name, count := range result.RequestsByUserAgent {
		total += count
		stats = append(stats, models.UserAgentStat{Name: name, Count: count})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Name < stats[j].Name
	})
	if n >= 0 && len(stats) > n {
		stats = stats[:n]
	}

	for i := range stats {
		stats[i].CountPerc = models.NewDecimal3(float64(stats[i].Count) / float64(total) * 100)
	}

	return stats
}

// median returns the middle value of durations, or the mean of the two middle values for an
// even count. durations is left untouched.
func median(durations []float64) float64 {
	if len(durations) == 0 {
		return 0
	}

	sorted := slices.Clone(durations)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
