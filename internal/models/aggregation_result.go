package models

// RunTotals are the run-wide counters used to normalize percentages.
type RunTotals struct {
	TotalLines  int64
	ErrorLines  int64
	SummaryTime float64
}

// ErrorRate returns ErrorLines/TotalLines, or 0 for an empty run.
func (t RunTotals) ErrorRate() float64 {
	if t.TotalLines == 0 {
		return 0
	}
	return float64(t.ErrorLines) / float64(t.TotalLines)
}

func (t RunTotals) ValidLines() int64 {
	return t.TotalLines - t.ErrorLines
}

// AggregationResult is the frozen output of an aggregation pass.
type AggregationResult struct {
	Accumulators        map[string]*URLAccumulator
	RequestsByUserAgent map[string]int64
	Totals              RunTotals
}

func NewAggregationResult() *AggregationResult {
	return &AggregationResult{
		Accumulators:        make(map[string]*URLAccumulator),
		RequestsByUserAgent: make(map[string]int64),
	}
}
