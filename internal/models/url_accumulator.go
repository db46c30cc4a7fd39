package models

import "math"

// URLAccumulator collects running statistics of one URL during a single aggregation run.
// It is mutable and must not outlive the run; URLStat is its finalized form.
type URLAccumulator struct {
	URL       string
	Count     int64
	TimeSum   float64
	TimeMax   float64
	Durations []float64
}

func NewURLAccumulator(url string) *URLAccumulator {
	return &URLAccumulator{URL: url}
}

// Add folds one request duration into the accumulator. TimeSum is kept rounded to
// milliseconds after every addition.
func (a *URLAccumulator) Add(duration float64) {
	a.Count++
	a.TimeSum = Round3(a.TimeSum + duration)
	if a.Count == 1 || duration > a.TimeMax {
		a.TimeMax = duration
	}
	a.Durations = append(a.Durations, duration)
}

// Round3 rounds v to 3 decimal places.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
