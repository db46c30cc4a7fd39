package aggregators

import (
	"fmt"

	"log-analyzer/internal/models"
)

type AccumulatorRolluper interface {
	// Rollup mutates agg by accumulating values from partial.
	Rollup(agg *models.URLAccumulator, partial *models.URLAccumulator) error
}

type accumulatorRolluper struct{}

func NewAccumulatorRolluper() AccumulatorRolluper {
	return &accumulatorRolluper{}
}

func (a *accumulatorRolluper) Rollup(agg *models.URLAccumulator, partial *models.URLAccumulator) error {
	if agg.URL != partial.URL {
		return fmt.Errorf("url mismatch: agg=%q, partial=%q", agg.URL, partial.URL)
	}
	if partial.Count == 0 {
		return nil
	}

	if agg.Count == 0 || partial.TimeMax > agg.TimeMax {
		agg.TimeMax = partial.TimeMax
	}
	agg.Count += partial.Count
	agg.TimeSum = models.Round3(agg.TimeSum + partial.TimeSum)
	agg.Durations = append(agg.Durations, partial.Durations...)

	return nil
}
