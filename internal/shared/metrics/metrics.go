// Package metrics wraps the prometheus client for the analyzer.
//
// Collectors register with the default registry. A daily run dumps it with WriteToTextfile
// for the node_exporter textfile collector, the serve command exposes it on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	FieldErrorCode = "error_code"
	FieldResult    = "result"
	FieldReason    = "reason"
	FieldStatus    = "status"

	ValueNoError = ""

	Namespace      = "log_analyzer"
	SubSelector    = "selector"
	SubParser      = "parser"
	SubAggregation = "aggregation"
	SubReport      = "report"
	SubRun         = "run"
	SubHTTP        = "http"
)

type (
	CounterOpts   = prometheus.CounterOpts
	GaugeOpts     = prometheus.GaugeOpts
	HistogramOpts = prometheus.HistogramOpts
)

var (
	NewCounter      = promauto.NewCounter
	NewCounterVec   = promauto.NewCounterVec
	NewGauge        = promauto.NewGauge
	NewHistogramVec = promauto.NewHistogramVec
)

// WriteToTextfile replaces path with the default registry in the text exposition format.
var WriteToTextfile = func(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
