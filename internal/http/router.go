package http

import (
	"net/http"

	"log-analyzer/internal/reports"
	"log-analyzer/internal/shared/loggers"
	"log-analyzer/internal/shared/metrics"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates and configures the HTTP router of the report browser.
func NewRouter(reportStore reports.ReportStore, httpLogger loggers.Logger) http.Handler {
	router := chi.NewRouter()
	setupMiddleware(router, httpLogger)

	// Initialize handlers
	listReportsHandler := NewListReportsHandler(reportStore)
	getReportHandler := NewGetReportHandler(reportStore)

	// Routes
	router.Get("/reports", errorHandlingAdapter(listReportsHandler))
	router.Get("/reports/{name}", errorHandlingAdapter(getReportHandler))
	router.Get("/metrics", metrics.Handler().ServeHTTP)

	return router
}
