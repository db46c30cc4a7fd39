package http

import (
	"encoding/json"
	"io"
	"net/http"

	"log-analyzer/internal/reports"
	"log-analyzer/internal/shared/loggers"

	"github.com/go-chi/chi/v5"
)

type AppHttpHandler interface {
	Handle(w http.ResponseWriter, r *http.Request) error
}

// ReportItem is one entry of the GET /reports response.
type ReportItem struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

type ListReportsResponse struct {
	Reports []ReportItem `json:"reports"`
}

type listReportsHandler struct {
	reportStore reports.ReportStore
}

func NewListReportsHandler(reportStore reports.ReportStore) AppHttpHandler {
	return &listReportsHandler{reportStore: reportStore}
}

// Handle processes GET /reports requests.
func (h *listReportsHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	names, err := h.reportStore.List(r.Context())
	if err != nil {
		return err
	}

	response := ListReportsResponse{Reports: make([]ReportItem, 0, len(names))}
	for _, name := range names {
		response.Reports = append(response.Reports, ReportItem{Name: name, Href: "/reports/" + name})
	}

	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	return json.NewEncoder(w).Encode(response)
}

type getReportHandler struct {
	reportStore reports.ReportStore
}

func NewGetReportHandler(reportStore reports.ReportStore) AppHttpHandler {
	return &getReportHandler{reportStore: reportStore}
}

// Handle processes GET /reports/{name} requests.
func (h *getReportHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	name := chi.URLParam(r, "name")
	rc, err := h.reportStore.Get(r.Context(), name)
	if err != nil {
		return err
	}
	defer rc.Close()

	w.Header().Set(headerContentType, contentTypeHTML)
	w.WriteHeader(http.StatusOK)
	n, err := io.Copy(w, rc)
	metricReportBytesServed.Add(float64(n))
	if err != nil {
		// Headers are already sent; the client sees a truncated body.
		loggers.Ctx(r.Context()).Warn().Err(err).Str(loggers.FieldReportKey, name).Msg("failed to stream report")
	}
	return nil
}
