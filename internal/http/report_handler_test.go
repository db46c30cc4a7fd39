package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	reportmocks "log-analyzer/internal/reports/mocks"
	"log-analyzer/internal/shared/loggers"
	"log-analyzer/internal/shared/svcerrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestListReportsHandler_Handle_Success(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReportStore := reportmocks.NewMockReportStore(ctrl)
	handler := NewListReportsHandler(mockReportStore)

	mockReportStore.EXPECT().
		List(gomock.Any()).
		Return([]string{"report-2017.06.29.html", "report-2017.06.30.html"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	rr := httptest.NewRecorder()

	err := handler.Handle(rr, req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response ListReportsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, []ReportItem{
		{Name: "report-2017.06.29.html", Href: "/reports/report-2017.06.29.html"},
		{Name: "report-2017.06.30.html", Href: "/reports/report-2017.06.30.html"},
	}, response.Reports)
}

func TestListReportsHandler_Handle_Empty(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReportStore := reportmocks.NewMockReportStore(ctrl)
	handler := NewListReportsHandler(mockReportStore)

	mockReportStore.EXPECT().List(gomock.Any()).Return([]string{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	rr := httptest.NewRecorder()

	require.NoError(t, handler.Handle(rr, req))
	assert.JSONEq(t, `{"reports":[]}`, rr.Body.String())
}

func TestListReportsHandler_Handle_Error(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReportStore := reportmocks.NewMockReportStore(ctrl)
	handler := NewListReportsHandler(mockReportStore)

	expectedErr := svcerrors.NewInvalidArgumentError("RPT_1000", "invalid report directory", nil)
	mockReportStore.EXPECT().List(gomock.Any()).Return(nil, expectedErr)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	rr := httptest.NewRecorder()

	err := handler.Handle(rr, req)
	require.Error(t, err)
	svcErr, ok := svcerrors.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "RPT_1000", svcErr.Code)
	// Status should not be set when error occurs
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestRouter_GetReport(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReportStore := reportmocks.NewMockReportStore(ctrl)
	router := NewRouter(mockReportStore, loggers.Nop())

	mockReportStore.EXPECT().
		Get(gomock.Any(), "report-2017.06.30.html").
		Return(io.NopCloser(strings.NewReader("<html>report</html>")), nil)

	req := httptest.NewRequest(http.MethodGet, "/reports/report-2017.06.30.html", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "<html>report</html>", rr.Body.String())
}

func TestRouter_GetReport_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		storeErr       error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "not found",
			storeErr:       svcerrors.NewNotFoundError("RPT_1001", `report "report-2017.06.30.html" not found`, nil),
			expectedStatus: http.StatusNotFound,
			expectedCode:   "RPT_1001",
		},
		{
			name:           "unexpected error",
			storeErr:       errors.New("disk on fire"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "SYS_9001",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockReportStore := reportmocks.NewMockReportStore(ctrl)
			router := NewRouter(mockReportStore, loggers.Nop())

			mockReportStore.EXPECT().Get(gomock.Any(), "report-2017.06.30.html").Return(nil, tt.storeErr)

			req := httptest.NewRequest(http.MethodGet, "/reports/report-2017.06.30.html", nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			var errorResponse ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errorResponse))
			assert.Equal(t, tt.expectedCode, errorResponse.ErrorCode)
			assert.NotEmpty(t, errorResponse.RequestID)
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	router := NewRouter(reportmocks.NewMockReportStore(ctrl), loggers.Nop())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}
