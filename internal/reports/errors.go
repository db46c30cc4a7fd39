package reports

import (
	"fmt"

	"log-analyzer/internal/shared/svcerrors"
)

const (
	codeInvalidReportDir    = "RPT_1000"
	codeReportNotFound      = "RPT_1001"
	codeReportAlreadyExists = "RPT_1002"

	codeInternalReportRenderFailed = "RPT_9000"
	codeInternalReportStoreFailed  = "RPT_9001"
)

// errInvalidReportDir returns an error when the report directory is missing or is not a directory.
func errInvalidReportDir(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeInvalidReportDir, "invalid report directory", cause)
}

func errReportNotFound(name string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewNotFoundError(codeReportNotFound, fmt.Sprintf("report %q not found", name), cause)
}

// errReportAlreadyExists returns an error when a report for the same log date was published concurrently.
func errReportAlreadyExists(name string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewResourceConflictError(codeReportAlreadyExists, fmt.Sprintf("report %q already exists", name), cause)
}

// errInternalReportRenderFailed returns an error when the report template cannot be loaded or rendered.
func errInternalReportRenderFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalReportRenderFailed, fmt.Errorf("reportRenderFailed: %w", cause))
}

// errInternalReportStoreFailed returns an error when a report store operation fails.
func errInternalReportStoreFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalReportStoreFailed, fmt.Errorf("reportStoreFailed: %w", cause))
}
