package loggers

const (
	FieldApp        = "app"
	FieldComponent  = "component"
	FieldRunID      = "run_id"
	FieldHttpMethod = "http_method"
	FieldHttpPath   = "http_path"
	FieldHttpStatus = "http_status"

	FieldDuration   = "duration"
	FieldRequestID  = "request_id"
	FieldErrorStack = "error_stack"
	FieldErrorCode  = "error_code"

	FieldLogDir     = "log_dir"
	FieldReportDir  = "report_dir"
	FieldLogfile    = "logfile"
	FieldReportKey  = "report_key"
	FieldLineNumber = "line_number"
	FieldLine       = "line"
)
