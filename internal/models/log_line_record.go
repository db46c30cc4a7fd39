package models

// LogLineRecord holds the fields of one access log line written with the ui_short format:
//
//	log_format ui_short '$remote_addr  $remote_user $http_x_real_ip [$time_local] "$request" '
//	                    '$status $body_bytes_sent "$http_referer" '
//	                    '"$http_user_agent" "$http_x_forwarded_for" "$http_X_REQUEST_ID" "$http_X_RB_USER" '
//	                    '$request_time';
type LogLineRecord struct {
	RemoteAddr    string
	RemoteUser    string
	RealIP        string
	TimeLocal     string
	Request       string
	URL           string
	Status        int
	BodyBytesSent int64
	Referer       string
	UserAgent     string
	ForwardedFor  string
	RequestID     string
	RBUser        string
	RequestTime   float64 // seconds
}

// ParseOutcome is the result of reading one line: a record, or a failure when Record is nil.
type ParseOutcome struct {
	LineNum int
	Raw     string
	Record  *LogLineRecord
}

func (o *ParseOutcome) Failed() bool {
	return o.Record == nil
}
