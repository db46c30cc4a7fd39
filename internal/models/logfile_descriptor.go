package models

import "time"

type Compression string

const (
	CompressionPlain Compression = "plain"
	CompressionGzip  Compression = "gzip"
)

// LogfileDescriptor identifies the access log chosen for a run.
type LogfileDescriptor struct {
	Path        string
	Date        time.Time
	Compression Compression
}
