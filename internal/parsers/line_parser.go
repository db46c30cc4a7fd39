package parsers

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"log-analyzer/internal/models"
)

// ErrLineParseFailure is returned for any line that does not fully match the ui_short format.
var ErrLineParseFailure = errors.New("line parse failure")

var uiShortLine = regexp.MustCompile(`^(\S+)\s+` + // remote_addr
	`(\S+)\s+` + // remote_user
	`(\S+)\s+` + // http_x_real_ip
	`\[(.*?)\]\s+` + // time_local
	`"([A-Z]+\s+(\S+)\s+.*?)"\s+` + // request, url
	`(\d{3})\s+` + // status
	`(\d+)\s+` + // body_bytes_sent
	`"(.*?)"\s+` + // http_referer
	`"(.*?)"\s+` + // http_user_agent
	`"(.*?)"\s+` + // http_x_forwarded_for
	`"(.*?)"\s+` + // http_X_REQUEST_ID
	`"(.*?)"\s+` + // http_X_RB_USER
	`(\d+(?:\.\d*)?)\s*$`) // request_time

type LineParser interface {
	// Parse converts one raw line into a record. Any mismatch yields ErrLineParseFailure;
	// no partial record is ever returned.
	Parse(line string) (*models.LogLineRecord, error)
}

type uiShortParser struct{}

// NewLineParser returns a stateless parser for the nginx ui_short log format.
func NewLineParser() LineParser {
	return uiShortParser{}
}

func (uiShortParser) Parse(line string) (*models.LogLineRecord, error) {
	m := uiShortLine.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("%w: incorrect line structure", ErrLineParseFailure)
	}

	status, err := strconv.Atoi(m[7])
	if err != nil {
		return nil, fmt.Errorf("%w: status %q: %w", ErrLineParseFailure, m[7], err)
	}
	bodyBytesSent, err := strconv.ParseInt(m[8], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: body_bytes_sent %q: %w", ErrLineParseFailure, m[8], err)
	}
	requestTime, err := strconv.ParseFloat(m[14], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: request_time %q: %w", ErrLineParseFailure, m[14], err)
	}

	return &models.LogLineRecord{
		RemoteAddr:    m[1],
		RemoteUser:    m[2],
		RealIP:        m[3],
		TimeLocal:     m[4],
		Request:       m[5],
		URL:           m[6],
		Status:        status,
		BodyBytesSent: bodyBytesSent,
		Referer:       m[9],
		UserAgent:     m[10],
		ForwardedFor:  m[11],
		RequestID:     m[12],
		RBUser:        m[13],
		RequestTime:   requestTime,
	}, nil
}

// FormatLine writes a record back in the ui_short format. Parse(FormatLine(r)) yields r
// for any record whose string fields fit the grammar.
func FormatLine(r *models.LogLineRecord) string {
	return fmt.Sprintf(`%s  %s %s [%s] "%s" %03d %d "%s" "%s" "%s" "%s" "%s" %s`,
		r.RemoteAddr, r.RemoteUser, r.RealIP, r.TimeLocal, r.Request,
		r.Status, r.BodyBytesSent, r.Referer, r.UserAgent, r.ForwardedFor, r.RequestID, r.RBUser,
		strconv.FormatFloat(r.RequestTime, 'f', -1, 64))
}
