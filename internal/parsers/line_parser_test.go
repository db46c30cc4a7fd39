package parsers

import (
	"strings"
	"testing"

	"log-analyzer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const correctLine = `1.196.116.32 -  - [02/Nov/2022:03:50:22 +0300] "GET /api/v2/banner/25019354 HTTP/1.1" 200 927 "-" "Lynx/2.8.8dev.9 libwww-FM/2.14 SSL-MM/1.4.1 GNUTLS/2.10.5" "-" "1496327422-2190076493-4743-9819059" "dc7161bv4" 0.390` + "\n"

func TestParse_CorrectLine(t *testing.T) {
	t.Parallel()

	record, err := NewLineParser().Parse(correctLine)
	require.NoError(t, err)

	expected := &models.LogLineRecord{
		RemoteAddr:    "1.196.116.32",
		RemoteUser:    "-",
		RealIP:        "-",
		TimeLocal:     "02/Nov/2022:03:50:22 +0300",
		Request:       "GET /api/v2/banner/25019354 HTTP/1.1",
		URL:           "/api/v2/banner/25019354",
		Status:        200,
		BodyBytesSent: 927,
		Referer:       "-",
		UserAgent:     "Lynx/2.8.8dev.9 libwww-FM/2.14 SSL-MM/1.4.1 GNUTLS/2.10.5",
		ForwardedFor:  "-",
		RequestID:     "1496327422-2190076493-4743-9819059",
		RBUser:        "dc7161bv4",
		RequestTime:   0.390,
	}
	assert.Equal(t, expected, record)
}

func TestParse_URLKeepsQueryString(t *testing.T) {
	t.Parallel()

	line := strings.Replace(correctLine, "/api/v2/banner/25019354", "/api/v2/group/1769230/banners?limit=10", 1)

	record, err := NewLineParser().Parse(line)
	require.NoError(t, err)
	assert.Equal(t, "/api/v2/group/1769230/banners?limit=10", record.URL)
}

func TestParse_IntegerDuration(t *testing.T) {
	t.Parallel()

	line := strings.Replace(correctLine, " 0.390", " 2", 1)

	record, err := NewLineParser().Parse(line)
	require.NoError(t, err)
	assert.Equal(t, 2.0, record.RequestTime)
}

func TestParse_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
	}{
		{
			name: "empty line",
			line: "",
		},
		{
			name: "garbage",
			line: "this is not an access log line",
		},
		{
			name: "missing duration and separators",
			line: `1.196.117.32 -  - [29/Jun/2019:03:50:22 +0300] "GET /api/v2/banner/25019354 HTTP/1.1" 200 927 "-" "Lynx/2.8.8dev.9 libwww-FM/2.14 SSL-MM/1.4.1 GNUTLS/2.10.5""1498697422-23566854564-4743-9752759" "dc7161bv4"`,
		},
		{
			name: "non numeric status",
			line: strings.Replace(correctLine, " 200 ", " OK ", 1),
		},
		{
			name: "four digit status",
			line: strings.Replace(correctLine, " 200 ", " 2000 ", 1),
		},
		{
			name: "negative byte count",
			line: strings.Replace(correctLine, " 927 ", " -927 ", 1),
		},
		{
			name: "byte count overflows int64",
			line: strings.Replace(correctLine, " 927 ", " 99999999999999999999 ", 1),
		},
		{
			name: "negative duration",
			line: strings.Replace(correctLine, " 0.390", " -0.390", 1),
		},
		{
			name: "trailing garbage after duration",
			line: strings.Replace(correctLine, " 0.390", " 0.390abc", 1),
		},
		{
			name: "lowercase method",
			line: strings.Replace(correctLine, `"GET `, `"get `, 1),
		},
		{
			name: "request without protocol",
			line: strings.Replace(correctLine, ` HTTP/1.1"`, `"`, 1),
		},
		{
			name: "missing bracketed time",
			line: strings.Replace(correctLine, "[02/Nov/2022:03:50:22 +0300]", "02/Nov/2022:03:50:22", 1),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			record, err := NewLineParser().Parse(tt.line)
			assert.Nil(t, record, "no partial record on failure")
			assert.ErrorIs(t, err, ErrLineParseFailure)
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	records := []*models.LogLineRecord{
		{
			RemoteAddr:    "1.169.137.128",
			RemoteUser:    "-",
			RealIP:        "-",
			TimeLocal:     "29/Jun/2017:03:50:23 +0300",
			Request:       "GET /api/v2/group/1769230/banners HTTP/1.1",
			URL:           "/api/v2/group/1769230/banners",
			Status:        200,
			BodyBytesSent: 1020,
			Referer:       "-",
			UserAgent:     "Configovod",
			ForwardedFor:  "-",
			RequestID:     "1498697422-2118016444-4708-9752777",
			RBUser:        "712e90144abee9",
			RequestTime:   0.628,
		},
		{
			RemoteAddr:    "10.0.0.1",
			RemoteUser:    "alice",
			RealIP:        "192.168.1.10",
			TimeLocal:     "01/Jan/2024:00:00:00 +0000",
			Request:       "POST /api/1/photogenic_banners/list/?server_name=WIN7RB4 HTTP/1.1",
			URL:           "/api/1/photogenic_banners/list/?server_name=WIN7RB4",
			Status:        404,
			BodyBytesSent: 0,
			Referer:       "https://example.com/page",
			UserAgent:     "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			ForwardedFor:  "203.0.113.7, 198.51.100.2",
			RequestID:     "-",
			RBUser:        "-",
			RequestTime:   12,
		},
	}

	parser := NewLineParser()
	for _, record := range records {
		got, err := parser.Parse(FormatLine(record))
		require.NoError(t, err)
		assert.Equal(t, record, got)
	}
}
