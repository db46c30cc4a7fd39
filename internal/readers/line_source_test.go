package readers

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"log-analyzer/internal/models"
	"log-analyzer/internal/parsers"
	"log-analyzer/internal/shared/svcerrors"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validLine   = `1.196.116.32 -  - [29/Jun/2017:03:50:22 +0300] "GET /api/v2/banner/25019354 HTTP/1.1" 200 927 "-" "Lynx/2.8.8dev.9 libwww-FM/2.14 SSL-MM/1.4.1 GNUTLS/2.10.5" "-" "1498697422-2190034393-4708-9752759" "dc7161be3" 0.390`
	invalidLine = `garbage line`
)

func writeLogfile(t *testing.T, fs afero.Fs, path string, content string, compression models.Compression) models.LogfileDescriptor {
	t.Helper()

	data := []byte(content)
	if compression == models.CompressionGzip {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, err := gz.Write(data)
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		data = buf.Bytes()
	}
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))

	return models.LogfileDescriptor{Path: path, Compression: compression}
}

func drain(t *testing.T, source LineSource) []*models.ParseOutcome {
	t.Helper()

	var outcomes []*models.ParseOutcome
	for {
		outcome, err := source.Next(context.Background())
		if err == io.EOF {
			return outcomes
		}
		require.NoError(t, err)
		outcomes = append(outcomes, outcome)
	}
}

func TestOpen_PlainAndGzip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		path        string
		compression models.Compression
	}{
		{name: "plain", path: "/log/nginx-access-ui.log-20170630", compression: models.CompressionPlain},
		{name: "gzip", path: "/log/nginx-access-ui.log-20170630.gz", compression: models.CompressionGzip},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			desc := writeLogfile(t, fs, tt.path, validLine+"\n"+invalidLine+"\n"+validLine+"\n", tt.compression)

			source, err := NewSourceOpener(fs, parsers.NewLineParser()).Open(context.Background(), desc)
			require.NoError(t, err)
			defer source.Close()

			outcomes := drain(t, source)
			require.Len(t, outcomes, 3)

			assert.False(t, outcomes[0].Failed())
			assert.Equal(t, 1, outcomes[0].LineNum)
			assert.Equal(t, "/api/v2/banner/25019354", outcomes[0].Record.URL)

			assert.True(t, outcomes[1].Failed())
			assert.Equal(t, 2, outcomes[1].LineNum)
			assert.Equal(t, invalidLine, outcomes[1].Raw)

			assert.False(t, outcomes[2].Failed())
			assert.Equal(t, 3, outcomes[2].LineNum)

			// Exhausted sources keep returning io.EOF
			_, err = source.Next(context.Background())
			assert.Equal(t, io.EOF, err)
		})
	}
}

func TestNext_LineEndings(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	// CRLF terminator and a final line without newline
	desc := writeLogfile(t, fs, "/log/a", validLine+"\r\n"+validLine, models.CompressionPlain)

	source, err := NewSourceOpener(fs, parsers.NewLineParser()).Open(context.Background(), desc)
	require.NoError(t, err)
	defer source.Close()

	outcomes := drain(t, source)
	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Failed())
	assert.False(t, outcomes[1].Failed())
}

func TestNext_EmptyFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	desc := writeLogfile(t, fs, "/log/empty.gz", "", models.CompressionGzip)

	source, err := NewSourceOpener(fs, parsers.NewLineParser()).Open(context.Background(), desc)
	require.NoError(t, err)
	defer source.Close()

	assert.Empty(t, drain(t, source))
}

func TestNext_OverlongLineIsAFailure(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	long := strings.Repeat("x", maxLineSize+10)
	desc := writeLogfile(t, fs, "/log/a", long+"\n"+validLine+"\n", models.CompressionPlain)

	source, err := NewSourceOpener(fs, parsers.NewLineParser()).Open(context.Background(), desc)
	require.NoError(t, err)
	defer source.Close()

	outcomes := drain(t, source)
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].Failed())
	assert.Len(t, outcomes[0].Raw, rawPreviewSize)
	assert.False(t, outcomes[1].Failed())
	assert.Equal(t, 2, outcomes[1].LineNum)
}

func TestNext_ContextCancelled(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	desc := writeLogfile(t, fs, "/log/a", validLine+"\n", models.CompressionPlain)

	source, err := NewSourceOpener(fs, parsers.NewLineParser()).Open(context.Background(), desc)
	require.NoError(t, err)
	defer source.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = source.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/log/broken.gz", []byte("not gzip at all"), 0o644))

	tests := []struct {
		name string
		desc models.LogfileDescriptor
	}{
		{
			name: "missing file",
			desc: models.LogfileDescriptor{Path: "/log/missing", Compression: models.CompressionPlain},
		},
		{
			name: "corrupt gzip header",
			desc: models.LogfileDescriptor{Path: "/log/broken.gz", Compression: models.CompressionGzip},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			source, err := NewSourceOpener(fs, parsers.NewLineParser()).Open(context.Background(), tt.desc)
			assert.Nil(t, source)

			svcErr, ok := svcerrors.AsServiceError(err)
			require.True(t, ok, "expected ServiceError")
			assert.Equal(t, "RDR_9000", svcErr.Code)
			assert.True(t, svcErr.IsInternalError())
		})
	}
}
