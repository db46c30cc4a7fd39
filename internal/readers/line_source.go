package readers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"log-analyzer/internal/models"
	"log-analyzer/internal/parsers"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
)

const (
	maxLineSize = 1024 * 1024
	// rawPreviewSize bounds the text kept from an over-long line.
	rawPreviewSize = 512
)

// LineSource is a pull iterator over the parse outcomes of a log file.
// Implementations are for sequential use only.
//
type LineSource interface {
	// Next reads and parses one more line. It returns io.EOF once the file is exhausted.
	// Unparsable lines are not errors: they come back as failed outcomes.
	Next(ctx context.Context) (*models.ParseOutcome, error)

	// Close releases the underlying file.
	Close() error
}

type SourceOpener interface {
	// Open opens the logfile described by desc, decompressing it when needed.
	Open(ctx context.Context, desc models.LogfileDescriptor) (LineSource, error)
}

type sourceOpener struct {
	fs     afero.Fs
	parser parsers.LineParser
}

func NewSourceOpener(fs afero.Fs, parser parsers.LineParser) SourceOpener {
	return &sourceOpener{fs: fs, parser: parser}
}

func (o *sourceOpener) Open(ctx context.Context, desc models.LogfileDescriptor) (LineSource, error) {
	file, err := o.fs.Open(desc.Path)
	if err != nil {
		return nil, errOpenLogfileFailed(desc.Path, err)
	}

	source := &fileSource{
		path:   desc.Path,
		parser: o.parser,
		file:   file,
	}

	var r io.Reader = file
	if desc.Compression == models.CompressionGzip {
		gz, err := gzip.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, errOpenLogfileFailed(desc.Path, err)
		}
		source.gzip = gz
		r = gz
	}

	source.reader = bufio.NewReaderSize(r, maxLineSize)

	return source, nil
}

type fileSource struct {
	path    string
	parser  parsers.LineParser
	file    afero.File
	gzip    *gzip.Reader
	reader  *bufio.Reader
	lineNum int
}

func (s *fileSource) Next(ctx context.Context) (*models.ParseOutcome, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	line, overlong, err := s.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading %s at line %d: %w", s.path, s.lineNum+1, err)
	}
	s.lineNum++

	outcome := &models.ParseOutcome{LineNum: s.lineNum, Raw: line}
	if overlong {
		return outcome, nil
	}

	// A line the parser rejects is still a valid outcome; the aggregator counts it.
	if record, err := s.parser.Parse(line); err == nil {
		outcome.Record = record
	}

	return outcome, nil
}

// readLine returns the next line without its terminator. Lines longer than maxLineSize are
// consumed entirely and reported as overlong with only a preview of their text.
func (s *fileSource) readLine() (string, bool, error) {
	chunk, err := s.reader.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		preview := string(chunk[:min(len(chunk), rawPreviewSize)])
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = s.reader.ReadSlice('\n')
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", false, err
		}
		return preview, true, nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, err
	}
	if errors.Is(err, io.EOF) && len(chunk) == 0 {
		return "", false, io.EOF
	}

	return strings.TrimRight(string(chunk), "\r\n"), false, nil
}

func (s *fileSource) Close() error {
	var gzErr error
	if s.gzip != nil {
		gzErr = s.gzip.Close()
	}
	return errors.Join(gzErr, s.file.Close())
}
