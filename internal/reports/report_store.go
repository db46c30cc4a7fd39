package reports

import (
	"context"
	"errors"
	"io"
	"regexp"
	"time"

	"log-analyzer/internal/shared/filestorages"
)

const keyLayout = "report-2006.01.02.html"

var reportNameRegex = regexp.MustCompile(`^report-\d{4}\.\d{2}\.\d{2}\.html$`)

// ReportKey returns the file name of the report for the log of the given date.
func ReportKey(date time.Time) string {
	return date.Format(keyLayout)
}

//go:generate mockgen -source=report_store.go -destination=./mocks/report_store_mock.go -package=mocks
type ReportStore interface {
	// Exists reports whether the report for date was already generated.
	Exists(ctx context.Context, date time.Time) (bool, error)
	// Put publishes the report for date. It never replaces an existing report.
	Put(ctx context.Context, date time.Time, r io.Reader) (string, error)
	// List returns the names of all generated reports, oldest first.
	List(ctx context.Context) ([]string, error)
	// Get opens the report with the given name.
	Get(ctx context.Context, name string) (io.ReadCloser, error)
}

type reportStore struct {
	fileStorage filestorages.FileStorage
}

func NewReportStore(fileStorage filestorages.FileStorage) ReportStore {
	return &reportStore{fileStorage: fileStorage}
}

func (s *reportStore) Exists(ctx context.Context, date time.Time) (bool, error) {
	exists, err := s.fileStorage.Exists(ctx, ReportKey(date))
	if err != nil {
		return false, s.storageError(err)
	}
	return exists, nil
}

func (s *reportStore) Put(ctx context.Context, date time.Time, r io.Reader) (string, error) {
	key := ReportKey(date)
	result, err := s.fileStorage.Put(ctx, key, r, filestorages.PutOptions{AllowOverwrite: false})
	if err != nil {
		if errors.Is(err, filestorages.ErrFileAlreadyExists) {
			return "", errReportAlreadyExists(key, err)
		}
		return "", s.storageError(err)
	}
	return result.FileKey, nil
}

func (s *reportStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.fileStorage.List(ctx, "")
	if err != nil {
		return nil, s.storageError(err)
	}

	// Keys are sorted and the date layout sorts chronologically.
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if reportNameRegex.MatchString(key) {
			names = append(names, key)
		}
	}
	return names, nil
}

func (s *reportStore) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	if !reportNameRegex.MatchString(name) {
		return nil, errReportNotFound(name, nil)
	}

	rc, err := s.fileStorage.Get(ctx, name)
	if err != nil {
		if errors.Is(err, filestorages.ErrFileNotFound) {
			return nil, errReportNotFound(name, err)
		}
		return nil, s.storageError(err)
	}
	return rc, nil
}

func (s *reportStore) storageError(err error) error {
	if errors.Is(err, filestorages.ErrInvalidRootDir) {
		return errInvalidReportDir(err)
	}
	return errInternalReportStoreFailed(err)
}
