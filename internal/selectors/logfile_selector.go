package selectors

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"log-analyzer/internal/models"
	"log-analyzer/internal/shared/loggers"

	"github.com/spf13/afero"
)

const (
	gzipSuffix = ".gz"
	dateLayout = "20060102"

	reasonInvalidDate = "invalid_date"
	reasonNotRegular  = "not_regular"
)

var logfileNameRegex = regexp.MustCompile(`^nginx-access-ui\.log-((?:19|20)\d\d[01]\d[0-3]\d)(\.gz)?$`)

type LogfileSelector interface {
	// SelectLatest returns the logfile in dir with the most recent date encoded in its name.
	// found is false when no file matches.
	SelectLatest(ctx context.Context, dir string) (desc models.LogfileDescriptor, found bool, err error)
}

type logfileSelector struct {
	fs afero.Fs
}

func NewLogfileSelector(fs afero.Fs) LogfileSelector {
	return &logfileSelector{fs: fs}
}

func (s *logfileSelector) SelectLatest(ctx context.Context, dir string) (models.LogfileDescriptor, bool, error) {
	logger := loggers.Ctx(ctx).With().Str(loggers.FieldLogDir, dir).Logger()

	info, err := s.fs.Stat(dir)
	if err != nil {
		return models.LogfileDescriptor{}, false, errInvalidDirectory(dir, err)
	}
	if !info.IsDir() {
		return models.LogfileDescriptor{}, false, errInvalidDirectory(dir, nil)
	}

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return models.LogfileDescriptor{}, false, errInvalidDirectory(dir, err)
	}

	var (
		latest     models.LogfileDescriptor
		latestName string
		found      bool
	)
	for _, entry := range entries {
		match := logfileNameRegex.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		if !s.isRegularFile(dir, entry) {
			metricSelectorSkippedTotal.WithLabelValues(reasonNotRegular).Inc()
			continue
		}

		date, err := time.Parse(dateLayout, match[1])
		if err != nil {
			logger.Warn().Str(loggers.FieldLogfile, entry.Name()).Msg("skipping logfile with invalid date in name")
			metricSelectorSkippedTotal.WithLabelValues(reasonInvalidDate).Inc()
			continue
		}

		// Ties go to the lexicographically smaller name, so a plain file beats its .gz twin.
		if found && (date.Before(latest.Date) || (date.Equal(latest.Date) && entry.Name() > latestName)) {
			continue
		}

		compression := models.CompressionPlain
		if strings.HasSuffix(entry.Name(), gzipSuffix) {
			compression = models.CompressionGzip
		}
		latest = models.LogfileDescriptor{
			Path:        filepath.Join(dir, entry.Name()),
			Date:        date,
			Compression: compression,
		}
		latestName = entry.Name()
		found = true
	}

	if found {
		logger.Debug().Str(loggers.FieldLogfile, latest.Path).Msg("selected latest logfile")
	}

	return latest, found, nil
}

// isRegularFile follows symlinks, ReadDir reports the link itself.
func (s *logfileSelector) isRegularFile(dir string, entry os.FileInfo) bool {
	if entry.Mode()&os.ModeSymlink == 0 {
		return entry.Mode().IsRegular()
	}
	target, err := s.fs.Stat(filepath.Join(dir, entry.Name()))
	if err != nil {
		return false
	}
	return target.Mode().IsRegular()
}
