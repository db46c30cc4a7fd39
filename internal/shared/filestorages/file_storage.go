package filestorages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

var (
	ErrFileNotFound      = errors.New("file not found")
	ErrFileAlreadyExists = errors.New("file already exists")
	ErrInvalidKey        = errors.New("invalid file key")
	ErrInvalidRootDir    = errors.New("invalid root directory")
)

const tmpPrefix = ".tmp-"

type PutResult struct {
	FileKey string
}

type PutOptions struct {
	AllowOverwrite bool
}

// FileStorage stores files under a root directory that must already exist.
// Keys are slash-separated paths relative to the root.
//
//go:generate mockgen -source=file_storage.go -destination=./mocks/file_storage_mock.go -package=mocks
type FileStorage interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (*PutResult, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	// List returns the keys of the regular files directly under dir ("" for the root), sorted.
	List(ctx context.Context, dir string) ([]string, error)
}

type fileStorage struct {
	fs  afero.Fs
	dir string
}

func NewFileStorage(fs afero.Fs, rootDir string) (FileStorage, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("%w: root directory cannot be empty", ErrInvalidRootDir)
	}

	absRootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve absolute path: %w", ErrInvalidRootDir, err)
	}

	return &fileStorage{fs: fs, dir: absRootDir}, nil
}

func (s *fileStorage) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (*PutResult, error) {
	if err := s.validateKey(key); err != nil {
		return nil, err
	}
	if err := s.checkRoot(); err != nil {
		return nil, err
	}

	if opts.AllowOverwrite {
		return s.putOverwrite(ctx, key, r)
	}
	return s.putNoOverwrite(ctx, key, r)
}

func (s *fileStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := s.validateKey(key); err != nil {
		return nil, err
	}

	file, err := s.fs.Open(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return file, nil
}

func (s *fileStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := s.validateKey(key); err != nil {
		return false, err
	}
	if err := s.checkRoot(); err != nil {
		return false, err
	}

	info, err := s.fs.Stat(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (s *fileStorage) List(ctx context.Context, dir string) ([]string, error) {
	if dir != "" {
		if err := s.validateKey(dir); err != nil {
			return nil, err
		}
	}
	if err := s.checkRoot(); err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(s.fs, filepath.Join(s.dir, dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Mode().IsRegular() || strings.HasPrefix(entry.Name(), tmpPrefix) {
			continue
		}
		keys = append(keys, filepath.ToSlash(filepath.Join(dir, entry.Name())))
	}
	sort.Strings(keys)

	return keys, nil
}

// checkRoot fails with ErrInvalidRootDir unless the root exists and is a directory.
func (s *fileStorage) checkRoot() error {
	ok, err := afero.IsDir(s.fs, s.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s: %w", ErrInvalidRootDir, s.dir, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidRootDir, s.dir)
	}
	return nil
}

func (s *fileStorage) validateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	if filepath.IsAbs(key) {
		return ErrInvalidKey
	}

	cleanPath := filepath.Clean(key)
	if cleanPath == ".." || cleanPath == "." {
		return ErrInvalidKey
	}

	if strings.HasPrefix(cleanPath, "..") {
		return ErrInvalidKey
	}

	// The resolved path must stay within the root directory
	rel, err := filepath.Rel(s.dir, filepath.Join(s.dir, cleanPath))
	if err != nil || strings.HasPrefix(rel, "..") {
		return ErrInvalidKey
	}

	return nil
}

// writeTemp copies r into a temp file next to finalPath and returns its name.
// The caller owns removing it.
func (s *fileStorage) writeTemp(ctx context.Context, finalPath string, r io.Reader) (string, error) {
	dir := filepath.Dir(finalPath)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	tmp, err := afero.TempFile(s.fs, dir, tmpPrefix+"*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		if ctx.Err() != nil {
			return tmpPath, ctx.Err()
		}
		return tmpPath, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return tmpPath, err
	}
	if err := tmp.Close(); err != nil {
		return tmpPath, err
	}

	return tmpPath, nil
}

func (s *fileStorage) putOverwrite(ctx context.Context, key string, r io.Reader) (*PutResult, error) {
	finalPath := filepath.Join(s.dir, filepath.Clean(key))

	tmpPath, err := s.writeTemp(ctx, finalPath, r)
	if tmpPath != "" {
		defer func() { _ = s.fs.Remove(tmpPath) }()
	}
	if err != nil {
		return nil, err
	}

	if err := s.fs.Rename(tmpPath, finalPath); err != nil {
		return nil, err
	}

	return &PutResult{FileKey: key}, nil
}

func (s *fileStorage) putNoOverwrite(ctx context.Context, key string, r io.Reader) (*PutResult, error) {
	finalPath := filepath.Join(s.dir, filepath.Clean(key))

	tmpPath, err := s.writeTemp(ctx, finalPath, r)
	if tmpPath != "" {
		defer func() { _ = s.fs.Remove(tmpPath) }()
	}
	if err != nil {
		return nil, err
	}

	// On a real disk a hard link publishes atomically only if the target is absent.
	if _, ok := s.fs.(*afero.OsFs); ok {
		if err := os.Link(tmpPath, finalPath); err != nil {
			if errors.Is(err, os.ErrExist) {
				return nil, ErrFileAlreadyExists
			}
			return nil, err
		}
		return &PutResult{FileKey: key}, nil
	}

	exists, err := afero.Exists(s.fs, finalPath)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrFileAlreadyExists
	}
	if err := s.fs.Rename(tmpPath, finalPath); err != nil {
		return nil, err
	}

	return &PutResult{FileKey: key}, nil
}
