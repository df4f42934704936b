package cache

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

const DiffExtension = ".osc.gz"

// Downloader is an interface for downloading files (used for testing)
type Downloader interface {
	Download(ctx context.Context, url string, dest io.Writer) (int64, error)
}

// Store keeps downloaded diff files keyed by sequence number.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// DiffPath returns <dir>/<sequenceNumber>.osc.gz.
func (s *Store) DiffPath(sequenceNumber int) string {
	return filepath.Join(s.dir, strconv.Itoa(sequenceNumber)+DiffExtension)
}

// Download writes url to destPath via a temp file and an atomic rename, so
// a reader never sees a partially written diff. An existing file is replaced.
func (s *Store) Download(ctx context.Context, d Downloader, url, destPath string) (int64, error) {
	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return 0, fmt.Errorf("creating directories: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), filepath.Base(destPath)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	size, err := d.Download(ctx, url, tmp)
	if closeErr := tmp.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("downloading file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}

	return size, nil
}

// Exists reports whether a diff for sequenceNumber is already cached.
func (s *Store) Exists(sequenceNumber int) bool {
	_, err := os.Stat(s.DiffPath(sequenceNumber))
	return err == nil
}
