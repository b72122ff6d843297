package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/hackdesk/hackdesk/internal/config"
)

type localStorage struct {
	dir string
}

// NewLocalStorage creates storage backed by local directory.
func NewLocalStorage(options config.LocalStorageOptions) Storage {
	return &localStorage{dir: options.FilesDir}
}

func (s *localStorage) ReadFile(ctx context.Context, filePath string) (io.ReadCloser, error) {
	return os.Open(s.systemPath(filePath))
}

func (s *localStorage) WriteFile(ctx context.Context, filePath string, file io.Reader) error {
	systemDir := filepath.Join(s.dir, filepath.FromSlash(path.Dir(filePath)))
	if err := os.MkdirAll(systemDir, 0777); err != nil {
		return err
	}
	dst, err := os.Create(s.systemPath(filePath))
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close() }()
	_, err = io.Copy(dst, file)
	return err
}

func (s *localStorage) DeleteFile(ctx context.Context, filePath string) error {
	return os.Remove(s.systemPath(filePath))
}

func (s *localStorage) systemPath(filePath string) string {
	return filepath.Join(s.dir, filepath.FromSlash(filePath))
}
