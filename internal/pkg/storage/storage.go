// Package storage provides file storage backends.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/hackdesk/hackdesk/internal/config"
)

// Storage represents file storage.
type Storage interface {
	// ReadFile opens file with specified path for reading.
	ReadFile(ctx context.Context, filePath string) (io.ReadCloser, error)
	// WriteFile writes file content to specified path.
	WriteFile(ctx context.Context, filePath string, file io.Reader) error
	// DeleteFile removes file with specified path.
	DeleteFile(ctx context.Context, filePath string) error
}

// NewStorage creates storage from config.
func NewStorage(cfg config.Storage) (Storage, error) {
	switch options := cfg.Options.(type) {
	case config.LocalStorageOptions:
		return NewLocalStorage(options), nil
	case config.S3StorageOptions:
		return NewS3Storage(options)
	default:
		return nil, fmt.Errorf("driver %q is not supported", cfg.Options.Driver())
	}
}
