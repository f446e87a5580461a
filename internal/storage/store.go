// Package storage holds processed images addressed by their storage
// filename.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/config"
)

var (
	ErrInvalidName = errors.New("invalid storage filename")
	ErrNotExist    = errors.New("stored file does not exist")
)

type FileStore interface {
	Write(ctx context.Context, name string, data []byte, contentType string) error
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
	// URL returns the public address of name.
	URL(name string) string
}

// New returns the backend selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config) (FileStore, error) {
	switch cfg.StorageBackend {
	case "", "local":
		return NewLocalStore(cfg.StoragePath, cfg.PublicImageBaseURL)
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:     cfg.S3Bucket,
			Region:     cfg.S3Region,
			Endpoint:   cfg.S3Endpoint,
			Prefix:     cfg.S3Prefix,
			PublicBase: cfg.PublicImageBaseURL,
		})
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// ValidName reports whether name is a bare filename safe to address.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}

func publicURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name
}
