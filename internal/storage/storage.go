// Package storage keeps uploaded recipe images.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/recipebook/api/pkg/config"
)

// ImageStore persists uploaded images under opaque keys.
type ImageStore interface {
	Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns the public location of key.
	URL(key string) string
}

// New builds the store selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config) (ImageStore, error) {
	switch cfg.StorageBackend {
	case "", "local":
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURL), nil
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
