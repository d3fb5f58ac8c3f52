// Package storage archives rendered documents in object storage: S3 compatible
// buckets, the local file system, or nowhere.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gcs/crm/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrObjectNotFound is returned by Get for a missing key
var ErrObjectNotFound = errors.New("object not found")

// DocumentStorage stores documents under slash separated keys
type DocumentStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// New builds the storage selected by cfg.Type
func New(cfg config.StorageConfig, logger *zap.Logger) (DocumentStorage, error) {
	switch cfg.Type {
	case config.StorageTypeS3:
		return NewS3Storage(&cfg, WithLogger(logger))
	case config.StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case config.StorageTypeNone, "":
		return NopStorage{}, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

func requireKey(key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	return nil
}
