package blobstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/sudhirsriram/bgstudio/internal/config"
	"github.com/wb-go/wbf/zlog"
)

var ErrObjectNotFound = errors.New("object not found")

// Store keeps raw blob bytes by key. The handle registry sits on top of
// it and decides when a blob's life ends.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

func New(cfg *config.BlobStoreConfig) (Store, error) {
	switch cfg.Type {
	case "memory":
		zlog.Logger.Info().Msg("Initializing in-memory blob store")
		return NewMemoryStore(), nil
	case "s3":
		zlog.Logger.Info().Msg("Initializing S3 blob store")
		return NewS3Store(cfg)
	default:
		zlog.Logger.Error().Str("type", cfg.Type).Msg("Unsupported blob store type, use 'memory' or 's3'")
		return nil, fmt.Errorf("unsupported blob store type: %s", cfg.Type)
	}
}
