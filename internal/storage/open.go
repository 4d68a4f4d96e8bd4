package storage

import (
	"context"
	"fmt"

	"github.com/jjudge-oj/imageforms/config"
)

// Open returns the object storage backend named by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Backend {
	case "", config.StorageMemory:
		return NewMemoryStorage("imageforms"), nil
	case config.StorageMinio:
		client, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.StorageGCS:
		client, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
