package cli

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/inventory-service/internal/blob"
	"github.com/fairyhunter13/inventory-service/internal/config"
	"github.com/fairyhunter13/inventory-service/internal/storage"
	"github.com/fairyhunter13/inventory-service/internal/storage/docstore"
	"github.com/fairyhunter13/inventory-service/internal/storage/sqlstore"
)

// OpenBackend opens the storage backend selected by cfg.
func OpenBackend(ctx context.Context, cfg config.Config) (storage.Backend, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		s, err := sqlstore.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := sqlstore.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverDocument:
		bucket, err := openBucket(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return docstore.New(bucket, cfg.ActivityRetention), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func openBucket(ctx context.Context, cfg config.Config) (blob.Bucket, error) {
	switch cfg.DocumentDriver {
	case config.DocumentFS:
		b, err := blob.NewFS(cfg.DocumentDir)
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.DocumentS3:
		b, err := blob.NewS3(ctx, blob.S3Config{
			Bucket:    cfg.DocumentS3Bucket,
			Region:    cfg.DocumentS3Region,
			Endpoint:  cfg.DocumentS3Endpoint,
			Prefix:    cfg.DocumentS3Prefix,
			PathStyle: cfg.DocumentS3PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.DocumentMemory:
		return blob.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown document driver %q", cfg.DocumentDriver)
	}
}
