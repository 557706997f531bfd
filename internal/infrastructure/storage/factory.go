package storage

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"aeroclassifieds/internal/domain/service"
	"aeroclassifieds/pkg/config"
)

// NewFromConfig opens the blob store selected by STORAGE_DRIVER. opts carry the
// Google credentials and are ignored by the s3 driver.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (service.FileUploadService, error) {
	switch cfg.StorageDriver {
	case "", "gcs":
		client, err := NewCloudStorageClient(ctx, cfg.StorageBucket, cfg.GCSPublicACL, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "s3":
		client, err := NewS3Client(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.StorageBucket, cfg.S3PublicBaseURL)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
