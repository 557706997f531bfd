package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"aeroclassifieds/internal/domain/service"
	"aeroclassifieds/pkg/logger"
)

const gcsPublicHost = "https://storage.googleapis.com/"

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
	publicACL  bool
}

var _ service.FileUploadService = (*CloudStorageClient)(nil)

// NewCloudStorageClient uploads into bucketName. With publicACL set every object
// is granted allUsers read after upload; leave it off for buckets using uniform
// bucket-level access, where visibility comes from bucket IAM.
func NewCloudStorageClient(ctx context.Context, bucketName string, publicACL bool, opts ...option.ClientOption) (*CloudStorageClient, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
		publicACL:  publicACL,
	}, nil
}

func (c *CloudStorageClient) UploadObject(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error) {
	objectPath = strings.TrimLeft(objectPath, "/")
	if objectPath == "" {
		return "", fmt.Errorf("object path is required")
	}

	obj := c.client.Bucket(c.bucketName).Object(objectPath)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to copy file to GCS: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	if c.publicACL {
		if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
			// the caller never sees a URL for this object, so remove it here
			if delErr := obj.Delete(context.WithoutCancel(ctx)); delErr != nil {
				logger.Warn("Failed to remove %s after ACL error: %v", objectPath, delErr)
			}
			return "", fmt.Errorf("failed to set ACL: %w", err)
		}
	}

	return gcsPublicHost + c.bucketName + "/" + objectPath, nil
}

// DeleteFile accepts URLs in the https://storage.googleapis.com/<bucket>/<object> form.
func (c *CloudStorageClient) DeleteFile(ctx context.Context, fileURL string) error {
	if !strings.HasPrefix(fileURL, gcsPublicHost) {
		return fmt.Errorf("invalid GCS URL format")
	}

	parts := strings.SplitN(strings.TrimPrefix(fileURL, gcsPublicHost), "/", 2)
	if len(parts) != 2 || parts[0] != c.bucketName {
		return fmt.Errorf("invalid GCS URL format or bucket mismatch")
	}

	if err := c.client.Bucket(c.bucketName).Object(parts[1]).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
