package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"aeroclassifieds/internal/domain/service"
	"aeroclassifieds/pkg/logger"
)

// S3Client stores attachments in any S3-compatible bucket.
type S3Client struct {
	bucket        string
	publicBaseURL string
	client        *minio.Client

	bucketInitOnce sync.Once
	bucketInitErr  error
}

var _ service.FileUploadService = (*S3Client)(nil)

func NewS3Client(endpoint string, useSSL bool, accessKey, secretKey, bucket, publicBaseURL string) (*S3Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	client, err := minio.New(hostOf(endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	base := strings.TrimSpace(publicBaseURL)
	if base == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		base = scheme + "://" + hostOf(endpoint) + "/" + bucket
	}

	return &S3Client{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
		client:        client,
	}, nil
}

func (c *S3Client) UploadObject(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error) {
	key := strings.Trim(objectPath, "/")
	if key == "" {
		return "", errors.New("s3: object key is required")
	}
	if err := c.ensureBucket(ctx); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := c.client.PutObject(ctx, c.bucket, key, r, -1, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=86400",
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}

	publicURL := c.objectURL(key)
	logger.Debug("s3 upload completed: bucket=%s key=%s", c.bucket, key)
	return publicURL, nil
}

func (c *S3Client) DeleteFile(ctx context.Context, fileURL string) error {
	prefix := c.publicBaseURL + "/"
	if !strings.HasPrefix(fileURL, prefix) {
		return fmt.Errorf("s3: url %q is not under %s", fileURL, c.publicBaseURL)
	}

	key, err := url.PathUnescape(strings.TrimPrefix(fileURL, prefix))
	if err != nil {
		return fmt.Errorf("s3: bad object url: %w", err)
	}
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("s3: remove object: %w", err)
	}
	return nil
}

func (c *S3Client) Close() error {
	return nil
}

func (c *S3Client) ensureBucket(ctx context.Context) error {
	c.bucketInitOnce.Do(func() {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			c.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			c.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
		}
	})
	return c.bucketInitErr
}

func (c *S3Client) objectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.publicBaseURL + "/" + strings.Join(segments, "/")
}

func hostOf(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		return u.Host
	}
	return endpoint
}
