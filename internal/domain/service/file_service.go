package service

import (
	"context"
	"io"
)

type FileUploadService interface {
	// UploadObject stores r at objectPath and returns a durable fetchable URL.
	UploadObject(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
	Close() error
}
