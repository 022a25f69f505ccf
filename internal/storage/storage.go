package storage

import (
	"context"
	"io"
	"time"
)

// UploadOptions conveys the destination and metadata for an image upload.
type UploadOptions struct {
	Bucket      string
	Key         string
	ContentType string
}

// Service stores post images in remote object storage.
type Service interface {
	UploadObject(ctx context.Context, body io.Reader, opts UploadOptions) (string, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	ObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}
