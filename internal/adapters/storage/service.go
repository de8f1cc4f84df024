// Package storage provides an interface for S3-compatible object storage.
// The prospecting module uses it for feedback images.
package storage

import (
	"context"
	"io"
)

// StorageService defines the object storage operations used by the application.
type StorageService interface {
	// UploadFile stores reader under folder and returns the object key.
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)

	// ObjectURL returns a URL clients can fetch the object from: the public
	// base URL when configured, otherwise a presigned GET URL.
	ObjectURL(ctx context.Context, bucket, fileKey string) (string, error)

	// DeleteObject removes an object from storage.
	DeleteObject(ctx context.Context, bucket, fileKey string) error

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// ValidateContentType checks if the content type is allowed.
	ValidateContentType(contentType string) error

	// ValidateFileSize checks if the file size is within limits.
	ValidateFileSize(sizeBytes int64) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinIOPublicBaseURL() string
	IsMinIOEnabled() bool
}
