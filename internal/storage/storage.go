// Package storage keeps uploaded spectrum files in an S3 compatible object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Backends selectable with STORAGE_BACKEND
const (
	BackendS3    = "s3"
	BackendMinio = "minio"
)

const (
	uploadURLExpiry   = 15 * time.Minute
	downloadURLExpiry = 24 * time.Hour
)

var ErrInvalidContentType = errors.New("invalid content type")

// ObjectStore handles file storage operations
type ObjectStore interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error)
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	UploadFile(ctx context.Context, key string, data []byte, contentType string) error
	DownloadFile(ctx context.Context, key string) ([]byte, error)
	DeleteFile(ctx context.Context, key string) error
}

// Config selects and configures a backend
type Config struct {
	Backend   string
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// New creates the object store named by cfg.Backend
func New(ctx context.Context, cfg Config) (ObjectStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendS3:
		return NewS3Service(ctx, cfg)
	case BackendMinio:
		return NewMinioStore(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// UploadURLExpiry is how long a presigned upload URL stays valid
func UploadURLExpiry() time.Duration {
	return uploadURLExpiry
}

// ObjectKey returns the key an uploaded spectrum file is stored under
func ObjectKey(spectrumID string) string {
	return fmt.Sprintf("spectra/%s.xml", spectrumID)
}

// validateContentType checks that uploads are XML documents
func validateContentType(contentType string) error {
	validTypes := map[string]bool{
		"application/xml": true,
		"text/xml":        true,
	}

	if !validTypes[contentType] {
		return fmt.Errorf("%w: %s. Supported types: application/xml, text/xml", ErrInvalidContentType, contentType)
	}
	return nil
}

// splitEndpoint strips the scheme from an endpoint and reports whether it asked for TLS
func splitEndpoint(endpoint string, useSSL bool) (host string, secure bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimPrefix(endpoint, "http://"), false
	}
	return endpoint, useSSL
}
