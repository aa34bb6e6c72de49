package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
)

func TestValidateContentType(t *testing.T) {
	assert.NoError(t, validateContentType("application/xml"))
	assert.NoError(t, validateContentType("text/xml"))
	assert.ErrorIs(t, validateContentType("audio/wav"), ErrInvalidContentType)
	assert.ErrorIs(t, validateContentType(""), ErrInvalidContentType)
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		endpoint   string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{endpoint: "localhost:9000", wantHost: "localhost:9000"},
		{endpoint: "localhost:9000", useSSL: true, wantHost: "localhost:9000", wantSecure: true},
		{endpoint: "http://minio:9000", useSSL: true, wantHost: "minio:9000"},
		{endpoint: "https://s3.example.com", wantHost: "s3.example.com", wantSecure: true},
	}
	for _, tt := range tests {
		host, secure := splitEndpoint(tt.endpoint, tt.useSSL)
		assert.Equal(t, tt.wantHost, host, tt.endpoint)
		assert.Equal(t, tt.wantSecure, secure, tt.endpoint)
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "spectra/abc.xml", ObjectKey("abc"))
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), Config{Backend: "gcs", Bucket: "b"})
	assert.Error(t, err)
}

func TestNewS3Service_RequiresBucket(t *testing.T) {
	_, err := NewS3Service(context.Background(), Config{})
	assert.Error(t, err)
}

func TestS3Service_PresignedURLs(t *testing.T) {
	ctx := context.Background()
	store, err := NewS3Service(ctx, Config{
		Bucket:    "spectra-test",
		Endpoint:  "localhost:9000",
		Region:    "us-east-1",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)

	upload, err := store.GenerateUploadURL(ctx, "spectra/a.xml", "application/xml")
	require.NoError(t, err)
	u, err := url.Parse(upload)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/spectra-test/spectra/a.xml", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))

	_, err = store.GenerateUploadURL(ctx, "spectra/a.xml", "audio/wav")
	assert.ErrorIs(t, err, ErrInvalidContentType)

	download, err := store.GenerateDownloadURL(ctx, "spectra/a.xml")
	require.NoError(t, err)
	assert.True(t, strings.Contains(download, "X-Amz-Signature"))
}

func TestMinioStore_PresignedURLs(t *testing.T) {
	// a fixed region avoids the bucket location lookup, so no server is needed
	store, err := newMinioStore(Config{
		Bucket:    "spectra-test",
		Endpoint:  "http://localhost:9000",
		Region:    "us-east-1",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)

	ctx := context.Background()
	upload, err := store.GenerateUploadURL(ctx, "spectra/a.xml", "text/xml")
	require.NoError(t, err)
	u, err := url.Parse(upload)
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "/spectra-test/spectra/a.xml", u.Path)

	_, err = store.GenerateUploadURL(ctx, "spectra/a.xml", "image/png")
	assert.ErrorIs(t, err, ErrInvalidContentType)
}

func TestNewMinioStore_RequiresEndpoint(t *testing.T) {
	_, err := newMinioStore(Config{Bucket: "b"})
	assert.Error(t, err)
}

func TestObjectStores_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcminio.Run(ctx,
		"minio/minio:RELEASE.2024-10-29T16-01-48Z",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	defer func() { require.NoError(t, container.Terminate(ctx)) }()

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	bucket := "spectra-test-" + uuid.New().String()[:8]
	cfg := Config{
		Bucket:    bucket,
		Endpoint:  endpoint,
		Region:    "us-east-1",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}

	// minio creates the bucket, the S3 client then shares it
	minioStore, err := New(ctx, Config{Backend: BackendMinio, Bucket: cfg.Bucket, Endpoint: cfg.Endpoint,
		Region: cfg.Region, AccessKey: cfg.AccessKey, SecretKey: cfg.SecretKey})
	require.NoError(t, err)
	s3Store, err := New(ctx, cfg)
	require.NoError(t, err)

	for name, store := range map[string]ObjectStore{"minio": minioStore, "s3": s3Store} {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			key := ObjectKey(name)
			payload := []byte(`<?xml version="1.0"?><LSX_Data/>`)
			require.NoError(t, store.UploadFile(ctx, key, payload, "application/xml"))

			got, err := store.DownloadFile(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, payload, got)

			require.NoError(t, store.DeleteFile(ctx, key))
			_, err = store.DownloadFile(ctx, key)
			assert.Error(t, err)
		})
	}
}
