package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"kirshify/admin/internal/config"
)

// MaxImportSize bounds how much of an import object is read.
const MaxImportSize = 8 << 20

var (
	ErrImportNotFound = errors.New("import object not found")
	ErrImportTooLarge = errors.New("import object too large")
)

// ImportStore keeps user-import files in a single S3-compatible bucket.
type ImportStore struct {
	client *minio.Client
	bucket string
	region string
}

// NewImportStore returns nil, nil when no endpoint is configured.
func NewImportStore(cfg config.StorageConfig) (*ImportStore, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, nil
	}

	endpoint, useSSL, err := parseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ImportStore{
		client: client,
		bucket: cfg.BucketImports,
		region: cfg.Region,
	}, nil
}

// parseEndpoint accepts "host:port" or a URL; a URL scheme overrides useSSL.
func parseEndpoint(endpoint string, useSSL bool) (string, bool, error) {
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return endpoint, useSSL, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("parse endpoint: missing host in %q", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

func (s *ImportStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *ImportStore) PutImport(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *ImportStore) GetImport(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapObjectError(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, MaxImportSize+1))
	if err != nil {
		return nil, mapObjectError(key, err)
	}
	if len(data) > MaxImportSize {
		return nil, fmt.Errorf("%w: %s", ErrImportTooLarge, key)
	}
	return data, nil
}

func mapObjectError(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", ErrImportNotFound, key)
	}
	return fmt.Errorf("get %s: %w", key, err)
}
