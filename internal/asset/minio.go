package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements Store on MinIO/S3 compatible object storage,
// keeping every asset as one object in a single bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

// Save uploads the asset under a fresh generated key.
func (m *MinioStore) Save(ctx context.Context, originalFilename string, r io.Reader) (string, error) {
	id := NewKey(originalFilename)
	_, err := m.client.PutObject(ctx, m.bucket, id, r, -1, minio.PutObjectOptions{
		ContentType: ContentTypeFor(id),
	})
	if err != nil {
		return "", fmt.Errorf("put asset: %w", err)
	}
	return id, nil
}

// Open streams the object. Missing keys map to ErrNotFound.
func (m *MinioStore) Open(ctx context.Context, id string) (io.ReadCloser, string, error) {
	if err := ValidateID(id); err != nil {
		return nil, "", err
	}
	obj, err := m.client.GetObject(ctx, m.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("get asset: %w", err)
	}
	// GetObject is lazy; Stat forces the lookup so unknown keys surface here.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("stat asset: %w", err)
	}
	return obj, ContentTypeFor(id), nil
}

// Clear removes every object in the bucket, best-effort per object.
func (m *MinioStore) Clear(ctx context.Context) error {
	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{}) {
		if object.Err != nil {
			return fmt.Errorf("list assets: %w", object.Err)
		}
		if err := m.client.RemoveObject(ctx, m.bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			slog.Warn("failed to delete asset", "id", object.Key, "err", err)
		}
	}
	return nil
}
