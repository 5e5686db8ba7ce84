package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shelterpaws/waggle/internal/config"
)

// MinioStore implements ObjectStore against a MinIO/S3 endpoint.
type MinioStore struct {
	client *minio.Client
	region string
}

// NewMinioStore creates a MinIO client from the Config.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &MinioStore{client: client, region: cfg.S3Region}, nil
}

// EnsureBucket makes sure the image bucket exists before use.
func (s *MinioStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// Get fetches the object bytes and content type.
func (s *MinioStore) Get(ctx context.Context, bucket, key string) (*Object, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("get object %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	info, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("stat object %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}
	return &Object{Data: data, ContentType: info.ContentType}, nil
}

// Put uploads data at key with the given content type.
func (s *MinioStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Delete removes the object at key. Deleting a missing key is not an error.
func (s *MinioStore) Delete(ctx context.Context, bucket, key string) error {
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// Copy performs a server-side byte-identical copy from srcKey to dstKey.
func (s *MinioStore) Copy(ctx context.Context, bucket, srcKey, dstKey string) error {
	src := minio.CopySrcOptions{Bucket: bucket, Object: srcKey}
	dst := minio.CopyDestOptions{Bucket: bucket, Object: dstKey}
	if _, err := s.client.CopyObject(ctx, dst, src); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("copy object %s: %w", srcKey, ErrNotFound)
		}
		return fmt.Errorf("copy object %s to %s: %w", srcKey, dstKey, err)
	}
	return nil
}

// Stat checks that an object exists at key.
func (s *MinioStore) Stat(ctx context.Context, bucket, key string) error {
	if _, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("stat object %s: %w", key, ErrNotFound)
		}
		return fmt.Errorf("stat object %s: %w", key, err)
	}
	return nil
}

// PresignedPut returns a time-limited direct-upload URL scoped to key.
func (s *MinioStore) PresignedPut(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, bucket, key, expiry)
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return u.String(), nil
}
