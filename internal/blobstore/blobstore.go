// Package blobstore wraps object storage for intake uploads and derivatives.
package blobstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when the requested object key does not exist.
var ErrNotFound = errors.New("object not found")

// Object is a stored blob together with its content type.
type Object struct {
	Data        []byte
	ContentType string
}

// ObjectStore is the storage surface the pipeline depends on. Keys are UTF-8
// path-like strings; objects are opaque binary blobs.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) (*Object, error)
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
	Copy(ctx context.Context, bucket, srcKey, dstKey string) error
	Stat(ctx context.Context, bucket, key string) error
	PresignedPut(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}
