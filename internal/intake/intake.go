// Package intake validates inbound upload requests and places or grants
// access to intake objects in the blob store.
package intake

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shelterpaws/waggle/internal/blobstore"
	"github.com/shelterpaws/waggle/internal/pipeline"
	"github.com/shelterpaws/waggle/internal/signing"
)

var (
	ErrInvalidContentType = errors.New("content type not allowed")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrInvalidExtension   = errors.New("file extension not allowed")
	ErrInvalidPayload     = errors.New("invalid inline payload")
	ErrInvalidToken       = errors.New("completion token invalid or expired")
)

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// Request is the validated upload request. Data carries base64 bytes for
// inline uploads; when empty, a direct-upload grant is issued instead.
type Request struct {
	Filename    string
	ContentType string
	SizeBytes   int64
	ShelterID   string
	DogID       string
	Data        string
}

// Grant is the outcome of a successful RequestUpload call. Accepted is true
// for inline uploads, meaning the object is stored and processing is queued
// by the caller; otherwise UploadURL and the completion token are set.
type Grant struct {
	StorageKey      string
	Accepted        bool
	UploadURL       string
	Method          string
	ExpiresUnix     int64
	ExpiresIn       int64
	CompletionToken string
}

// Service performs intake validation and key allocation.
type Service struct {
	store        blobstore.ObjectStore
	signer       *signing.Signer
	bucket       string
	maxBytes     int64
	allowedTypes map[string]struct{}
	grantTTL     time.Duration
}

// NewService constructs an intake Service.
func NewService(store blobstore.ObjectStore, signer *signing.Signer, bucket string, maxBytes int64, allowedTypes []string, grantTTL time.Duration) *Service {
	types := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		types[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return &Service{
		store:        store,
		signer:       signer,
		bucket:       bucket,
		maxBytes:     maxBytes,
		allowedTypes: types,
		grantTTL:     grantTTL,
	}
}

// RequestUpload validates req, allocates a fresh intake key and either writes
// the inline bytes or issues a time-limited direct-upload grant.
func (s *Service) RequestUpload(ctx context.Context, req Request) (*Grant, error) {
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	if _, ok := s.allowedTypes[contentType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContentType, req.ContentType)
	}
	if req.SizeBytes > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrPayloadTooLarge, req.SizeBytes, s.maxBytes)
	}
	ext := strings.ToLower(filepath.Ext(req.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExtension, req.Filename)
	}

	key := pipeline.IntakeKey(req.ShelterID, req.DogID, uuid.NewString(), ext)

	if req.Data != "" {
		data, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if int64(len(data)) > s.maxBytes {
			return nil, fmt.Errorf("%w: decoded payload is %d bytes", ErrPayloadTooLarge, len(data))
		}
		if err := s.store.Put(ctx, s.bucket, key, data, contentType); err != nil {
			return nil, fmt.Errorf("store intake object: %w", err)
		}
		return &Grant{StorageKey: key, Accepted: true}, nil
	}

	expires := time.Now().Add(s.grantTTL)
	url, err := s.store.PresignedPut(ctx, s.bucket, key, s.grantTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &Grant{
		StorageKey:      key,
		UploadURL:       url,
		Method:          "PUT",
		ExpiresUnix:     expires.Unix(),
		ExpiresIn:       int64(s.grantTTL.Seconds()),
		CompletionToken: s.signer.Sign(key, expires.Unix()),
	}, nil
}

// VerifyCompletion checks a direct-upload completion token and confirms the
// object actually landed at the granted key.
func (s *Service) VerifyCompletion(ctx context.Context, storageKey string, expiresUnix int64, token string) error {
	if _, _, _, ok := pipeline.ParseIntakeKey(storageKey); !ok {
		return fmt.Errorf("%w: not an intake key", ErrInvalidToken)
	}
	if !s.signer.Validate(storageKey, strconv.FormatInt(expiresUnix, 10), token) {
		return ErrInvalidToken
	}
	if err := s.store.Stat(ctx, s.bucket, storageKey); err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return fmt.Errorf("object not uploaded yet: %w", err)
		}
		return fmt.Errorf("verify upload: %w", err)
	}
	return nil
}

// Bucket exposes the configured image bucket for enqueueing trigger events.
func (s *Service) Bucket() string {
	return s.bucket
}
