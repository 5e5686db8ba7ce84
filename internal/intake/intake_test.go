package intake

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shelterpaws/waggle/internal/blobstore"
	"github.com/shelterpaws/waggle/internal/signing"
)

func newTestService(store blobstore.ObjectStore) *Service {
	return NewService(
		store,
		signing.NewSigner([]byte("test-secret")),
		"waggle-test",
		50<<20,
		[]string{"image/jpeg", "image/png", "image/gif"},
		time.Hour,
	)
}

func validRequest() Request {
	return Request{
		Filename:    "buddy.jpg",
		ContentType: "image/jpeg",
		SizeBytes:   1024,
		ShelterID:   "VA#ARLINGTON#SHELTER1",
		DogID:       "d1",
	}
}

func TestRequestUploadValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr error
	}{
		{"bad content type", func(r *Request) { r.ContentType = "application/pdf" }, ErrInvalidContentType},
		{"oversize", func(r *Request) { r.SizeBytes = 51 << 20 }, ErrPayloadTooLarge},
		{"bad extension", func(r *Request) { r.Filename = "buddy.webp" }, ErrInvalidExtension},
		{"no extension", func(r *Request) { r.Filename = "buddy" }, ErrInvalidExtension},
		{"bad base64", func(r *Request) { r.Data = "%%%not-base64%%%" }, ErrInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			svc := newTestService(store)
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.RequestUpload(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if store.Len() != 0 {
				t.Fatalf("rejected request must not write blobs")
			}
		})
	}
}

func TestRequestUploadAcceptsCaseInsensitiveExtensions(t *testing.T) {
	svc := newTestService(blobstore.NewMemoryStore())
	for _, name := range []string{"a.JPG", "b.Jpeg", "c.PNG", "d.GIF"} {
		req := validRequest()
		req.Filename = name
		if _, err := svc.RequestUpload(context.Background(), req); err != nil {
			t.Fatalf("expected %q to be accepted: %v", name, err)
		}
	}
}

func TestRequestUploadInlineWritesIntakeObject(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	svc := newTestService(store)

	payload := []byte("jpeg bytes go here")
	req := validRequest()
	req.Data = base64.StdEncoding.EncodeToString(payload)

	grant, err := svc.RequestUpload(ctx, req)
	if err != nil {
		t.Fatalf("request upload: %v", err)
	}
	if !grant.Accepted {
		t.Fatalf("inline upload should be accepted immediately")
	}
	if !strings.HasPrefix(grant.StorageKey, "intake/VA#ARLINGTON#SHELTER1/d1/") {
		t.Fatalf("key %q not under owner-scoped intake prefix", grant.StorageKey)
	}
	obj, err := store.Get(ctx, "waggle-test", grant.StorageKey)
	if err != nil {
		t.Fatalf("intake object missing: %v", err)
	}
	if string(obj.Data) != string(payload) {
		t.Fatalf("stored bytes differ from payload")
	}
	if obj.ContentType != "image/jpeg" {
		t.Fatalf("content type %q", obj.ContentType)
	}
}

func TestRequestUploadGrantRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	svc := newTestService(store)

	grant, err := svc.RequestUpload(ctx, validRequest())
	if err != nil {
		t.Fatalf("request upload: %v", err)
	}
	if grant.Accepted {
		t.Fatalf("grant mode must not store anything")
	}
	if grant.UploadURL == "" || grant.CompletionToken == "" || grant.Method != "PUT" {
		t.Fatalf("incomplete grant: %+v", grant)
	}
	if grant.ExpiresIn != 3600 {
		t.Fatalf("expected one hour grant, got %d seconds", grant.ExpiresIn)
	}
	if store.Len() != 0 {
		t.Fatalf("grant mode wrote %d objects", store.Len())
	}

	// Completion fails before the object lands.
	err = svc.VerifyCompletion(ctx, grant.StorageKey, grant.ExpiresUnix, grant.CompletionToken)
	if err == nil {
		t.Fatalf("expected completion to fail before upload")
	}

	if err := store.Put(ctx, "waggle-test", grant.StorageKey, []byte("data"), "image/jpeg"); err != nil {
		t.Fatalf("simulate direct upload: %v", err)
	}
	if err := svc.VerifyCompletion(ctx, grant.StorageKey, grant.ExpiresUnix, grant.CompletionToken); err != nil {
		t.Fatalf("completion after upload: %v", err)
	}

	// A tampered token is rejected.
	if err := svc.VerifyCompletion(ctx, grant.StorageKey, grant.ExpiresUnix, "deadbeef"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
