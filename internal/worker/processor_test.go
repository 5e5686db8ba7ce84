package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"testing"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/shelterpaws/waggle/internal/blobstore"
	"github.com/shelterpaws/waggle/internal/model"
	"github.com/shelterpaws/waggle/internal/pipeline"
	"github.com/shelterpaws/waggle/internal/queue"
)

type memRegistry struct {
	appended []model.ImageRecord
}

func (m *memRegistry) AppendImage(ctx context.Context, shelterID, dogID string, rec model.ImageRecord) error {
	m.appended = append(m.appended, rec)
	return nil
}

func (m *memRegistry) RemoveImage(ctx context.Context, shelterID, dogID, imageID string) (*model.ImageRecord, error) {
	return nil, errors.New("not implemented")
}

func processTask(t *testing.T, bucket, key string) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(queue.ImageProcessPayload{Bucket: bucket, ObjectKey: key})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return asynq.NewTask(queue.TypeImageProcess, data)
}

func newTestProcessor(store blobstore.ObjectStore, registry pipeline.ImageRegistry) *Processor {
	gen := pipeline.NewGenerator(store, registry, 400, 50, zap.NewNop())
	return NewProcessor(gen, zap.NewNop())
}

func TestHandleSkipsForeignPrefixes(t *testing.T) {
	p := newTestProcessor(blobstore.NewMemoryStore(), &memRegistry{})
	task := processTask(t, "b", "derivative/standard/d1/abc.png")
	if err := p.handleImageProcess(context.Background(), task); err != nil {
		t.Fatalf("foreign prefix must be ignored, got %v", err)
	}
}

func TestHandleMissingSourceIsBenign(t *testing.T) {
	p := newTestProcessor(blobstore.NewMemoryStore(), &memRegistry{})
	task := processTask(t, "b", "intake/S1/d1/gone.jpg")
	if err := p.handleImageProcess(context.Background(), task); err != nil {
		t.Fatalf("missing source on redelivery must be a no-op, got %v", err)
	}
}

func TestHandleUnsupportedFormatIsNotRetried(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	if err := store.Put(ctx, "b", "intake/S1/d1/bad.jpg", []byte("junk"), "image/jpeg"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	p := newTestProcessor(store, &memRegistry{})
	err := p.handleImageProcess(ctx, processTask(t, "b", "intake/S1/d1/bad.jpg"))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestHandleProcessesIntakeObject(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 320, 240)), nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := store.Put(ctx, "b", "intake/S1/d1/ok.jpg", buf.Bytes(), "image/jpeg"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	registry := &memRegistry{}
	p := newTestProcessor(store, registry)
	if err := p.handleImageProcess(ctx, processTask(t, "b", "intake/S1/d1/ok.jpg")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(registry.appended) != 1 {
		t.Fatalf("expected one appended record, got %d", len(registry.appended))
	}
}
