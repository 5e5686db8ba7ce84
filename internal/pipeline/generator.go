// Package pipeline turns intake uploads into derivative images and registers
// them on the owning dog record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shelterpaws/waggle/internal/blobstore"
	"github.com/shelterpaws/waggle/internal/images"
	"github.com/shelterpaws/waggle/internal/model"
)

// ErrSourceNotFound indicates the intake object is gone, typically because a
// previous delivery already processed and deleted it.
var ErrSourceNotFound = errors.New("intake object not found")

// ImageRegistry is the slice of the record store the generator mutates. The
// append must be atomic at the storage layer so two images finishing
// concurrently for the same dog cannot lose updates.
type ImageRegistry interface {
	AppendImage(ctx context.Context, shelterID, dogID string, rec model.ImageRecord) error
	RemoveImage(ctx context.Context, shelterID, dogID, imageID string) (*model.ImageRecord, error)
}

// Generator orchestrates decode, derivative production, upload and metadata
// registration for one intake object at a time.
type Generator struct {
	store        blobstore.ObjectStore
	registry     ImageRegistry
	standardBox  int
	thumbnailBox int
	log          *zap.Logger
}

// NewGenerator constructs a Generator.
func NewGenerator(store blobstore.ObjectStore, registry ImageRegistry, standardBox, thumbnailBox int, log *zap.Logger) *Generator {
	return &Generator{
		store:        store,
		registry:     registry,
		standardBox:  standardBox,
		thumbnailBox: thumbnailBox,
		log:          log,
	}
}

// Generate produces the original copy plus standard and thumbnail derivatives
// for the intake object, appends the resulting ImageRecord to the dog record,
// and deletes the intake object. The intake object is left in place on any
// failure before the record append so redelivery can retry from scratch.
func (g *Generator) Generate(ctx context.Context, bucket, intakeKey, shelterID, dogID string) (string, error) {
	obj, err := g.store.Get(ctx, bucket, intakeKey)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrSourceNotFound, intakeKey)
		}
		return "", fmt.Errorf("fetch intake object: %w", err)
	}

	imageID := uuid.NewString()
	ext := strings.ToLower(path.Ext(intakeKey))
	origKey := originalKey(dogID, imageID, ext)
	stdKey := standardKey(dogID, imageID)
	thumbKey := thumbnailKey(dogID, imageID)

	if err := g.store.Copy(ctx, bucket, intakeKey, origKey); err != nil {
		return "", fmt.Errorf("copy original: %w", err)
	}

	standard, err := images.Resample(obj.Data, g.standardBox, g.standardBox)
	if err != nil {
		return "", fmt.Errorf("standard derivative: %w", err)
	}
	if err := g.store.Put(ctx, bucket, stdKey, standard, "image/png"); err != nil {
		return "", fmt.Errorf("store standard derivative: %w", err)
	}

	thumbnail, err := images.Resample(obj.Data, g.thumbnailBox, g.thumbnailBox)
	if err != nil {
		return "", fmt.Errorf("thumbnail derivative: %w", err)
	}
	if err := g.store.Put(ctx, bucket, thumbKey, thumbnail, "image/png"); err != nil {
		return "", fmt.Errorf("store thumbnail derivative: %w", err)
	}

	rec := model.ImageRecord{
		ImageID:          imageID,
		OriginalKey:      origKey,
		StandardKey:      stdKey,
		ThumbnailKey:     thumbKey,
		ContentType:      obj.ContentType,
		OriginalFilename: path.Base(intakeKey),
		CreatedAt:        time.Now().UTC(),
	}
	if err := g.registry.AppendImage(ctx, shelterID, dogID, rec); err != nil {
		return "", fmt.Errorf("register image record: %w", err)
	}

	// The record is durable; a failed intake delete must not trigger
	// redelivery or a duplicate record would be appended.
	if err := g.store.Delete(ctx, bucket, intakeKey); err != nil {
		g.log.Warn("intake object not deleted after processing",
			zap.String("key", intakeKey),
			zap.Error(err))
	}
	return imageID, nil
}

// Remove deletes the ImageRecord identified by imageID from the dog record and
// then removes its three blobs as a compensating action.
func (g *Generator) Remove(ctx context.Context, bucket, shelterID, dogID, imageID string) error {
	rec, err := g.registry.RemoveImage(ctx, shelterID, dogID, imageID)
	if err != nil {
		return fmt.Errorf("remove image record: %w", err)
	}
	for _, key := range []string{rec.OriginalKey, rec.StandardKey, rec.ThumbnailKey} {
		if err := g.store.Delete(ctx, bucket, key); err != nil {
			g.log.Warn("derivative blob not deleted",
				zap.String("key", key),
				zap.Error(err))
		}
	}
	return nil
}
