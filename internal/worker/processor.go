// Package worker plugs the derivative pipeline into the asynq worker loop.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/shelterpaws/waggle/internal/images"
	"github.com/shelterpaws/waggle/internal/pipeline"
	"github.com/shelterpaws/waggle/internal/queue"
)

// Processor is the event entry point invoked for each object that lands in
// the intake prefix.
type Processor struct {
	gen *pipeline.Generator
	log *zap.Logger
}

// NewProcessor constructs a worker processor.
func NewProcessor(gen *pipeline.Generator, log *zap.Logger) *Processor {
	return &Processor{gen: gen, log: log}
}

// Handler registers the image processing handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeImageProcess, p.handleImageProcess)
	return mux
}

// handleImageProcess parses the object key and runs the generator. It must be
// idempotent-safe under at-least-once delivery: a key whose intake object is
// already gone is a benign no-op, and undecodable objects are never retried.
func (p *Processor) handleImageProcess(ctx context.Context, task *asynq.Task) error {
	var payload queue.ImageProcessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	shelterID, dogID, _, ok := pipeline.ParseIntakeKey(payload.ObjectKey)
	if !ok {
		// Other prefixes share the bucket; not an error.
		p.log.Debug("skipping non-intake object", zap.String("key", payload.ObjectKey))
		return nil
	}

	imageID, err := p.gen.Generate(ctx, payload.Bucket, payload.ObjectKey, shelterID, dogID)
	switch {
	case errors.Is(err, pipeline.ErrSourceNotFound):
		p.log.Info("intake object already processed",
			zap.String("key", payload.ObjectKey))
		return nil
	case errors.Is(err, images.ErrUnsupportedFormat):
		p.log.Warn("intake object is not a decodable image, leaving it for inspection",
			zap.String("key", payload.ObjectKey),
			zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	case err != nil:
		p.log.Error("image processing failed, redelivery will retry",
			zap.String("key", payload.ObjectKey),
			zap.Error(err))
		return err
	}

	p.log.Info("image processed",
		zap.String("key", payload.ObjectKey),
		zap.String("image_id", imageID),
		zap.String("shelter_id", shelterID),
		zap.String("dog_id", dogID))
	return nil
}
