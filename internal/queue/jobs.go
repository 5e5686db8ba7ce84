// Package queue defines the asynq tasks that connect upload intake to the
// derivative pipeline.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypeImageProcess is scheduled each time an object lands under the
	// intake prefix. Delivery is at-least-once.
	TypeImageProcess = "image:process"
)

// ImageProcessPayload tells the worker which object to process.
type ImageProcessPayload struct {
	Bucket    string `json:"bucket"`
	ObjectKey string `json:"object_key"`
}

// EnqueueImageProcess enqueues a derivative-generation job. The per-attempt
// timeout leaves room for decode and resample of large images.
func EnqueueImageProcess(ctx context.Context, client *asynq.Client, payload ImageProcessPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeImageProcess, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(5), asynq.Timeout(2*time.Minute)); err != nil {
		return fmt.Errorf("enqueue image process task: %w", err)
	}
	return nil
}
