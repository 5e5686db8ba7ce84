package queue

import (
	"context"

	"github.com/hibiken/asynq"
)

// Client wraps an asynq client behind the enqueue surface the API uses.
type Client struct {
	inner *asynq.Client
}

// NewClient constructs a Client.
func NewClient(inner *asynq.Client) *Client {
	return &Client{inner: inner}
}

// EnqueueImageProcess schedules derivative generation for an intake object.
func (c *Client) EnqueueImageProcess(ctx context.Context, payload ImageProcessPayload) error {
	return EnqueueImageProcess(ctx, c.inner, payload)
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.inner.Close()
}
