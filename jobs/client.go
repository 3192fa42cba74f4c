package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Client enqueues dataset tasks onto one queue.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient constructs a Client bound to queue. An empty queue selects QueueDefault.
func NewClient(redisOpts asynq.RedisClientOpt, queue string) *Client {
	if queue == "" {
		queue = QueueDefault
	}
	return &Client{client: asynq.NewClient(redisOpts), queue: queue}
}

// Queue reports the queue tasks are sent to.
func (c *Client) Queue() string {
	if c == nil {
		return ""
	}
	return c.queue
}

// BuildTask maps a task type onto a task with its default payload. reason is
// recorded on dataset reloads.
func BuildTask(name, reason string) (*asynq.Task, error) {
	switch name {
	case TaskDatasetReload:
		return NewDatasetReloadTask(reason)
	case TaskAnalyticsWarmup:
		return NewAnalyticsWarmupTask(0)
	default:
		return nil, fmt.Errorf("jobs: unsupported task %s", name)
	}
}

// EnqueueOptions returns the options every manual enqueue uses. Duplicate
// requests within a minute collapse into one task.
func (c *Client) EnqueueOptions() []asynq.Option {
	return []asynq.Option{asynq.Queue(c.Queue()), asynq.Unique(time.Minute), asynq.MaxRetry(3)}
}

// Trigger enqueues the task named name.
func (c *Client) Trigger(ctx context.Context, name, reason string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs: client not configured")
	}
	task, err := BuildTask(name, reason)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, c.EnqueueOptions()...)
}

// Close releases client resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
