// Package redis tracks ingestion task state in Redis and announces finished tasks.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/domain/posting"
)

const (
	// CompletedChannel receives the JSON task once it reaches a terminal state
	CompletedChannel = "ingestion.completed"

	defaultTTL = 24 * time.Hour
	keyPrefix  = "ingestion:task:"
)

var _ posting.TaskTracker = (*TaskTracker)(nil)

// TaskTracker implements posting.TaskTracker with expiring keys. Terminal
// states are also published on CompletedChannel for external consumers.
type TaskTracker struct {
	rdb *redis.Client
	ttl time.Duration
}

// Option configures TaskTracker
type Option func(*TaskTracker)

// WithTTL sets how long task state is kept
func WithTTL(ttl time.Duration) Option {
	return func(t *TaskTracker) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// NewTaskTracker wraps a connected client
func NewTaskTracker(rdb *redis.Client, opts ...Option) *TaskTracker {
	t := &TaskTracker{rdb: rdb, ttl: defaultTTL}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TaskTracker) Save(ctx context.Context, task domain.IngestionTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("redis: marshal task: %w", err)
	}

	pipe := t.rdb.TxPipeline()
	pipe.Set(ctx, key(task.ID), payload, t.ttl)
	if task.Status == domain.TaskCompleted || task.Status == domain.TaskFailed {
		pipe.Publish(ctx, CompletedChannel, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: save task %s: %w", task.ID, err)
	}
	return nil
}

func (t *TaskTracker) Get(ctx context.Context, id uuid.UUID) (domain.IngestionTask, error) {
	payload, err := t.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.IngestionTask{}, posting.ErrTaskNotFound
	}
	if err != nil {
		return domain.IngestionTask{}, fmt.Errorf("redis: get task %s: %w", id, err)
	}

	var task domain.IngestionTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return domain.IngestionTask{}, fmt.Errorf("redis: decode task %s: %w", id, err)
	}
	return task, nil
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}
