package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskType enumerates supported task categories.
type TaskType string

const (
	TaskTypeProcess TaskType = "process"
)

// Task represents a unit of work handed from the gateway to the worker.
// A zero MaxAttempts means the queue's limit for the task type.
type Task struct {
	ID          uuid.UUID
	Type        TaskType
	Payload     []byte
	Attempts    int
	MaxAttempts int
	NotBefore   time.Time
}

// ProcessPayload asks the worker to rate one stored document. The raw bytes
// stay in the store so messages remain small.
type ProcessPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
}

// NewProcessTask builds the task that asks a worker to rate docID.
func NewProcessTask(docID uuid.UUID) (Task, error) {
	body, err := json.Marshal(ProcessPayload{DocumentID: docID})
	if err != nil {
		return Task{}, fmt.Errorf("marshal process payload: %w", err)
	}
	return Task{
		ID:      uuid.New(),
		Type:    TaskTypeProcess,
		Payload: body,
	}, nil
}

type Handler func(context.Context, Task) error

// Queue exposes a minimal contract to enqueue and consume tasks.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Worker(ctx context.Context, taskType TaskType, handler Handler) error
	Close() error
}

// EnqueueWithRetry attempts to enqueue with retries and exponential backoff.
func EnqueueWithRetry(ctx context.Context, q Queue, task Task, attempts int, base time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if err := q.Enqueue(ctx, task); err == nil {
			return nil
		} else if attempt == attempts-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ExponentialBackoff(attempt, base)):
		}
	}
	return nil
}

// ExponentialBackoff returns base * 2^attempt.
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	return base * (1 << attempt)
}
