package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	base := 100 * time.Millisecond

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1600 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ExponentialBackoff(tt.attempt, base), "attempt %d", tt.attempt)
	}
	assert.Equal(t, 4*time.Second, ExponentialBackoff(2, time.Second))
}

func TestNewProcessTask(t *testing.T) {
	docID := uuid.New()
	task, err := NewProcessTask(docID)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeProcess, task.Type)
	assert.Equal(t, 1, maxAttempts(task), "process tasks are delivered once")
	assert.NotEqual(t, uuid.Nil, task.ID)

	var payload ProcessPayload
	require.NoError(t, json.Unmarshal(task.Payload, &payload))
	assert.Equal(t, docID, payload.DocumentID)
}

func TestEnqueueWithRetrySucceedsAfterFailures(t *testing.T) {
	q := new(MockQueue)
	task := Task{Type: TaskTypeProcess}
	q.On("Enqueue", mock.Anything, task).Return(errors.New("no responders")).Twice()
	q.On("Enqueue", mock.Anything, task).Return(nil).Once()

	require.NoError(t, EnqueueWithRetry(context.Background(), q, task, 3, time.Millisecond))
	q.AssertNumberOfCalls(t, "Enqueue", 3)
}

func TestEnqueueWithRetryReturnsLastError(t *testing.T) {
	q := new(MockQueue)
	boom := errors.New("connection closed")
	q.On("Enqueue", mock.Anything, mock.Anything).Return(boom)

	err := EnqueueWithRetry(context.Background(), q, Task{Type: TaskTypeProcess}, 2, time.Millisecond)
	assert.ErrorIs(t, err, boom)
	q.AssertNumberOfCalls(t, "Enqueue", 2)
}

func TestEnqueueWithRetryStopsOnCancel(t *testing.T) {
	q := new(MockQueue)
	q.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("down"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := EnqueueWithRetry(ctx, q, Task{Type: TaskTypeProcess}, 5, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	q.AssertNumberOfCalls(t, "Enqueue", 1)
}

func TestRedelivery(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name          string
		task          Task
		wantRedeliver bool
		wantAttempts  int
		wantMax       int
		wantNotBefore time.Time
	}{
		{
			name:         "process task is never redelivered",
			task:         Task{Type: TaskTypeProcess},
			wantAttempts: 1,
			wantMax:      1,
		},
		{
			name:          "unknown type uses the default limit",
			task:          Task{Type: "reindex"},
			wantRedeliver: true,
			wantAttempts:  1,
			wantMax:       defaultMaxAttempts,
			wantNotBefore: now.Add(2 * time.Second),
		},
		{
			name:          "explicit limit wins over the type limit",
			task:          Task{Type: TaskTypeProcess, MaxAttempts: 3, Attempts: 1},
			wantRedeliver: true,
			wantAttempts:  2,
			wantMax:       3,
			wantNotBefore: now.Add(4 * time.Second),
		},
		{
			name:         "last attempt used",
			task:         Task{Type: "reindex", MaxAttempts: 3, Attempts: 2},
			wantAttempts: 3,
			wantMax:      3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := redelivery(tt.task, now)
			assert.Equal(t, tt.wantRedeliver, ok)
			assert.Equal(t, tt.wantAttempts, next.Attempts)
			assert.Equal(t, tt.wantMax, next.MaxAttempts)
			if tt.wantRedeliver {
				assert.Equal(t, tt.wantNotBefore, next.NotBefore)
			}
		})
	}
}

func TestNATSSubjects(t *testing.T) {
	assert.Equal(t, "tasks.process", subjectFor(TaskTypeProcess))
	assert.Equal(t, "workers-process", groupFor(TaskTypeProcess))
}

func TestNATSCloseWithoutConnection(t *testing.T) {
	assert.NoError(t, (&NATSQueue{}).Close())
}

func TestEnqueueRejectsUntypedTask(t *testing.T) {
	assert.Error(t, (&NATSQueue{}).Enqueue(context.Background(), Task{}))
}
