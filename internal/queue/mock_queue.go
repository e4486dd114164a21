package queue

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockQueue records enqueued rating tasks for handler tests.
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, task Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockQueue) Worker(ctx context.Context, taskType TaskType, handler Handler) error {
	args := m.Called(ctx, taskType, handler)
	return args.Error(0)
}

func (m *MockQueue) Close() error {
	return m.Called().Error(0)
}

// Compile-time check.
var _ Queue = (*MockQueue)(nil)
