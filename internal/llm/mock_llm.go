package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockReasoner is a mock implementation of Reasoner using testify/mock.
type MockReasoner struct {
	mock.Mock
}

func (m *MockReasoner) Complete(ctx context.Context, req Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockReasoner) Name() string {
	return "mock"
}
