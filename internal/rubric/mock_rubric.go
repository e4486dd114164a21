package rubric

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doc-rater/internal/classifier"
)

// MockMapper is a mock implementation of Mapper using testify/mock.
type MockMapper struct {
	mock.Mock
}

func (m *MockMapper) MapToRubric(ctx context.Context, scores classifier.Result, textSample string, pages *PageRange) (Mapping, error) {
	args := m.Called(ctx, scores, textSample, pages)
	return args.Get(0).(Mapping), args.Error(1)
}

func (m *MockMapper) AggregateRubrics(ctx context.Context, mappings []Mapping) (Aggregate, error) {
	args := m.Called(ctx, mappings)
	return args.Get(0).(Aggregate), args.Error(1)
}
