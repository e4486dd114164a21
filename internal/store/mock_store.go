package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"doc-rater/internal/terms"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateDocument(ctx context.Context, doc NewDocument) (Document, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(Document), args.Error(1)
}

func (m *MockStore) GetDocument(ctx context.Context, id uuid.UUID) (Document, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Document), args.Error(1)
}

func (m *MockStore) GetDocumentContent(ctx context.Context, id uuid.UUID) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStore) ListDocuments(ctx context.Context, limit int) ([]DocumentSummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]DocumentSummary), args.Error(1)
}

func (m *MockStore) UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStore) SetPageCount(ctx context.Context, id uuid.UUID, pages int) error {
	args := m.Called(ctx, id, pages)
	return args.Error(0)
}

func (m *MockStore) SaveChunks(ctx context.Context, docID uuid.UUID, chunks []Chunk) ([]Chunk, error) {
	args := m.Called(ctx, docID, chunks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Chunk), args.Error(1)
}

func (m *MockStore) ListChunks(ctx context.Context, docID uuid.UUID) ([]Chunk, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Chunk), args.Error(1)
}

func (m *MockStore) SaveChunkResult(ctx context.Context, res ChunkResult) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockStore) ListChunkResults(ctx context.Context, docID uuid.UUID) ([]ChunkResult, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ChunkResult), args.Error(1)
}

func (m *MockStore) SaveDocumentResult(ctx context.Context, res DocumentResult) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockStore) GetDocumentResult(ctx context.Context, docID uuid.UUID) (DocumentResult, error) {
	args := m.Called(ctx, docID)
	return args.Get(0).(DocumentResult), args.Error(1)
}

func (m *MockStore) UpsertJob(ctx context.Context, job Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockStore) FailRunningJobs(ctx context.Context, docID uuid.UUID, msg string) error {
	args := m.Called(ctx, docID, msg)
	return args.Error(0)
}

func (m *MockStore) ListJobs(ctx context.Context, docID uuid.UUID) ([]Job, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Job), args.Error(1)
}

func (m *MockStore) ActiveTermLists(ctx context.Context) (terms.Lists, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(terms.Lists), args.Error(1)
}

func (m *MockStore) CreateTermList(ctx context.Context, list TermList) (TermList, error) {
	args := m.Called(ctx, list)
	return args.Get(0).(TermList), args.Error(1)
}

func (m *MockStore) ListTermLists(ctx context.Context) ([]TermList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]TermList), args.Error(1)
}

func (m *MockStore) UpdateTermList(ctx context.Context, id uuid.UUID, upd TermListUpdate) (TermList, error) {
	args := m.Called(ctx, id, upd)
	return args.Get(0).(TermList), args.Error(1)
}

func (m *MockStore) DeleteTermList(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}
