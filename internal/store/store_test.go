package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-rater/internal/classifier"
	"doc-rater/internal/rubric"
	"doc-rater/internal/terms"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNumberedPlaceholders(t *testing.T) {
	assert.Equal(t, "UPDATE t SET a=?1, b=?2 WHERE id=?10", numberedPlaceholders("UPDATE t SET a=$1, b=$2 WHERE id=$10"))
	assert.Equal(t, "SELECT 1", numberedPlaceholders("SELECT 1"))
}

func TestSchemaIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, initSQLiteSchema(context.Background(), s.db))
}

func TestDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	doc, err := s.CreateDocument(ctx, NewDocument{Filename: "a.txt", MimeType: "text/plain", Content: []byte("hello")})
	require.NoError(t, err)
	assert.Equal(t, StatusUploaded, doc.Status)
	assert.EqualValues(t, 5, doc.SizeBytes)

	content, err := s.GetDocumentContent(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), content)

	require.NoError(t, s.UpdateDocumentStatus(ctx, doc.ID, StatusProcessing))
	require.NoError(t, s.SetPageCount(ctx, doc.ID, 3))

	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status)
	assert.Equal(t, 3, got.PageCount)
	assert.Equal(t, "a.txt", got.Filename)

	_, err = s.GetDocument(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.ErrorIs(t, s.UpdateDocumentStatus(ctx, uuid.New(), StatusFailed), ErrDocumentNotFound)
}

func TestChunksAndResults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	doc, err := s.CreateDocument(ctx, NewDocument{Filename: "a.txt", MimeType: "text/plain", Content: []byte("x")})
	require.NoError(t, err)

	saved, err := s.SaveChunks(ctx, doc.ID, []Chunk{
		{Index: 0, Text: "first", PageStart: 1, PageEnd: 1, TokenCount: 2},
		{Index: 1, Text: "second", PageStart: 1, PageEnd: 2, TokenCount: 2},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	chunks, err := s.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "second", chunks[1].Text)

	page := 2
	hate := 1
	// Saved out of order; listing follows chunk order.
	for _, c := range []Chunk{saved[1], saved[0]} {
		require.NoError(t, s.SaveChunkResult(ctx, ChunkResult{
			ChunkID:        c.ID,
			DocumentID:     doc.ID,
			Classification: classifier.Result{Violence: 0.4},
			Rubric: rubric.Mapping{
				ViolenceScore: 2,
				HateScore:     &hate,
				Evidence:      []rubric.Evidence{{Page: &page, Quote: "q", Category: "violence"}},
			},
			Terms: terms.Result{TotalCount: 1, ByCategory: map[string]int{"violence": 1}},
		}))
	}

	results, err := s.ListChunkResults(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].ChunkIndex)
	assert.Equal(t, 1, results[1].ChunkIndex)
	assert.Equal(t, 2, results[1].PageEnd)
	assert.InDelta(t, 0.4, results[0].Classification.Violence, 1e-9)
	assert.Equal(t, 2, results[0].Rubric.ViolenceScore)
	require.NotNil(t, results[0].Rubric.HateScore)
	assert.Equal(t, 1, *results[0].Rubric.HateScore)
	assert.Equal(t, 1, results[0].Terms.ByCategory["violence"])
}

func TestDocumentResult(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	doc, err := s.CreateDocument(ctx, NewDocument{Filename: "a.txt", MimeType: "text/plain", Content: []byte("x")})
	require.NoError(t, err)

	_, err = s.GetDocumentResult(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrResultNotFound)

	page := 4
	require.NoError(t, s.SaveDocumentResult(ctx, DocumentResult{
		DocumentID:    doc.ID,
		OverallRating: 3,
		AvgViolence:   2.5,
		Confidence:    0.7,
		Summary:       "moderate",
		Terms:         terms.Result{TotalCount: 2, ByCategory: map[string]int{"violence": 2}},
		Evidence:      []Excerpt{{ChunkIndex: 1, Page: &page, Quote: "q", Category: "violence"}},
	}))

	got, err := s.GetDocumentResult(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.OverallRating)
	assert.InDelta(t, 2.5, got.AvgViolence, 1e-9)
	assert.Equal(t, "moderate", got.Summary)
	assert.Equal(t, 2, got.Terms.TotalCount)
	require.Len(t, got.Evidence, 1)
	assert.Equal(t, 4, *got.Evidence[0].Page)
}

func TestJobs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	doc, err := s.CreateDocument(ctx, NewDocument{Filename: "a.txt", MimeType: "text/plain", Content: []byte("x")})
	require.NoError(t, err)

	started := time.Now().Add(-time.Minute)
	require.NoError(t, s.UpsertJob(ctx, Job{DocumentID: doc.ID, Stage: StageClassification, Status: JobRunning, Progress: 40, StartedAt: &started}))
	require.NoError(t, s.UpsertJob(ctx, Job{DocumentID: doc.ID, Stage: StageTextExtraction, Status: JobCompleted, Progress: 30}))
	require.NoError(t, s.UpsertJob(ctx, Job{DocumentID: doc.ID, Stage: StageClassification, Status: JobRunning, Progress: 60}))

	jobs, err := s.ListJobs(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, StageTextExtraction, jobs[0].Stage)
	assert.Equal(t, StageClassification, jobs[1].Stage)
	assert.Equal(t, 60, jobs[1].Progress)
	require.NotNil(t, jobs[1].StartedAt, "upsert keeps the first start time")

	require.NoError(t, s.FailRunningJobs(ctx, doc.ID, "classification failed: quota"))
	jobs, err = s.ListJobs(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, jobs[0].Status)
	assert.Empty(t, jobs[0].Error)
	assert.Equal(t, JobFailed, jobs[1].Status)
	assert.Equal(t, "classification failed: quota", jobs[1].Error)
	assert.NotNil(t, jobs[1].CompletedAt)
}

func TestTermLists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	active, err := s.ActiveTermLists(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = s.CreateTermList(ctx, TermList{Name: "gore", Category: "Violence", Terms: []string{"stab", "maim"}, Active: true})
	require.NoError(t, err)
	_, err = s.CreateTermList(ctx, TermList{Name: "weapons", Category: "Violence", Terms: []string{"rifle"}, Active: true})
	require.NoError(t, err)
	_, err = s.CreateTermList(ctx, TermList{Name: "old", Category: "drugs", Terms: []string{"opium"}, Active: false})
	require.NoError(t, err)

	all, err := s.ListTermLists(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "gore", all[0].Name)
	assert.Equal(t, []string{"stab", "maim"}, all[0].Terms)

	active, err = s.ActiveTermLists(ctx)
	require.NoError(t, err)
	assert.Equal(t, terms.Lists{"Violence": {"stab", "maim", "rifle"}}, active)
}

func TestUpdateAndDeleteTermList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	list, err := s.CreateTermList(ctx, TermList{Name: "gore", Category: "violence", Terms: []string{"stab"}, Active: true, Description: "v1"})
	require.NoError(t, err)

	off := false
	renamed := "gore v2"
	updated, err := s.UpdateTermList(ctx, list.ID, TermListUpdate{Name: &renamed, Terms: []string{"maim", "slash"}, Active: &off})
	require.NoError(t, err)
	assert.Equal(t, "gore v2", updated.Name)
	assert.Equal(t, "violence", updated.Category)
	assert.Equal(t, []string{"maim", "slash"}, updated.Terms)
	assert.False(t, updated.Active)
	assert.Equal(t, "v1", updated.Description, "unset fields are kept")

	active, err := s.ActiveTermLists(ctx)
	require.NoError(t, err)
	assert.Empty(t, active, "deactivated list is no longer scanned")

	all, err := s.ListTermLists(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, updated.Terms, all[0].Terms)

	_, err = s.UpdateTermList(ctx, uuid.New(), TermListUpdate{Active: &off})
	assert.ErrorIs(t, err, ErrTermListNotFound)

	require.NoError(t, s.DeleteTermList(ctx, list.ID))
	assert.ErrorIs(t, s.DeleteTermList(ctx, list.ID), ErrTermListNotFound)
	all, err = s.ListTermLists(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.ListDocuments(ctx, 50)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	rated, err := s.CreateDocument(ctx, NewDocument{Filename: "rated.txt", MimeType: "text/plain", Content: []byte("x")})
	require.NoError(t, err)
	require.NoError(t, s.SaveDocumentResult(ctx, DocumentResult{DocumentID: rated.ID, OverallRating: 4, Confidence: 0.9}))
	time.Sleep(10 * time.Millisecond)
	pending, err := s.CreateDocument(ctx, NewDocument{Filename: "pending.txt", MimeType: "text/plain", Content: []byte("y")})
	require.NoError(t, err)

	docs, err := s.ListDocuments(ctx, 50)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, pending.ID, docs[0].ID, "newest first")
	assert.Nil(t, docs[0].OverallRating)
	assert.Nil(t, docs[0].Confidence)
	assert.Equal(t, rated.ID, docs[1].ID)
	require.NotNil(t, docs[1].OverallRating)
	assert.Equal(t, 4, *docs[1].OverallRating)
	assert.InDelta(t, 0.9, *docs[1].Confidence, 1e-9)

	limited, err := s.ListDocuments(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
