package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"doc-rater/internal/classifier"
	"doc-rater/internal/rubric"
	"doc-rater/internal/terms"
)

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "UPLOADED"
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusCompleted  DocumentStatus = "COMPLETED"
	StatusFailed     DocumentStatus = "FAILED"
)

type JobStage string

const (
	StageTextExtraction JobStage = "TEXT_EXTRACTION"
	StageClassification JobStage = "CLASSIFICATION"
	StageAggregation    JobStage = "AGGREGATION"
)

type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrResultNotFound   = errors.New("document result not found")
	ErrTermListNotFound = errors.New("term list not found")
)

type Document struct {
	ID        uuid.UUID      `json:"id"`
	Filename  string         `json:"filename"`
	MimeType  string         `json:"mimeType"`
	SizeBytes int64          `json:"sizeBytes"`
	PageCount int            `json:"pageCount"`
	Status    DocumentStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// NewDocument is an upload about to be persisted.
type NewDocument struct {
	Filename string
	MimeType string
	Content  []byte
}

type Chunk struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Index      int
	Text       string
	PageStart  int
	PageEnd    int
	TokenCount int
}

// ChunkResult is the per-chunk analysis output. ChunkIndex and the page span
// are read back from the chunk row.
type ChunkResult struct {
	ChunkID        uuid.UUID
	DocumentID     uuid.UUID
	ChunkIndex     int
	PageStart      int
	PageEnd        int
	Classification classifier.Result
	Rubric         rubric.Mapping
	Terms          terms.Result
	CreatedAt      time.Time
}

// Excerpt is one evidence quote surfaced on the document result.
type Excerpt struct {
	ChunkIndex int    `json:"chunkIndex"`
	Page       *int   `json:"page,omitempty"`
	Quote      string `json:"quote"`
	Category   string `json:"category"`
}

type DocumentResult struct {
	DocumentID       uuid.UUID    `json:"documentId"`
	OverallRating    int          `json:"overallRating"`
	AvgViolence      float64      `json:"avgViolence"`
	AvgSexualContent float64      `json:"avgSexualContent"`
	AvgProfanity     float64      `json:"avgProfanity"`
	AvgHate          float64      `json:"avgHate"`
	AvgSelfHarm      float64      `json:"avgSelfHarm"`
	Confidence       float64      `json:"confidence"`
	Summary          string       `json:"summary"`
	Terms            terms.Result `json:"terms"`
	Evidence         []Excerpt    `json:"evidence"`
	CreatedAt        time.Time    `json:"createdAt"`
}

type Job struct {
	ID          uuid.UUID  `json:"id"`
	DocumentID  uuid.UUID  `json:"documentId"`
	Stage       JobStage   `json:"stage"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// DocumentSummary is a document row with its verdict, when one exists.
type DocumentSummary struct {
	Document
	OverallRating *int     `json:"overallRating,omitempty"`
	Confidence    *float64 `json:"confidence,omitempty"`
}

// TermListUpdate changes the fields that are set; nil fields are left alone.
type TermListUpdate struct {
	Name        *string
	Terms       []string
	Active      *bool
	Description *string
}

type TermList struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Terms       []string  `json:"terms"`
	Active      bool      `json:"active"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store defines the persistence contract shared by the Postgres and SQLite backends.
type Store interface {
	CreateDocument(ctx context.Context, doc NewDocument) (Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (Document, error)
	GetDocumentContent(ctx context.Context, id uuid.UUID) ([]byte, error)
	// ListDocuments returns the newest documents first, at most limit of them.
	ListDocuments(ctx context.Context, limit int) ([]DocumentSummary, error)
	UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error
	SetPageCount(ctx context.Context, id uuid.UUID, pages int) error

	SaveChunks(ctx context.Context, docID uuid.UUID, chunks []Chunk) ([]Chunk, error)
	ListChunks(ctx context.Context, docID uuid.UUID) ([]Chunk, error)
	SaveChunkResult(ctx context.Context, res ChunkResult) error
	ListChunkResults(ctx context.Context, docID uuid.UUID) ([]ChunkResult, error)

	SaveDocumentResult(ctx context.Context, res DocumentResult) error
	GetDocumentResult(ctx context.Context, docID uuid.UUID) (DocumentResult, error)

	// UpsertJob creates or updates the job for (DocumentID, Stage).
	UpsertJob(ctx context.Context, job Job) error
	// FailRunningJobs marks every RUNNING job of the document FAILED with msg.
	FailRunningJobs(ctx context.Context, docID uuid.UUID, msg string) error
	ListJobs(ctx context.Context, docID uuid.UUID) ([]Job, error)

	ActiveTermLists(ctx context.Context) (terms.Lists, error)
	CreateTermList(ctx context.Context, list TermList) (TermList, error)
	ListTermLists(ctx context.Context) ([]TermList, error)
	UpdateTermList(ctx context.Context, id uuid.UUID, upd TermListUpdate) (TermList, error)
	DeleteTermList(ctx context.Context, id uuid.UUID) error

	Close() error
}
