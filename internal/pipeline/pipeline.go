// Package pipeline runs a document through extraction, per-chunk analysis and
// aggregation, recording job progress as it goes.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"doc-rater/internal/chunker"
	"doc-rater/internal/classifier"
	"doc-rater/internal/extract"
	"doc-rater/internal/rubric"
	"doc-rater/internal/store"
	"doc-rater/internal/terms"
)

// Progress checkpoints per stage.
const (
	progressExtractStart   = 10
	progressExtractDone    = 30
	progressClassifyStart  = 40
	progressClassifyDone   = 80
	progressAggregateStart = 85
	progressAggregateDone  = 100

	failureBookkeepingTimeout = 10 * time.Second
)

// Request is one document to process.
type Request struct {
	DocumentID uuid.UUID
	Content    []byte
	MimeType   string
}

// Options tunes extraction and chunking.
type Options struct {
	Chunking chunker.Options
	Extract  extract.Options
}

// Orchestrator sequences the pipeline stages for a single document at a time.
// It holds no per-document state, so one instance serves concurrent runs.
type Orchestrator struct {
	store      store.Store
	classifier classifier.Classifier
	mapper     rubric.Mapper
	terms      terms.Source
	opts       Options
	log        *slog.Logger
}

func NewOrchestrator(st store.Store, c classifier.Classifier, m rubric.Mapper, src terms.Source, opts Options, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if src == nil {
		src = terms.NewStaticSource(nil)
	}
	return &Orchestrator{store: st, classifier: c, mapper: m, terms: src, opts: opts, log: log}
}

// Process runs every stage for req. On failure the document and any running
// job are marked FAILED before the error is returned.
func (o *Orchestrator) Process(ctx context.Context, req Request) error {
	log := o.log.With("document_id", req.DocumentID)
	log.Info("processing started", "mime_type", req.MimeType, "bytes", len(req.Content))
	start := time.Now()

	if err := o.run(ctx, req, log); err != nil {
		o.fail(ctx, req.DocumentID, err, log)
		return err
	}
	log.Info("processing completed", "duration", time.Since(start))
	return nil
}

func (o *Orchestrator) run(ctx context.Context, req Request, log *slog.Logger) error {
	docID := req.DocumentID
	if err := o.store.UpdateDocumentStatus(ctx, docID, store.StatusProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	if err := o.extractStage(ctx, req, log); err != nil {
		return err
	}

	lists, err := o.terms.Load(ctx)
	if err != nil {
		return err
	}
	scanner := terms.NewScanner(lists)

	if err := o.classifyStage(ctx, docID, scanner, log); err != nil {
		return err
	}
	return o.aggregateStage(ctx, docID, log)
}

func (o *Orchestrator) extractStage(ctx context.Context, req Request, log *slog.Logger) error {
	docID := req.DocumentID
	if err := o.startJob(ctx, docID, store.StageTextExtraction, progressExtractStart); err != nil {
		return err
	}

	res, err := extract.Extract(req.Content, req.MimeType, o.opts.Extract)
	if err != nil {
		return err
	}
	if err := o.store.SetPageCount(ctx, docID, res.PageCount); err != nil {
		return fmt.Errorf("save page count: %w", err)
	}

	pieces := chunker.ChunkText(res.Text, o.opts.Chunking)
	chunks := make([]store.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = store.Chunk{
			Index:      p.Index,
			Text:       p.Text,
			PageStart:  p.PageStart,
			PageEnd:    p.PageEnd,
			TokenCount: p.TokenCount,
		}
	}
	if _, err := o.store.SaveChunks(ctx, docID, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	log.Info("text extracted", "pages", res.PageCount, "chunks", len(chunks))

	return o.completeJob(ctx, docID, store.StageTextExtraction, progressExtractDone)
}

func (o *Orchestrator) classifyStage(ctx context.Context, docID uuid.UUID, scanner *terms.Scanner, log *slog.Logger) error {
	if err := o.startJob(ctx, docID, store.StageClassification, progressClassifyStart); err != nil {
		return err
	}

	chunks, err := o.store.ListChunks(ctx, docID)
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}

	total := len(chunks)
	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled before chunk %d: %w", c.Index, err)
		}

		scores, err := o.classifier.Classify(ctx, c.Text)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", c.Index, err)
		}
		mapping, err := o.mapper.MapToRubric(ctx, scores, c.Text, &rubric.PageRange{Start: c.PageStart, End: c.PageEnd})
		if err != nil {
			return fmt.Errorf("chunk %d: %w", c.Index, err)
		}
		page := c.PageStart
		counts := scanner.Count(c.Text, &page)

		if err := o.store.SaveChunkResult(ctx, store.ChunkResult{
			ChunkID:        c.ID,
			DocumentID:     docID,
			Classification: scores,
			Rubric:         mapping,
			Terms:          counts,
		}); err != nil {
			return fmt.Errorf("save result for chunk %d: %w", c.Index, err)
		}
		if mapping.MinorsOverride {
			log.Warn("minors override applied", "chunk", c.Index)
		}

		progress := progressClassifyStart + (progressClassifyDone-progressClassifyStart)*(i+1)/total
		if err := o.store.UpsertJob(ctx, store.Job{
			DocumentID: docID,
			Stage:      store.StageClassification,
			Status:     store.JobRunning,
			Progress:   progress,
		}); err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
		log.Debug("chunk analyzed", "chunk", c.Index, "of", total, "terms", counts.TotalCount)
	}

	return o.completeJob(ctx, docID, store.StageClassification, progressClassifyDone)
}

func (o *Orchestrator) aggregateStage(ctx context.Context, docID uuid.UUID, log *slog.Logger) error {
	if err := o.startJob(ctx, docID, store.StageAggregation, progressAggregateStart); err != nil {
		return err
	}

	results, err := o.store.ListChunkResults(ctx, docID)
	if err != nil {
		return &AggregationError{Cause: fmt.Errorf("list chunk results: %w", err)}
	}
	verdict, err := o.aggregate(ctx, docID, results)
	if err != nil {
		return err
	}
	if err := o.store.SaveDocumentResult(ctx, verdict); err != nil {
		return fmt.Errorf("save document result: %w", err)
	}
	if err := o.completeJob(ctx, docID, store.StageAggregation, progressAggregateDone); err != nil {
		return err
	}
	if err := o.store.UpdateDocumentStatus(ctx, docID, store.StatusCompleted); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	log.Info("document rated", "overall_rating", verdict.OverallRating, "confidence", verdict.Confidence)
	return nil
}

func (o *Orchestrator) startJob(ctx context.Context, docID uuid.UUID, stage store.JobStage, progress int) error {
	started := time.Now().UTC()
	err := o.store.UpsertJob(ctx, store.Job{
		DocumentID: docID,
		Stage:      stage,
		Status:     store.JobRunning,
		Progress:   progress,
		StartedAt:  &started,
	})
	if err != nil {
		return fmt.Errorf("start %s: %w", stage, err)
	}
	o.log.Debug("stage started", "document_id", docID, "stage", stage)
	return nil
}

func (o *Orchestrator) completeJob(ctx context.Context, docID uuid.UUID, stage store.JobStage, progress int) error {
	done := time.Now().UTC()
	err := o.store.UpsertJob(ctx, store.Job{
		DocumentID:  docID,
		Stage:       stage,
		Status:      store.JobCompleted,
		Progress:    progress,
		CompletedAt: &done,
	})
	if err != nil {
		return fmt.Errorf("complete %s: %w", stage, err)
	}
	return nil
}

// fail records the failure on a context detached from ctx so a cancelled or
// timed-out run is still marked FAILED.
func (o *Orchestrator) fail(ctx context.Context, docID uuid.UUID, cause error, log *slog.Logger) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureBookkeepingTimeout)
	defer cancel()

	log.Error("processing failed", "err", cause)
	if err := o.store.UpdateDocumentStatus(fctx, docID, store.StatusFailed); err != nil {
		log.Error("failed to mark document failed", "err", err)
	}
	if err := o.store.FailRunningJobs(fctx, docID, cause.Error()); err != nil {
		log.Error("failed to mark jobs failed", "err", err)
	}
}
