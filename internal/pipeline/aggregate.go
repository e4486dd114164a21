package pipeline

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"doc-rater/internal/rubric"
	"doc-rater/internal/store"
	"doc-rater/internal/terms"
)

const (
	MaxEvidence         = 10
	MaxEvidencePerChunk = 2
)

// AggregationError reports a document verdict that could not be produced:
// unreadable chunk results, a failed or malformed model reply, or an
// out-of-range verdict.
type AggregationError struct {
	Cause error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation failed: %v", e.Cause)
}

func (e *AggregationError) Unwrap() error { return e.Cause }

// verdict mirrors the model-produced part of a DocumentResult with its ranges.
type verdict struct {
	OverallRating    int     `validate:"gte=0,lte=5"`
	AvgViolence      float64 `validate:"gte=0,lte=5"`
	AvgSexualContent float64 `validate:"gte=0,lte=5"`
	AvgProfanity     float64 `validate:"gte=0,lte=5"`
	AvgHate          float64 `validate:"gte=0,lte=5"`
	AvgSelfHarm      float64 `validate:"gte=0,lte=5"`
	Confidence       float64 `validate:"gte=0,lte=1"`
	Evidence         int     `validate:"lte=10"`
	TermTotal        int     `validate:"gte=0"`
}

var validate = validator.New()

// aggregate folds chunk results into the document result.
func (o *Orchestrator) aggregate(ctx context.Context, docID uuid.UUID, results []store.ChunkResult) (store.DocumentResult, error) {
	mappings := make([]rubric.Mapping, len(results))
	counts := make([]terms.Result, len(results))
	for i, r := range results {
		mappings[i] = r.Rubric
		counts[i] = r.Terms
	}

	agg, err := o.mapper.AggregateRubrics(ctx, mappings)
	if err != nil {
		return store.DocumentResult{}, &AggregationError{Cause: fmt.Errorf("aggregate rubrics: %w", err)}
	}

	res := store.DocumentResult{
		DocumentID:       docID,
		OverallRating:    agg.OverallRating,
		AvgViolence:      agg.AvgViolence,
		AvgSexualContent: agg.AvgSexualContent,
		AvgProfanity:     agg.AvgProfanity,
		AvgHate:          agg.AvgHate,
		AvgSelfHarm:      agg.AvgSelfHarm,
		Confidence:       agg.Confidence,
		Summary:          agg.Summary,
		Terms:            terms.AggregateTermCounts(counts),
		Evidence:         CollectEvidence(results),
	}
	if err := validateResult(res); err != nil {
		return store.DocumentResult{}, err
	}
	return res, nil
}

func validateResult(res store.DocumentResult) error {
	v := verdict{
		OverallRating:    res.OverallRating,
		AvgViolence:      res.AvgViolence,
		AvgSexualContent: res.AvgSexualContent,
		AvgProfanity:     res.AvgProfanity,
		AvgHate:          res.AvgHate,
		AvgSelfHarm:      res.AvgSelfHarm,
		Confidence:       res.Confidence,
		Evidence:         len(res.Evidence),
		TermTotal:        res.Terms.TotalCount,
	}
	if err := validate.Struct(v); err != nil {
		return &AggregationError{Cause: err}
	}
	return nil
}

// CollectEvidence takes up to MaxEvidencePerChunk quotes from each chunk,
// earliest chunks first, stopping at MaxEvidence. A quote without a page gets
// the chunk's start page.
func CollectEvidence(results []store.ChunkResult) []store.Excerpt {
	out := []store.Excerpt{}
	for _, r := range results {
		for i, ev := range r.Rubric.Evidence {
			if i == MaxEvidencePerChunk || len(out) == MaxEvidence {
				break
			}
			page := r.PageStart
			if ev.Page != nil {
				page = *ev.Page
			}
			out = append(out, store.Excerpt{
				ChunkIndex: r.ChunkIndex,
				Page:       &page,
				Quote:      ev.Quote,
				Category:   ev.Category,
			})
		}
		if len(out) == MaxEvidence {
			break
		}
	}
	return out
}
