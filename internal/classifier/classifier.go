package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result is the normalised moderation vector for one piece of text.
// All scores are in [0,1]; categories missing upstream are 0.
type Result struct {
	Sexual          float64         `json:"sexual"`
	Violence        float64         `json:"violence"`
	Hate            float64         `json:"hate"`
	SelfHarm        float64         `json:"selfHarm"`
	SexualMinors    float64         `json:"sexualMinors"`
	ViolenceGraphic float64         `json:"violenceGraphic"`
	Raw             json.RawMessage `json:"rawResponse,omitempty"`
}

// Classifier scores text against the moderation categories.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// Error reports a failed upstream classification call.
type Error struct {
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("classification failed: %v", e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

const (
	BatchSize  = 5
	BatchPause = 100 * time.Millisecond
)

// ClassifyBatch classifies texts in concurrent groups of BatchSize, pausing
// between groups. Results are returned in input order; the first error aborts.
func ClassifyBatch(ctx context.Context, c Classifier, texts []string) ([]Result, error) {
	results := make([]Result, len(texts))
	for start := 0; start < len(texts); start += BatchSize {
		end := start + BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				res, err := c.Classify(gctx, texts[i])
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if end < len(texts) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(BatchPause):
			}
		}
	}
	return results, nil
}

// ScoreToRating buckets a [0,1] score onto the 0-5 scale.
func ScoreToRating(score float64) int {
	switch {
	case score < 0.1:
		return 0
	case score < 0.3:
		return 1
	case score < 0.5:
		return 2
	case score < 0.7:
		return 3
	case score < 0.9:
		return 4
	default:
		return 5
	}
}
