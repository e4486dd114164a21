// Package rubric maps moderation scores onto the 0-5 rating scale with a
// reasoning model and folds chunk mappings into one document rating.
package rubric

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"doc-rater/internal/cache"
	"doc-rater/internal/classifier"
	"doc-rater/internal/llm"
)

const (
	// MinorsThreshold is the sexual/minors score above which sexual content is forced to 5.
	MinorsThreshold = 0.5
	MinorsRationale = " [AUTO-RATED 5: Sexual content involving minors detected]"

	MaxEvidencePerMapping = 5
)

// PageRange is the estimated page span of a chunk.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Evidence is a quote the model cited for a category.
type Evidence struct {
	Page     *int   `json:"page,omitempty"`
	Quote    string `json:"quote"`
	Category string `json:"category"`
}

// Mapping is the rubric rating of a single chunk.
type Mapping struct {
	ViolenceScore      int        `json:"violenceScore"`
	SexualContentScore int        `json:"sexualContentScore"`
	ProfanityScore     int        `json:"profanityScore"`
	HateScore          *int       `json:"hateScore,omitempty"`
	SelfHarmScore      *int       `json:"selfHarmScore,omitempty"`
	Rationale          string     `json:"rationale"`
	Confidence         float64    `json:"confidence"`
	Evidence           []Evidence `json:"evidence"`
	MinorsOverride     bool       `json:"minorsOverride"`
}

// Aggregate is the document-level rubric rating.
type Aggregate struct {
	OverallRating    int     `json:"overallRating"`
	AvgViolence      float64 `json:"avgViolence"`
	AvgSexualContent float64 `json:"avgSexualContent"`
	AvgProfanity     float64 `json:"avgProfanity"`
	AvgHate          float64 `json:"avgHate"`
	AvgSelfHarm      float64 `json:"avgSelfHarm"`
	Confidence       float64 `json:"confidence"`
	Summary          string  `json:"summary"`
}

// Mapper rates chunks and aggregates their ratings.
type Mapper interface {
	MapToRubric(ctx context.Context, scores classifier.Result, textSample string, pages *PageRange) (Mapping, error)
	AggregateRubrics(ctx context.Context, mappings []Mapping) (Aggregate, error)
}

// LLMMapper implements Mapper on top of a Reasoner, caching raw replies.
type LLMMapper struct {
	reasoner llm.Reasoner
	cache    cache.Cache
	ttl      time.Duration
	log      *slog.Logger
}

// NewLLMMapper builds a mapper. A nil cache disables reply caching.
func NewLLMMapper(reasoner llm.Reasoner, c cache.Cache, ttl time.Duration, log *slog.Logger) *LLMMapper {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if log == nil {
		log = slog.Default()
	}
	return &LLMMapper{reasoner: reasoner, cache: c, ttl: ttl, log: log}
}

type scorePayload struct {
	Sexual          float64 `json:"sexual"`
	Violence        float64 `json:"violence"`
	Hate            float64 `json:"hate"`
	SelfHarm        float64 `json:"selfHarm"`
	SexualMinors    float64 `json:"sexualMinors"`
	ViolenceGraphic float64 `json:"violenceGraphic"`
}

type mappingPayload struct {
	ClassificationScores scorePayload `json:"classification_scores"`
	TextSample           string       `json:"text_sample"`
	PageInfo             *PageRange   `json:"page_info,omitempty"`
}

type aggregationPayload struct {
	ChunkResults []Mapping `json:"chunk_results"`
	Task         string    `json:"task"`
}

func (m *LLMMapper) MapToRubric(ctx context.Context, scores classifier.Result, textSample string, pages *PageRange) (Mapping, error) {
	payload, err := json.MarshalIndent(mappingPayload{
		ClassificationScores: scorePayload{
			Sexual:          scores.Sexual,
			Violence:        scores.Violence,
			Hate:            scores.Hate,
			SelfHarm:        scores.SelfHarm,
			SexualMinors:    scores.SexualMinors,
			ViolenceGraphic: scores.ViolenceGraphic,
		},
		TextSample: truncateRunes(textSample, textSampleRunes),
		PageInfo:   pages,
	}, "", "  ")
	if err != nil {
		return Mapping{}, fmt.Errorf("marshal mapping payload: %w", err)
	}

	var mapping Mapping
	err = m.complete(ctx, "map", llm.Request{
		System:    mappingPrompt,
		User:      string(payload),
		MaxTokens: mappingMaxTokens,
	}, func(reply string) error {
		var perr error
		mapping, perr = parseMapping(reply)
		return perr
	})
	if err != nil {
		return Mapping{}, err
	}
	return ApplyMinorsOverride(mapping, scores), nil
}

func (m *LLMMapper) AggregateRubrics(ctx context.Context, mappings []Mapping) (Aggregate, error) {
	if mappings == nil {
		mappings = []Mapping{}
	}
	payload, err := json.MarshalIndent(aggregationPayload{ChunkResults: mappings, Task: aggregationTask}, "", "  ")
	if err != nil {
		return Aggregate{}, fmt.Errorf("marshal aggregation payload: %w", err)
	}

	var agg Aggregate
	err = m.complete(ctx, "aggregate", llm.Request{
		System:    aggregationPrompt,
		User:      string(payload),
		MaxTokens: aggregationMaxTokens,
	}, func(reply string) error {
		var perr error
		agg, perr = parseAggregate(reply)
		return perr
	})
	if err != nil {
		return Aggregate{}, err
	}
	for _, mp := range mappings {
		if mp.MinorsOverride {
			agg.OverallRating = 5
			break
		}
	}
	return agg, nil
}

// complete serves the request from cache when possible, otherwise calls the
// reasoner and caches the reply once parse accepts it.
func (m *LLMMapper) complete(ctx context.Context, kind string, req llm.Request, parse func(string) error) error {
	key := cache.Key(m.reasoner.Name(), promptVersion, kind, req.User)

	cached, hit, err := m.cache.GetReply(ctx, key)
	if err != nil {
		m.log.Warn("rubric cache lookup failed", "kind", kind, "err", err)
	}
	if hit {
		if perr := parse(cached); perr == nil {
			m.log.Debug("rubric cache hit", "kind", kind)
			return nil
		}
		m.log.Warn("cached rubric reply unparseable, calling model", "kind", kind)
	}

	reply, err := m.reasoner.Complete(ctx, req)
	if err != nil {
		return fmt.Errorf("rubric %s: %w", kind, err)
	}
	if err := parse(reply); err != nil {
		return err
	}
	if err := m.cache.SetReply(ctx, key, reply, m.ttl); err != nil {
		m.log.Warn("failed to cache rubric reply", "kind", kind, "err", err)
	}
	return nil
}

// ApplyMinorsOverride forces the sexual content score to 5 when the
// sexual/minors score exceeds MinorsThreshold.
func ApplyMinorsOverride(m Mapping, scores classifier.Result) Mapping {
	if scores.SexualMinors > MinorsThreshold {
		m.SexualContentScore = 5
		m.MinorsOverride = true
		m.Rationale += MinorsRationale
	}
	return m
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
