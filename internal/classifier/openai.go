package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"
)

const defaultModerationTimeout = 30 * time.Second

// OpenAIModerator calls the OpenAI moderation endpoint.
type OpenAIModerator struct {
	model   openai.ModerationModel
	client  *openai.Client
	limiter *rate.Limiter
}

// NewOpenAIModerator builds a moderator. A positive rps throttles outgoing calls.
func NewOpenAIModerator(apiKey string, model openai.ModerationModel, rps float64, opts ...option.RequestOption) (*OpenAIModerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.ModerationModelOmniModerationLatest
	}
	cli := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	m := &OpenAIModerator{model: model, client: &cli}
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		m.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return m, nil
}

func (m *OpenAIModerator) Classify(ctx context.Context, text string) (Result, error) {
	if m == nil || m.client == nil {
		return Result{}, &Error{Cause: errors.New("nil openai client")}
	}
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return Result{}, &Error{Cause: err}
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, defaultModerationTimeout)
	defer cancel()
	resp, err := m.client.Moderations.New(reqCtx, openai.ModerationNewParams{
		Model: m.model,
		Input: openai.ModerationNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return Result{}, &Error{Cause: err}
	}
	if len(resp.Results) == 0 {
		return Result{}, &Error{Cause: errors.New("openai: no moderation results returned")}
	}

	first := resp.Results[0]
	scores := first.CategoryScores
	res := Result{
		Sexual:          scores.Sexual,
		Violence:        scores.Violence,
		Hate:            scores.Hate,
		SelfHarm:        scores.SelfHarm,
		SexualMinors:    scores.SexualMinors,
		ViolenceGraphic: scores.ViolenceGraphic,
	}
	if raw := first.RawJSON(); raw != "" && json.Valid([]byte(raw)) {
		res.Raw = json.RawMessage(raw)
	}
	return res, nil
}
