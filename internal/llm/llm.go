package llm

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoProviderConfigured is returned when neither reasoning credential is set.
var ErrNoProviderConfigured = errors.New("no AI provider configured: set ANTHROPIC_API_KEY or OPENROUTER_API_KEY")

// Request is a single-turn chat call: a system instruction and one user message.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Reasoner is a chat-style model that returns free text.
type Reasoner interface {
	Complete(ctx context.Context, req Request) (string, error)
	// Name identifies the provider and model, e.g. "anthropic:claude-3-5-sonnet-20241022".
	Name() string
}

// Settings carries the credentials and models for every supported provider.
type Settings struct {
	AnthropicKey   string
	AnthropicModel string

	OpenRouterKey     string
	OpenRouterModel   string
	OpenRouterBaseURL string
}

// New picks the provider once: OpenRouter when its key is present, otherwise
// the direct Anthropic API.
func New(s Settings, log *slog.Logger) (Reasoner, error) {
	if log == nil {
		log = slog.Default()
	}
	switch {
	case s.OpenRouterKey != "":
		if s.AnthropicKey != "" {
			log.Warn("both ANTHROPIC_API_KEY and OPENROUTER_API_KEY are set; using OpenRouter")
		}
		client, err := NewOpenRouterClient(s.OpenRouterKey, s.OpenRouterModel, s.OpenRouterBaseURL)
		if err != nil {
			return nil, err
		}
		log.Info("using OpenRouter reasoning client", "model", client.model)
		return client, nil
	case s.AnthropicKey != "":
		client, err := NewAnthropicClient(AnthropicConfig{APIKey: s.AnthropicKey, Model: s.AnthropicModel})
		if err != nil {
			return nil, err
		}
		log.Info("using Anthropic reasoning client", "model", client.model)
		return client, nil
	default:
		return nil, ErrNoProviderConfigured
	}
}
