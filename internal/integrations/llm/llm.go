// Package llm provides the model-provider clients behind the classifier's
// Completer dependency.
package llm

import (
	"context"
	"fmt"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	defaultOpenAIModel    = "gpt-4o-mini"

	defaultTemperature = 0.1
	defaultMaxTokens   = 500
)

// Completer is a single request/response model call.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config selects and parameterizes one provider.
type Config struct {
	Provider    string // "anthropic" or "openai"
	Model       string
	APIKey      string
	BaseURL     string // openai only: OpenAI-compatible endpoint override
	Temperature float64
	MaxTokens   int
}

// New builds the provider client for cfg. Model, temperature and token
// limits fall back to provider defaults when unset.
func New(cfg Config) (Completer, error) {
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	switch cfg.Provider {
	case "openai":
		if cfg.Model == "" {
			cfg.Model = defaultOpenAIModel
		}
		return newOpenAIClient(cfg), nil
	case "", "anthropic":
		if cfg.Model == "" {
			cfg.Model = defaultAnthropicModel
		}
		return newAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
