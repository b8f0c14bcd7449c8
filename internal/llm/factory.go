package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// Options selects and configures a provider.
type Options struct {
	Provider Provider
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// New builds a Client for the configured provider.
func New(ctx context.Context, opts Options) (Client, error) {
	switch opts.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  opts.APIKey,
			BaseURL: opts.BaseURL,
			Model:   opts.Model,
			Timeout: opts.Timeout,
		}), nil
	case ProviderAnthropic:
		return NewAnthropicClient(AnthropicConfig{
			APIKey:  opts.APIKey,
			BaseURL: opts.BaseURL,
			Model:   opts.Model,
			Timeout: opts.Timeout,
		}), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, opts.APIKey, opts.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want openai, anthropic, or gemini)", opts.Provider)
	}
}
