package llm

import (
	"fmt"
	"time"
)

// FactoryConfig holds the parameters needed to create a QueryPlanner or an
// Embedder. This is defined in the llm package to avoid importing the
// config package, keeping the llm package free of infrastructure
// dependencies.
type FactoryConfig struct {
	// Provider is the planner provider name ("openai" or "gemini").
	Provider string
	// EmbeddingProvider is the embedder provider name ("openai" or "gemini").
	// Empty means the same as Provider.
	EmbeddingProvider string
	// Temperature is the LLM temperature setting for planning.
	Temperature float64
	// Timeout is the timeout for LLM API calls.
	Timeout time.Duration
	// MaxRetries is the maximum number of retries for failed calls.
	MaxRetries int
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig
	// Gemini contains Gemini-specific settings.
	Gemini GeminiConfig
}

// NewQueryPlanner creates a QueryPlanner based on the configuration.
// Supports "openai" and "gemini" providers. Returns an error for
// unsupported or empty provider values.
func NewQueryPlanner(cfg FactoryConfig) (QueryPlanner, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIPlanner(cfg.OpenAI, cfg.Temperature, cfg.Timeout, cfg.MaxRetries), nil
	case "gemini":
		return NewGeminiPlanner(cfg.Gemini, cfg.Temperature, cfg.Timeout, cfg.MaxRetries), nil
	default:
		return nil, fmt.Errorf("unsupported planner provider: %q", cfg.Provider)
	}
}

// NewEmbedder creates an Embedder based on the configuration.
// Supports "openai" and "gemini" providers; an empty EmbeddingProvider
// falls back to the planner provider.
func NewEmbedder(cfg FactoryConfig) (Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}

	switch provider {
	case "openai":
		return NewOpenAIEmbedder(cfg.OpenAI, cfg.Timeout, cfg.MaxRetries), nil
	case "gemini":
		return NewGeminiEmbedder(cfg.Gemini, cfg.Timeout, cfg.MaxRetries), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", provider)
	}
}
