package llm

import "context"

// Embedder defines the interface for text embedding providers.
//
// Implementations should respect context cancellation and return wrapped
// errors with provider context. An empty or degraded vector response is
// returned as-is; tolerating it is the caller's concern.
type Embedder interface {
	// Embed returns the embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Provider returns the name of the embedding provider.
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}
