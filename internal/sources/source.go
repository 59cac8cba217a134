// Package sources provides clients for searching academic paper databases.
//
// Each source (arXiv, OpenAlex, CORE) implements the SearchSource interface,
// translating a normalized request into that provider's native API call and
// returning uniform domain.Paper records. Adapters are stateless and safe to
// invoke concurrently.
package sources

import (
	"context"
	"time"

	"github.com/scholarmesh/paper-metasearch/internal/domain"
)

// DefaultMaxResults is the number of papers requested from a source when
// the caller does not specify a limit.
const DefaultMaxResults = 10

// DefaultTimeout bounds each outbound source request so a slow provider
// cannot hang the dispatcher.
const DefaultTimeout = 15 * time.Second

// SearchParams defines the normalized parameters for a source search.
type SearchParams struct {
	// Query is the search query string. An empty query is forwarded to the
	// source as-is; rejecting it is the caller's concern.
	Query string

	// MaxResults limits the number of papers returned. A value of 0 uses
	// DefaultMaxResults.
	MaxResults int

	// Mode is a source-interpreted query hint ("topic" or "keyword").
	// Sources that do not support modes ignore it.
	Mode string
}

// Limit returns the effective result limit for the request.
func (p SearchParams) Limit() int {
	if p.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return p.MaxResults
}

// SearchSource is the interface all paper source adapters implement.
type SearchSource interface {
	// Search queries the source for papers matching the given parameters.
	// Failures (network timeout, non-2xx response, malformed payload) are
	// returned as a *domain.SourceError scoped to this source.
	//
	// Implementations should:
	//   - Respect context cancellation
	//   - Apply rate limiting as needed
	//   - Transform source-specific responses to domain.Paper
	Search(ctx context.Context, params SearchParams) ([]domain.Paper, error)

	// SourceType returns the type identifier for this source.
	SourceType() domain.SourceType

	// Name returns a human-readable name for logging and metrics.
	Name() string
}
