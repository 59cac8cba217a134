package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/scholarmesh/paper-metasearch/internal/domain"
	"github.com/scholarmesh/paper-metasearch/internal/llm"
	"github.com/scholarmesh/paper-metasearch/internal/observability"
)

// Ranker orders papers by semantic similarity to the user's query.
//
// The query is embedded once; paper embeddings are computed concurrently.
// Each paper's cosine similarity to the query is normalized from [-1, 1]
// into [0, 1] and stored on the paper, then papers are sorted by similarity
// descending (stable, so ties keep their input order).
//
// Ranking is best effort: any embedding or similarity failure abandons
// ranking for the whole batch and returns the input unchanged. Rank never
// returns a partially annotated result and never fails outward.
type Ranker struct {
	embedder llm.Embedder
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// NewRanker creates a ranker backed by the given embedder.
func NewRanker(embedder llm.Embedder, logger zerolog.Logger, metrics *observability.Metrics) *Ranker {
	return &Ranker{
		embedder: embedder,
		logger:   logger,
		metrics:  metrics,
	}
}

// Rank returns the papers sorted by similarity to the query, with each
// paper's Similarity field set, and reports whether ranking was applied.
// On any failure the original slice is returned untouched in its original
// order. An empty input is returned as-is without calling the embedder.
func (r *Ranker) Rank(ctx context.Context, query string, papers []domain.Paper) ([]domain.Paper, bool) {
	if len(papers) == 0 {
		return papers, false
	}

	ranked, err := r.rank(ctx, query, papers)
	if err != nil {
		r.metrics.RecordRankingDegrade()
		r.logger.Warn().Err(domain.NewRankingError(err)).
			Str("query", query).
			Int("papers", len(papers)).
			Msg("ranking failed, returning unranked results")
		return papers, false
	}

	return ranked, true
}

// rank performs the fallible part of ranking on a copy of the input.
func (r *Ranker) rank(ctx context.Context, query string, papers []domain.Paper) ([]domain.Paper, error) {
	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	paperVecs, err := r.embedPapers(ctx, papers)
	if err != nil {
		return nil, err
	}

	ranked := make([]domain.Paper, len(papers))
	copy(ranked, papers)

	for i := range ranked {
		score, err := similarityScore(queryVec, paperVecs[i])
		if err != nil {
			return nil, fmt.Errorf("scoring %q: %w", ranked[i].Title, err)
		}
		ranked[i].Similarity = &score
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Similarity > *ranked[j].Similarity
	})

	return ranked, nil
}

// embedPapers computes embeddings for all papers concurrently. The first
// error aborts the batch.
func (r *Ranker) embedPapers(ctx context.Context, papers []domain.Paper) ([][]float64, error) {
	vecs := make([][]float64, len(papers))
	errs := make([]error, len(papers))
	var wg sync.WaitGroup

	for i, paper := range papers {
		wg.Add(1)
		go func(i int, paper domain.Paper) {
			defer wg.Done()
			vec, err := r.embedder.Embed(ctx, embeddingText(paper))
			if err != nil {
				errs[i] = fmt.Errorf("embedding paper %q: %w", paper.Title, err)
				return
			}
			vecs[i] = vec
		}(i, paper)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return vecs, nil
}

// embeddingText builds the text that represents a paper for embedding.
func embeddingText(paper domain.Paper) string {
	return strings.TrimSpace(paper.Title + " " + paper.Summary)
}

// similarityScore computes the normalized similarity of two vectors: the
// cosine mapped from [-1, 1] into [0, 1] via (cos+1)/2. A zero-magnitude
// vector scores 0 against anything. Vectors of different lengths are
// incomparable and return an error.
func similarityScore(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d != %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cos + 1) / 2, nil
}
