// Package llm provides LLM-backed query planning and text embedding for the
// paper metasearch service.
//
// The query planner decomposes a user's natural-language query into
// source-specific sub-queries by asking a generative model for a structured
// JSON response. The embedder turns text into vectors for similarity
// ranking. Both are defined as interfaces with OpenAI and Gemini provider
// implementations behind factories.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scholarmesh/paper-metasearch/internal/domain"
)

// QueryPlanner defines the interface for LLM-based query decomposition.
//
// PlanQueries returns the decomposed plan or an error; it never applies the
// verbatim-query fallback itself. Falling back is the orchestrator's
// responsibility so planner failures stay distinguishable from dispatch
// failures in logs and tests.
type QueryPlanner interface {
	// PlanQueries decomposes the user query into per-source sub-queries.
	PlanQueries(ctx context.Context, userQuery string) (*domain.QueryPlan, error)

	// Provider returns the name of the LLM provider (e.g., "openai", "gemini").
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}

// planResponse is the expected JSON structure from planner model responses.
type planResponse struct {
	ArXivQueries    []planSubQuery `json:"arxiv_queries"`
	OpenAlexQueries []planSubQuery `json:"openalex_queries"`
	COREQueries     []planSubQuery `json:"core_queries"`
}

// planSubQuery is one sub-query in a planner model response.
type planSubQuery struct {
	Query string `json:"query"`
	Mode  string `json:"mode,omitempty"`
}

// DecodeQueryPlan parses a planner model's text response into a QueryPlan.
// Arrays missing from an otherwise-valid response default to empty slices;
// a response that is not valid JSON is a decode error. Sub-queries with an
// empty query string are dropped rather than forwarded to sources.
func DecodeQueryPlan(raw string) (*domain.QueryPlan, error) {
	var resp planResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("parsing plan JSON: %w", err)
	}

	return &domain.QueryPlan{
		ArXivQueries:    toSubQueries(resp.ArXivQueries),
		OpenAlexQueries: toSubQueries(resp.OpenAlexQueries),
		COREQueries:     toSubQueries(resp.COREQueries),
	}, nil
}

// toSubQueries converts decoded sub-queries, dropping empty entries.
func toSubQueries(in []planSubQuery) []domain.SubQuery {
	out := make([]domain.SubQuery, 0, len(in))
	for _, sq := range in {
		query := strings.TrimSpace(sq.Query)
		if query == "" {
			continue
		}
		out = append(out, domain.SubQuery{Query: query, Mode: sq.Mode})
	}
	return out
}

// BuildPlannerPrompt builds the system and user prompts for query planning.
func BuildPlannerPrompt(userQuery string) (systemPrompt, userPrompt string) {
	var sb strings.Builder

	sb.WriteString("You are an academic search query planner. Given a research ")
	sb.WriteString("question, decompose it into targeted sub-queries for three paper ")
	sb.WriteString("databases: arXiv, OpenAlex, and CORE.\n\n")

	sb.WriteString("You MUST respond with valid JSON in exactly this format:\n")
	sb.WriteString(`{"arxiv_queries": [{"query": "...", "mode": "topic"}], "openalex_queries": [{"query": "..."}], "core_queries": [{"query": "...", "mode": "keyword"}]}`)
	sb.WriteString("\n\n")

	sb.WriteString("Guidelines:\n")
	sb.WriteString("1. mode is \"topic\" or \"keyword\"; topic mode on arXiv expects category expressions such as \"cat:cs.AI\".\n")
	sb.WriteString("2. Prefer short, precise search phrases over full sentences.\n")
	sb.WriteString("3. A source may receive zero sub-queries if it is a poor fit for the question.\n")
	sb.WriteString("4. Keep the total number of sub-queries small (at most a handful per source).\n")

	return sb.String(), userQuery
}
