package httpserver

import (
	"github.com/scholarmesh/paper-metasearch/internal/domain"
	"github.com/scholarmesh/paper-metasearch/internal/pipeline"
)

// paperResponse is the API representation of a paper.
type paperResponse struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Published  string   `json:"published"`
	Authors    []string `json:"authors"`
	Link       string   `json:"link"`
	Source     string   `json:"source"`
	Similarity *float64 `json:"similarity,omitempty"`
}

// searchResponse is the response body for POST /api/v1/search.
type searchResponse struct {
	SearchID         string          `json:"search_id"`
	Query            string          `json:"query"`
	Papers           []paperResponse `json:"papers"`
	ResultCount      int             `json:"result_count"`
	Ranked           bool            `json:"ranked"`
	UsedFallbackPlan bool            `json:"used_fallback_plan"`
	DurationMs       int64           `json:"duration_ms"`
}

// toPaperResponse converts a domain paper to its API representation.
func toPaperResponse(p domain.Paper) paperResponse {
	return paperResponse{
		ID:         p.ID,
		Title:      p.Title,
		Summary:    p.Summary,
		Published:  p.Published,
		Authors:    p.Authors,
		Link:       p.Link,
		Source:     string(p.Source),
		Similarity: p.Similarity,
	}
}

// toSearchResponse converts a pipeline result to the API response.
func toSearchResponse(searchID, query string, result *pipeline.Result) searchResponse {
	papers := make([]paperResponse, 0, len(result.Papers))
	for _, p := range result.Papers {
		papers = append(papers, toPaperResponse(p))
	}

	return searchResponse{
		SearchID:         searchID,
		Query:            query,
		Papers:           papers,
		ResultCount:      len(papers),
		Ranked:           result.Ranked,
		UsedFallbackPlan: result.UsedFallbackPlan,
		DurationMs:       result.Duration.Milliseconds(),
	}
}
