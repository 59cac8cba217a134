package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarmesh/paper-metasearch/internal/domain"
)

func TestDecodeQueryPlan(t *testing.T) {
	raw := `{
		"arxiv_queries": [{"query": "cat:cs.LG", "mode": "topic"}, {"query": "graph neural networks", "mode": "keyword"}],
		"openalex_queries": [{"query": "graph neural networks"}],
		"core_queries": []
	}`

	plan, err := DecodeQueryPlan(raw)
	require.NoError(t, err)

	assert.Equal(t, []domain.SubQuery{
		{Query: "cat:cs.LG", Mode: domain.ModeTopic},
		{Query: "graph neural networks", Mode: domain.ModeKeyword},
	}, plan.ArXivQueries)
	assert.Equal(t, []domain.SubQuery{{Query: "graph neural networks"}}, plan.OpenAlexQueries)
	assert.Empty(t, plan.COREQueries)
	assert.Equal(t, 3, plan.SubQueryCount())
}

func TestDecodeQueryPlanMissingArraysDefaultEmpty(t *testing.T) {
	plan, err := DecodeQueryPlan(`{"arxiv_queries": [{"query": "gnn"}]}`)
	require.NoError(t, err)

	assert.Len(t, plan.ArXivQueries, 1)
	assert.NotNil(t, plan.OpenAlexQueries)
	assert.Empty(t, plan.OpenAlexQueries)
	assert.NotNil(t, plan.COREQueries)
	assert.Empty(t, plan.COREQueries)
}

func TestDecodeQueryPlanInvalidJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not JSON", "I could not produce a plan, sorry!"},
		{"truncated", `{"arxiv_queries": [`},
		{"wrong shape", `{"arxiv_queries": "gnn"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := DecodeQueryPlan(tt.raw)
			assert.Error(t, err)
			assert.Nil(t, plan)
		})
	}
}

func TestDecodeQueryPlanDropsEmptySubQueries(t *testing.T) {
	plan, err := DecodeQueryPlan(`{"openalex_queries": [{"query": "  "}, {"query": "transformers"}]}`)
	require.NoError(t, err)

	assert.Equal(t, []domain.SubQuery{{Query: "transformers"}}, plan.OpenAlexQueries)
}

func TestBuildPlannerPrompt(t *testing.T) {
	system, user := BuildPlannerPrompt("quantum error correction")

	assert.Contains(t, system, "arxiv_queries")
	assert.Contains(t, system, "openalex_queries")
	assert.Contains(t, system, "core_queries")
	assert.Contains(t, system, "valid JSON")
	assert.Equal(t, "quantum error correction", user)
}
