package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackPlan(t *testing.T) {
	plan := FallbackPlan("graph neural networks")

	want := []SubQuery{{Query: "graph neural networks", Mode: ModeKeyword}}
	assert.Equal(t, want, plan.ArXivQueries)
	assert.Equal(t, want, plan.OpenAlexQueries)
	assert.Equal(t, want, plan.COREQueries)
	assert.Equal(t, 3, plan.SubQueryCount())
}

func TestSubQueryCountNilPlan(t *testing.T) {
	var plan *QueryPlan
	assert.Equal(t, 0, plan.SubQueryCount())
}

func TestIsValidSourceType(t *testing.T) {
	for _, st := range AllSourceTypes() {
		assert.True(t, IsValidSourceType(st))
	}
	assert.False(t, IsValidSourceType(SourceType("pubmed")))
	assert.False(t, IsValidSourceType(SourceType("")))
}

func TestPaperSimilarityOmittedWhenUnranked(t *testing.T) {
	paper := Paper{
		ID:     "2301.12345",
		Title:  "A Paper",
		Source: SourceTypeArXiv,
	}

	data, err := json.Marshal(paper)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "similarity")

	score := 0.75
	paper.Similarity = &score
	data, err = json.Marshal(paper)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"similarity":0.75`)
}
