package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueryPlanner(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		want     string
		wantErr  bool
	}{
		{"openai", "openai", "openai", false},
		{"gemini", "gemini", "gemini", false},
		{"unsupported", "anthropic", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planner, err := NewQueryPlanner(FactoryConfig{Provider: tt.provider})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, planner.Provider())
		})
	}
}

func TestNewEmbedderFallsBackToPlannerProvider(t *testing.T) {
	embedder, err := NewEmbedder(FactoryConfig{Provider: "gemini"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", embedder.Provider())
	assert.Equal(t, defaultGeminiEmbeddingModel, embedder.Model())
}

func TestNewEmbedderIndependentProvider(t *testing.T) {
	embedder, err := NewEmbedder(FactoryConfig{Provider: "gemini", EmbeddingProvider: "openai"})
	require.NoError(t, err)
	assert.Equal(t, "openai", embedder.Provider())
	assert.Equal(t, defaultOpenAIEmbeddingModel, embedder.Model())
}

func TestNewEmbedderUnsupportedProvider(t *testing.T) {
	_, err := NewEmbedder(FactoryConfig{Provider: "cohere"})
	assert.Error(t, err)
}
