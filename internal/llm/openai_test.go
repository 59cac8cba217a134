package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIPlannerPlanQueries(t *testing.T) {
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := chatResponse{Choices: []chatChoice{{Message: chatMessage{
			Role:    "assistant",
			Content: `{"arxiv_queries": [{"query": "all:deep learning"}], "openalex_queries": [{"query": "deep learning"}], "core_queries": []}`,
		}}}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	planner := NewOpenAIPlanner(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, 0.2, 5*time.Second, 0)

	plan, err := planner.PlanQueries(context.Background(), "deep learning")
	require.NoError(t, err)

	assert.Len(t, plan.ArXivQueries, 1)
	assert.Len(t, plan.OpenAlexQueries, 1)
	assert.Empty(t, plan.COREQueries)

	assert.Equal(t, defaultOpenAIModel, gotReq.Model)
	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_object", gotReq.ResponseFormat.Type)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "deep learning", gotReq.Messages[1].Content)
}

func TestOpenAIPlannerRetriesTransientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		resp := chatResponse{Choices: []chatChoice{{Message: chatMessage{
			Content: `{"arxiv_queries": [{"query": "gnn"}]}`,
		}}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	planner := NewOpenAIPlanner(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, 0, 5*time.Second, 3)
	planner.retryDelay = time.Millisecond

	plan, err := planner.PlanQueries(context.Background(), "gnn")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, plan.ArXivQueries, 1)
}

func TestOpenAIPlannerDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer server.Close()

	planner := NewOpenAIPlanner(OpenAIConfig{APIKey: "bad", BaseURL: server.URL}, 0, 5*time.Second, 3)
	planner.retryDelay = time.Millisecond

	_, err := planner.PlanQueries(context.Background(), "gnn")
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid api key", apiErr.Message)
	assert.False(t, apiErr.IsTransient())
}

func TestOpenAIPlannerMalformedPlanContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse{Choices: []chatChoice{{Message: chatMessage{
			Content: "Sorry, I can't produce JSON today.",
		}}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	planner := NewOpenAIPlanner(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, 0, 5*time.Second, 0)

	_, err := planner.PlanQueries(context.Background(), "gnn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing plan JSON")
}

func TestOpenAIEmbedderEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultOpenAIEmbeddingModel, req.Model)
		assert.Equal(t, "attention is all you need", req.Input)

		resp := embeddingResponse{Data: []embeddingData{{Embedding: []float64{0.1, 0.2, 0.3}}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	embedder := NewOpenAIEmbedder(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, 5*time.Second, 0)

	vec, err := embedder.Embed(context.Background(), "attention is all you need")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}

func TestOpenAIEmbedderEmptyDataReturnsEmptyVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingResponse{Data: []embeddingData{}})
	}))
	defer server.Close()

	embedder := NewOpenAIEmbedder(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, 5*time.Second, 0)

	vec, err := embedder.Embed(context.Background(), "anything")
	require.NoError(t, err)
	assert.NotNil(t, vec)
	assert.Empty(t, vec)
}

func TestOpenAIEmbedderContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	embedder := NewOpenAIEmbedder(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, 5*time.Second, 5)
	embedder.retryDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := embedder.Embed(ctx, "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
