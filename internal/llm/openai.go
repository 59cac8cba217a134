package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scholarmesh/paper-metasearch/internal/domain"
)

// Default values for the OpenAI provider.
const (
	defaultOpenAIBaseURL        = "https://api.openai.com/v1"
	defaultOpenAIModel          = "gpt-4o-mini"
	defaultOpenAIEmbeddingModel = "text-embedding-3-small"
	defaultOpenAIMaxTokens      = 1024
	defaultOpenAIRetryDelay     = 2 * time.Second
)

// chatRequest represents the OpenAI Chat Completions API request body.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// chatMessage represents a single message in the chat conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// responseFormat specifies the output format for the API response.
type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse represents the OpenAI Chat Completions API response body.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// chatChoice represents a single completion choice.
type chatChoice struct {
	Message chatMessage `json:"message"`
}

// embeddingRequest represents the OpenAI Embeddings API request body.
type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embeddingResponse represents the OpenAI Embeddings API response body.
type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

// embeddingData holds one embedding vector in an embeddings response.
type embeddingData struct {
	Embedding []float64 `json:"embedding"`
}

// openAIErrorResponse represents an error response from the OpenAI API.
type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAIConfig holds the parameters needed to create OpenAI providers.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// Model is the chat model identifier used for planning.
	Model string
	// EmbeddingModel is the embeddings model identifier.
	EmbeddingModel string
	// BaseURL is the API base URL (empty means default).
	BaseURL string
}

// OpenAIPlanner implements QueryPlanner using the OpenAI Chat Completions
// API with JSON response format.
type OpenAIPlanner struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxRetries  int
	retryDelay  time.Duration
}

// NewOpenAIPlanner creates a new OpenAI query planner.
func NewOpenAIPlanner(cfg OpenAIConfig, temperature float64, timeout time.Duration, maxRetries int) *OpenAIPlanner {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &OpenAIPlanner{
		httpClient:  newOpenAIHTTPClient(timeout),
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     baseURL,
		temperature: temperature,
		maxRetries:  maxRetries,
		retryDelay:  defaultOpenAIRetryDelay,
	}
}

// PlanQueries decomposes the user query via the Chat Completions API.
// Transient errors (5xx, 429) are retried up to maxRetries times.
func (p *OpenAIPlanner) PlanQueries(ctx context.Context, userQuery string) (*domain.QueryPlan, error) {
	systemPrompt, userPrompt := BuildPlannerPrompt(userQuery)

	chatReq := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: p.temperature,
		MaxTokens:   defaultOpenAIMaxTokens,
		ResponseFormat: &responseFormat{
			Type: "json_object",
		},
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := p.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("openai: context cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		plan, err := p.doRequest(ctx, chatReq)
		if err == nil {
			return plan, nil
		}

		if !isTransientError(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("openai: exhausted %d retries: %w", p.maxRetries, lastErr)
}

// Provider returns the name of the LLM provider.
func (p *OpenAIPlanner) Provider() string {
	return "openai"
}

// Model returns the model identifier being used.
func (p *OpenAIPlanner) Model() string {
	return p.model
}

// doRequest performs a single API request to the Chat Completions endpoint.
func (p *OpenAIPlanner) doRequest(ctx context.Context, chatReq chatRequest) (*domain.QueryPlan, error) {
	respBody, err := postOpenAIJSON(ctx, p.httpClient, p.baseURL+"/chat/completions", p.apiKey, chatReq)
	if err != nil {
		return nil, err
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("openai: failed to unmarshal response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices in response")
	}

	plan, err := DecodeQueryPlan(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return plan, nil
}

// OpenAIEmbedder implements Embedder using the OpenAI Embeddings API.
type OpenAIEmbedder struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAIEmbedder creates a new OpenAI embedder.
func NewOpenAIEmbedder(cfg OpenAIConfig, timeout time.Duration, maxRetries int) *OpenAIEmbedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	model := cfg.EmbeddingModel
	if model == "" {
		model = defaultOpenAIEmbeddingModel
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &OpenAIEmbedder{
		httpClient: newOpenAIHTTPClient(timeout),
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		maxRetries: maxRetries,
		retryDelay: defaultOpenAIRetryDelay,
	}
}

// Embed returns the embedding vector for the given text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	req := embeddingRequest{
		Model: e.model,
		Input: text,
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			delay := e.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("openai: context cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		respBody, err := postOpenAIJSON(ctx, e.httpClient, e.baseURL+"/embeddings", e.apiKey, req)
		if err != nil {
			if !isTransientError(err) {
				return nil, err
			}
			lastErr = err
			continue
		}

		var embResp embeddingResponse
		if err := json.Unmarshal(respBody, &embResp); err != nil {
			return nil, fmt.Errorf("openai: failed to unmarshal embeddings response: %w", err)
		}

		// An empty data array yields an empty vector; the ranker decides
		// how to treat it.
		if len(embResp.Data) == 0 {
			return []float64{}, nil
		}
		return embResp.Data[0].Embedding, nil
	}

	return nil, fmt.Errorf("openai: exhausted %d retries: %w", e.maxRetries, lastErr)
}

// Provider returns the name of the embedding provider.
func (e *OpenAIEmbedder) Provider() string {
	return "openai"
}

// Model returns the model identifier being used.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// newOpenAIHTTPClient builds the HTTP client shared by OpenAI providers.
func newOpenAIHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// postOpenAIJSON posts a JSON body to an OpenAI endpoint and returns the
// raw response body, converting non-200 responses into APIError.
func postOpenAIJSON(ctx context.Context, client *http.Client, endpoint, apiKey string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &APIError{Provider: "openai", StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("openai: failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Provider: "openai", StatusCode: resp.StatusCode, Message: string(respBody)}
		var errResp openAIErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			apiErr.Message = errResp.Error.Message
		}
		return nil, apiErr
	}

	return respBody, nil
}
