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

// Default values for the Gemini provider.
const (
	defaultGeminiBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel          = "gemini-2.0-flash"
	defaultGeminiEmbeddingModel = "text-embedding-004"
	defaultGeminiRetryDelay     = 2 * time.Second
)

// generateRequest represents the Gemini generateContent API request body.
type generateRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

// geminiContent is a content block in a Gemini request or response.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart is a single part of a content block.
type geminiPart struct {
	Text string `json:"text"`
}

// generationConfig controls Gemini response generation.
type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

// generateResponse represents the Gemini generateContent API response body.
type generateResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// geminiCandidate is one generation candidate in a Gemini response.
type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

// embedContentRequest represents the Gemini embedContent API request body.
type embedContentRequest struct {
	Content geminiContent `json:"content"`
}

// embedContentResponse represents the Gemini embedContent API response body.
type embedContentResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// geminiErrorResponse represents an error response from the Gemini API.
type geminiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GeminiConfig holds the parameters needed to create Gemini providers.
type GeminiConfig struct {
	// APIKey is the Gemini API key.
	APIKey string
	// Model is the generation model identifier used for planning.
	Model string
	// EmbeddingModel is the embedding model identifier.
	EmbeddingModel string
	// BaseURL is the API base URL (empty means default).
	BaseURL string
}

// GeminiPlanner implements QueryPlanner using the Gemini generateContent
// API with a JSON response MIME type.
type GeminiPlanner struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxRetries  int
	retryDelay  time.Duration
}

// NewGeminiPlanner creates a new Gemini query planner.
func NewGeminiPlanner(cfg GeminiConfig, temperature float64, timeout time.Duration, maxRetries int) *GeminiPlanner {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &GeminiPlanner{
		httpClient:  &http.Client{Timeout: timeout},
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     baseURL,
		temperature: temperature,
		maxRetries:  maxRetries,
		retryDelay:  defaultGeminiRetryDelay,
	}
}

// PlanQueries decomposes the user query via the generateContent API.
// Transient errors (5xx, 429) are retried up to maxRetries times.
func (p *GeminiPlanner) PlanQueries(ctx context.Context, userQuery string) (*domain.QueryPlan, error) {
	systemPrompt, userPrompt := BuildPlannerPrompt(userQuery)

	genReq := generateRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userPrompt}}},
		},
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		},
		GenerationConfig: &generationConfig{
			Temperature:      p.temperature,
			ResponseMIMEType: "application/json",
		},
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := p.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("gemini: context cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		plan, err := p.doRequest(ctx, endpoint, genReq)
		if err == nil {
			return plan, nil
		}

		if !isTransientError(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("gemini: exhausted %d retries: %w", p.maxRetries, lastErr)
}

// Provider returns the name of the LLM provider.
func (p *GeminiPlanner) Provider() string {
	return "gemini"
}

// Model returns the model identifier being used.
func (p *GeminiPlanner) Model() string {
	return p.model
}

// doRequest performs a single API request to the generateContent endpoint.
func (p *GeminiPlanner) doRequest(ctx context.Context, endpoint string, genReq generateRequest) (*domain.QueryPlan, error) {
	respBody, err := postGeminiJSON(ctx, p.httpClient, endpoint, p.apiKey, genReq)
	if err != nil {
		return nil, err
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("gemini: failed to unmarshal response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini: empty candidates in response")
	}

	plan, err := DecodeQueryPlan(genResp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return plan, nil
}

// GeminiEmbedder implements Embedder using the Gemini embedContent API.
type GeminiEmbedder struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	maxRetries int
	retryDelay time.Duration
}

// NewGeminiEmbedder creates a new Gemini embedder.
func NewGeminiEmbedder(cfg GeminiConfig, timeout time.Duration, maxRetries int) *GeminiEmbedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}

	model := cfg.EmbeddingModel
	if model == "" {
		model = defaultGeminiEmbeddingModel
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &GeminiEmbedder{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		maxRetries: maxRetries,
		retryDelay: defaultGeminiRetryDelay,
	}
}

// Embed returns the embedding vector for the given text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	embReq := embedContentRequest{
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	}

	endpoint := fmt.Sprintf("%s/models/%s:embedContent", e.baseURL, e.model)

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			delay := e.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("gemini: context cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		respBody, err := postGeminiJSON(ctx, e.httpClient, endpoint, e.apiKey, embReq)
		if err != nil {
			if !isTransientError(err) {
				return nil, err
			}
			lastErr = err
			continue
		}

		var embResp embedContentResponse
		if err := json.Unmarshal(respBody, &embResp); err != nil {
			return nil, fmt.Errorf("gemini: failed to unmarshal embedding response: %w", err)
		}

		// An absent embedding yields an empty vector; the ranker decides
		// how to treat it.
		if embResp.Embedding.Values == nil {
			return []float64{}, nil
		}
		return embResp.Embedding.Values, nil
	}

	return nil, fmt.Errorf("gemini: exhausted %d retries: %w", e.maxRetries, lastErr)
}

// Provider returns the name of the embedding provider.
func (e *GeminiEmbedder) Provider() string {
	return "gemini"
}

// Model returns the model identifier being used.
func (e *GeminiEmbedder) Model() string {
	return e.model
}

// postGeminiJSON posts a JSON body to a Gemini endpoint and returns the raw
// response body, converting non-200 responses into APIError. The API key is
// sent via the x-goog-api-key header.
func postGeminiJSON(ctx context.Context, client *http.Client, endpoint, apiKey string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", apiKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &APIError{Provider: "gemini", StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Provider: "gemini", StatusCode: resp.StatusCode, Message: string(respBody)}
		var errResp geminiErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			apiErr.Message = errResp.Error.Message
		}
		return nil, apiErr
	}

	return respBody, nil
}
