// Package core provides a client for the CORE v3 works search API.
//
// CORE requires an API key; constructing a client without one is a
// configuration error raised before any network call.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/scholarmesh/paper-metasearch/internal/domain"
	"github.com/scholarmesh/paper-metasearch/internal/sources"
)

const (
	// DefaultBaseURL is the default CORE API base URL.
	DefaultBaseURL = "https://api.core.ac.uk/v3"

	// DefaultRateLimit is the default rate limit for requests per second.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// sourceName is the human-readable name for this source.
	sourceName = "CORE"
)

// Config holds configuration for the CORE client.
type Config struct {
	// BaseURL is the CORE API base URL.
	BaseURL string

	// APIKey is the CORE API key (required).
	APIKey string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = sources.DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client implements the sources.SearchSource interface for CORE.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
}

// Ensure Client implements SearchSource interface.
var _ sources.SearchSource = (*Client)(nil)

// New creates a new CORE client with the given configuration.
// It fails with a configuration error when the API key is absent.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewConfigurationError("core", "API key")
	}
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}, nil
}

// NewWithHTTPClient creates a new CORE client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewConfigurationError("core", "API key")
	}
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}, nil
}

// Search queries CORE for papers matching the given parameters.
// The mode hint is accepted for interface symmetry but does not alter
// query construction.
func (c *Client) Search(ctx context.Context, params sources.SearchParams) ([]domain.Paper, error) {
	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, domain.NewSourceError(domain.SourceTypeCORE, fmt.Errorf("building search URL: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, domain.NewSourceError(domain.SourceTypeCORE, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewSourceError(domain.SourceTypeCORE, fmt.Errorf("executing request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewSourceError(domain.SourceTypeCORE,
			domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil))
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, domain.NewSourceError(domain.SourceTypeCORE, fmt.Errorf("decoding response: %w", err))
	}

	papers := make([]domain.Paper, 0, len(searchResp.Results))
	for i := range searchResp.Results {
		papers = append(papers, entryToPaper(&searchResp.Results[i]))
	}

	return papers, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeCORE
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// buildSearchURL constructs the CORE works search URL.
func (c *Client) buildSearchURL(params sources.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = baseURL.Path + "/search/works"

	query := url.Values{}
	query.Set("query", params.Query)
	query.Set("limit", strconv.Itoa(params.Limit()))

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// entryToPaper converts a CORE work entry to a domain Paper.
func entryToPaper(entry *WorkEntry) domain.Paper {
	title := entry.Title
	if title == "" {
		title = "Untitled"
	}

	published := entry.PublishedDate
	if published == "" {
		published = "Unknown"
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	// Link preference: direct download, then full text, then the entry URI.
	link := ""
	switch {
	case entry.DownloadURL != "":
		link = entry.DownloadURL
	case entry.FullTextURL != "":
		link = entry.FullTextURL
	default:
		link = entry.URI
	}

	return domain.Paper{
		ID:        string(entry.ID),
		Title:     title,
		Summary:   entry.Abstract,
		Published: published,
		Authors:   authors,
		Link:      link,
		Source:    domain.SourceTypeCORE,
	}
}
