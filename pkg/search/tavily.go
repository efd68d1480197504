// Package search provides web retrieval: the Tavily search client, the
// web_search tool built on it and a page-text fetcher for following result
// links.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const defaultTavilyURL = "https://api.tavily.com/search"

// TavilyClient calls the Tavily search API.
type TavilyClient struct {
	apiKey        string
	baseURL       string
	httpClient    *http.Client
	maxResults    int
	searchDepth   string
	includeAnswer bool
	rawContent    bool
}

// Result is one search hit.
type Result struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	RawContent string  `json:"raw_content,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

// Response is the search reply: an optional direct answer plus ranked results.
type Response struct {
	Answer  string   `json:"answer"`
	Results []Result `json:"results"`
}

type TavilyOption func(*TavilyClient)

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(baseURL string) TavilyOption {
	return func(c *TavilyClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(httpClient *http.Client) TavilyOption {
	return func(c *TavilyClient) {
		c.httpClient = httpClient
	}
}

// WithMaxResults caps the number of results (1-5).
func WithMaxResults(n int) TavilyOption {
	return func(c *TavilyClient) {
		if n < 1 {
			n = 1
		}
		if n > 5 {
			n = 5
		}
		c.maxResults = n
	}
}

// WithSearchDepth sets the search depth, "basic" or "advanced".
func WithSearchDepth(depth string) TavilyOption {
	return func(c *TavilyClient) {
		c.searchDepth = depth
	}
}

// WithIncludeAnswer asks the API for a direct answer alongside the results.
func WithIncludeAnswer(include bool) TavilyOption {
	return func(c *TavilyClient) {
		c.includeAnswer = include
	}
}

// WithRawContent asks the API for the full page content of each result.
func WithRawContent(include bool) TavilyOption {
	return func(c *TavilyClient) {
		c.rawContent = include
	}
}

// NewTavily creates a Tavily client.
func NewTavily(apiKey string, opts ...TavilyOption) (*TavilyClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY not set")
	}

	c := &TavilyClient{
		apiKey:      apiKey,
		baseURL:     defaultTavilyURL,
		httpClient:  &http.Client{},
		maxResults:  5,
		searchDepth: "advanced",
		rawContent:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search runs a query and returns the ranked results.
func (c *TavilyClient) Search(ctx context.Context, query string) (*Response, error) {
	reqBody := map[string]any{
		"query":               query,
		"api_key":             c.apiKey,
		"search_depth":        c.searchDepth,
		"max_results":         c.maxResults,
		"include_answer":      c.includeAnswer,
		"include_raw_content": c.rawContent,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api status: %d", resp.StatusCode)
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode tavily response: %w", err)
	}
	return &result, nil
}

// FormatResults renders results as pretty JSON objects separated by blank
// lines, the form the summarization prompts expect.
func FormatResults(results []Result) string {
	formatted := make([]string, 0, len(results))
	for _, r := range results {
		entry := map[string]string{
			"url":         r.URL,
			"title":       r.Title,
			"content":     r.Content,
			"raw_content": r.RawContent,
		}
		b, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			continue
		}
		formatted = append(formatted, string(b))
	}
	return strings.Join(formatted, "\n\n")
}
