package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/tools"

	"github.com/jemygraw/deepresearch/pkg/search"
)

// Searcher is the slice of the Tavily client this tool needs.
type Searcher interface {
	Search(ctx context.Context, query string) (*search.Response, error)
}

// WebSearch searches the web through the Tavily API.
type WebSearch struct {
	client Searcher
}

var _ tools.Tool = (*WebSearch)(nil)

// NewWebSearch creates a web search tool backed by client.
func NewWebSearch(client Searcher) *WebSearch {
	return &WebSearch{client: client}
}

// Name returns the name of the tool.
func (w *WebSearch) Name() string {
	return "web_search"
}

// Description returns the description of the tool.
func (w *WebSearch) Description() string {
	return "Search the web for current information. " +
		"Useful for recent events and anything not covered by internal documents. " +
		"Input should be a search query."
}

// Call runs the search and returns the results as a numbered list.
func (w *WebSearch) Call(ctx context.Context, input string) (string, error) {
	query := trimmedInput(input)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	resp, err := w.client.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("web search: %w", err)
	}
	if len(resp.Results) == 0 {
		return "No results found", nil
	}

	var sb strings.Builder
	for i, r := range resp.Results {
		sb.WriteString(fmt.Sprintf("%d. Title: %s\nURL: %s\nContent: %s\n\n",
			i+1, r.Title, r.URL, r.Content))
	}
	return sb.String(), nil
}
