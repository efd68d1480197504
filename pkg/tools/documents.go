package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/tools"

	"github.com/jemygraw/deepresearch/pkg/index"
)

// DocumentSearch retrieves chunks from the local document index.
type DocumentSearch struct {
	index index.Index
	topK  int
}

var _ tools.Tool = (*DocumentSearch)(nil)

type DocumentSearchOption func(*DocumentSearch)

// WithTopK sets how many chunks a lookup returns.
func WithTopK(k int) DocumentSearchOption {
	return func(d *DocumentSearch) {
		if k > 0 {
			d.topK = k
		}
	}
}

// NewDocumentSearch creates a document search tool over idx.
func NewDocumentSearch(idx index.Index, opts ...DocumentSearchOption) *DocumentSearch {
	d := &DocumentSearch{index: idx, topK: 4}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the name of the tool.
func (d *DocumentSearch) Name() string {
	return "search_opm_documents"
}

// Description returns the description of the tool.
func (d *DocumentSearch) Description() string {
	return "Search the OPM annual performance report documents for information " +
		"about federal workforce policy, hiring, retention and retirement. " +
		"Input should be a search query."
}

// Call looks up the most similar chunks and returns them as a numbered list.
func (d *DocumentSearch) Call(ctx context.Context, input string) (string, error) {
	query := trimmedInput(input)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	chunks, err := d.index.Search(ctx, query, d.topK)
	if err != nil {
		return "", fmt.Errorf("document search: %w", err)
	}
	if len(chunks) == 0 {
		return "No matching documents found", nil
	}

	var sb strings.Builder
	for i, c := range chunks {
		sb.WriteString(fmt.Sprintf("%d. Source: %s\nContent: %s\n\n",
			i+1, filepath.Base(c.Source), c.Content))
	}
	return sb.String(), nil
}
