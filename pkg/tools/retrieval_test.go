package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jemygraw/deepresearch/pkg/index"
	"github.com/jemygraw/deepresearch/pkg/search"
)

type stubSearcher struct {
	resp *search.Response
	err  error
}

func (s *stubSearcher) Search(context.Context, string) (*search.Response, error) {
	return s.resp, s.err
}

type stubIndex struct {
	chunks []index.Chunk
	err    error
}

func (s *stubIndex) Add(context.Context, []index.Chunk) error { return nil }

func (s *stubIndex) Search(context.Context, string, int) ([]index.Chunk, error) {
	return s.chunks, s.err
}

func TestWebSearch_Call(t *testing.T) {
	ws := NewWebSearch(&stubSearcher{resp: &search.Response{
		Results: []search.Result{
			{Title: "Go 1.25 released", URL: "https://go.dev/blog", Content: "The release adds..."},
			{Title: "Release notes", URL: "https://go.dev/doc", Content: "Full changelog."},
		},
	}})

	out, err := ws.Call(context.Background(), "go 1.25 release")
	require.NoError(t, err)

	assert.Contains(t, out, "1. Title: Go 1.25 released")
	assert.Contains(t, out, "URL: https://go.dev/blog")
	assert.Contains(t, out, "2. Title: Release notes")
}

func TestWebSearch_CallNoResults(t *testing.T) {
	ws := NewWebSearch(&stubSearcher{resp: &search.Response{}})
	out, err := ws.Call(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "No results found", out)
}

func TestWebSearch_CallErrors(t *testing.T) {
	ws := NewWebSearch(&stubSearcher{err: assert.AnError})
	_, err := ws.Call(context.Background(), "anything")
	assert.Error(t, err)

	_, err = ws.Call(context.Background(), "   ")
	assert.Error(t, err)
}

func TestDocumentSearch_Call(t *testing.T) {
	ds := NewDocumentSearch(&stubIndex{chunks: []index.Chunk{
		{Content: "Leave carries over between years.", Source: "documents/2021-report.pdf", Score: 0.91},
	}})

	out, err := ds.Call(context.Background(), "leave policy")
	require.NoError(t, err)

	assert.Contains(t, out, "Source: 2021-report.pdf")
	assert.NotContains(t, out, "documents/2021-report.pdf")
	assert.Contains(t, out, "Leave carries over between years.")
}

func TestDocumentSearch_CallNoMatches(t *testing.T) {
	ds := NewDocumentSearch(&stubIndex{})
	out, err := ds.Call(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "No matching documents found", out)
}

func TestDocumentSearch_CallErrors(t *testing.T) {
	ds := NewDocumentSearch(&stubIndex{err: assert.AnError})
	_, err := ds.Call(context.Background(), "anything")
	assert.Error(t, err)

	_, err = ds.Call(context.Background(), "")
	assert.Error(t, err)
}

func TestDocumentSearch_WithTopK(t *testing.T) {
	ds := NewDocumentSearch(&stubIndex{}, WithTopK(10))
	assert.Equal(t, 10, ds.topK)

	ds = NewDocumentSearch(&stubIndex{}, WithTopK(0))
	assert.Equal(t, 4, ds.topK)
}
