package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jemygraw/deepresearch/pkg/log"
	"github.com/jemygraw/deepresearch/pkg/search"
)

func newTestWebSearchAgent(t *testing.T, model *scriptedCompleter, searcher Searcher) *WebSearchAgent {
	t.Helper()
	agent := NewWebSearch(testConfig(t))
	agent.model = model
	agent.search = searcher
	agent.logger = log.NoOpLogger{}
	require.NoError(t, agent.Initialize(context.Background()))
	return agent
}

func TestWebSearchSummarizesResults(t *testing.T) {
	model := (&scriptedCompleter{}).
		on("summarizes web search results", "Answer: Go 1.25 shipped in August.\nReferences:\n- https://go.dev/blog")
	searcher := &stubSearcher{resp: &search.Response{Results: []search.Result{
		{Title: "Go 1.25 released", URL: "https://go.dev/blog", Content: "The release landed in August."},
	}}}

	agent := newTestWebSearchAgent(t, model, searcher)
	reply, err := agent.ProcessMessage(context.Background(), "latest Go release", nil)
	require.NoError(t, err)
	assert.Contains(t, reply, "Go 1.25")
	assert.Equal(t, 1, searcher.searchCount())

	prompt := lastPromptContaining(t, model, "summarizes web search results")
	assert.Contains(t, prompt, "Go 1.25 released")
	assert.Contains(t, prompt, "https://go.dev/blog")
}

func TestWebSearchSurfacesEngineAnswer(t *testing.T) {
	model := (&scriptedCompleter{}).
		on("summarizes web search results", "Go 1.25 shipped in August 2025.")
	searcher := &stubSearcher{resp: &search.Response{
		Answer: "Go 1.25 was released in August 2025.",
		Results: []search.Result{
			{Title: "Go 1.25 released", URL: "https://go.dev/blog", Content: "The release landed in August."},
		},
	}}

	agent := newTestWebSearchAgent(t, model, searcher)
	_, err := agent.ProcessMessage(context.Background(), "latest Go release", nil)
	require.NoError(t, err)

	prompt := lastPromptContaining(t, model, "summarizes web search results")
	assert.Contains(t, prompt, "Direct answer from the search engine: Go 1.25 was released in August 2025.")
	assert.Contains(t, prompt, "Go 1.25 released")
}

func TestWebSearchAnswerWithoutResultsStillSummarizes(t *testing.T) {
	model := (&scriptedCompleter{}).
		on("summarizes web search results", "The capital of Australia is Canberra.")
	searcher := &stubSearcher{resp: &search.Response{Answer: "Canberra is the capital of Australia."}}

	agent := newTestWebSearchAgent(t, model, searcher)
	reply, err := agent.ProcessMessage(context.Background(), "capital of Australia", nil)
	require.NoError(t, err)
	assert.Contains(t, reply, "Canberra")

	prompt := lastPromptContaining(t, model, "summarizes web search results")
	assert.Contains(t, prompt, "Direct answer from the search engine: Canberra is the capital of Australia.")
}

func TestWebSearchFallsBackWhenSearchFails(t *testing.T) {
	model := (&scriptedCompleter{}).
		on("Web search is currently unavailable", "I could not reach the web right now, but from what I know: Go releases twice a year.")
	searcher := &stubSearcher{err: errors.New("tavily unreachable")}

	agent := newTestWebSearchAgent(t, model, searcher)
	reply, err := agent.ProcessMessage(context.Background(), "latest Go release", nil)
	require.NoError(t, err)
	assert.Contains(t, reply, "could not reach the web")
}

func TestWebSearchFallsBackOnEmptyResults(t *testing.T) {
	model := (&scriptedCompleter{}).
		on("Web search is currently unavailable", "No live results were available; answering from memory.")
	searcher := &stubSearcher{resp: &search.Response{}}

	agent := newTestWebSearchAgent(t, model, searcher)
	reply, err := agent.ProcessMessage(context.Background(), "obscure query", nil)
	require.NoError(t, err)
	assert.Contains(t, reply, "answering from memory")
}

func TestWebSearchIncludesHistoryInPrompt(t *testing.T) {
	model := (&scriptedCompleter{}).
		on("summarizes web search results", "Summarized.")
	searcher := &stubSearcher{resp: &search.Response{Results: []search.Result{
		{Title: "hit", URL: "https://example.com", Content: "body"},
	}}}

	agent := newTestWebSearchAgent(t, model, searcher)
	history := historyFixture()
	_, err := agent.ProcessMessage(context.Background(), "follow-up query", history)
	require.NoError(t, err)

	prompt := lastPromptContaining(t, model, "summarizes web search results")
	assert.Contains(t, prompt, "user: Who developed general relativity?")
}
