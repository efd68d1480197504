package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jemygraw/deepresearch/pkg/index"
	"github.com/jemygraw/deepresearch/pkg/log"
	"github.com/jemygraw/deepresearch/pkg/search"
)

func ragGenerationFill(answer string, sources ...string) func(string, string, any) error {
	return func(name, _ string, out any) error {
		if name == "rag_generation" {
			*out.(*RagGenerationResponse) = RagGenerationResponse{Answer: answer, Sources: sources}
		}
		return nil
	}
}

func newTestCorrectiveAgent(t *testing.T, structured *stubStructured, grader RelevanceGrader, idx index.Index, searcher Searcher) *CorrectiveAgent {
	t.Helper()
	agent := NewCorrective(testConfig(t))
	agent.structured = structured
	agent.grader = grader
	agent.index = idx
	agent.search = searcher
	agent.logger = log.NoOpLogger{}
	require.NoError(t, agent.Initialize(context.Background()))
	return agent
}

func TestCorrectiveSufficientSkipsWeb(t *testing.T) {
	structured := &stubStructured{fill: ragGenerationFill("Answered from documents.", "opm_2021.pdf")}
	grader := &stubGrader{sufficient: true}
	searcher := &stubSearcher{resp: &search.Response{}}

	agent := newTestCorrectiveAgent(t, structured, grader, &stubIndex{chunks: opmChunks()}, searcher)
	reply, err := agent.ProcessMessage(context.Background(), "Was the 2021 telework goal met?", nil)
	require.NoError(t, err)

	assert.Contains(t, reply, "Answered from documents.")
	assert.Equal(t, 1, grader.calls)
	assert.Zero(t, searcher.searchCount(), "web search must not run when local context suffices")
}

func TestCorrectiveInsufficientFallsBackToWeb(t *testing.T) {
	structured := &stubStructured{fill: ragGenerationFill("Blended answer.", "opm_2021.pdf", "https://news.example.com")}
	grader := &stubGrader{sufficient: false}
	searcher := &stubSearcher{resp: &search.Response{Results: []search.Result{
		{Title: "OPM staffing news", URL: "https://news.example.com", Content: "Recent coverage of staffing goals."},
	}}}

	agent := newTestCorrectiveAgent(t, structured, grader, &stubIndex{chunks: opmChunks()}, searcher)
	reply, err := agent.ProcessMessage(context.Background(), "How did staffing goals evolve recently?", nil)
	require.NoError(t, err)

	assert.Contains(t, reply, "Blended answer.")
	assert.Equal(t, 1, searcher.searchCount())

	prompt := structured.prompts[len(structured.prompts)-1]
	assert.Contains(t, prompt, "The context below mixes", "mixed context must use the blended prompt")
	assert.Contains(t, prompt, "opm_2021.pdf")
	assert.Contains(t, prompt, "OPM staffing news")
}

func TestCorrectiveEmptyIndexSkipsGrading(t *testing.T) {
	structured := &stubStructured{fill: ragGenerationFill("From the web only.")}
	grader := &stubGrader{sufficient: true}
	searcher := &stubSearcher{resp: &search.Response{Results: []search.Result{
		{Title: "hit", URL: "https://example.com", Content: "body"},
	}}}

	agent := newTestCorrectiveAgent(t, structured, grader, &stubIndex{}, searcher)
	_, err := agent.ProcessMessage(context.Background(), "anything", nil)
	require.NoError(t, err)

	assert.Zero(t, grader.calls, "an empty retrieval needs no grading")
	assert.Equal(t, 1, searcher.searchCount())
}

func TestCorrectiveWebFailureStillAnswers(t *testing.T) {
	structured := &stubStructured{fill: ragGenerationFill("Local best effort.")}
	grader := &stubGrader{sufficient: false}
	searcher := &stubSearcher{err: errors.New("tavily unreachable")}

	agent := newTestCorrectiveAgent(t, structured, grader, &stubIndex{chunks: opmChunks()}, searcher)
	reply, err := agent.ProcessMessage(context.Background(), "anything", nil)
	require.NoError(t, err)

	assert.Contains(t, reply, "Local best effort.")
	prompt := structured.prompts[len(structured.prompts)-1]
	assert.NotContains(t, prompt, "The context below mixes", "without web context the documents prompt applies")
}

func TestCorrectiveRetrievesDeeperThanDocumentAgent(t *testing.T) {
	structured := &stubStructured{fill: ragGenerationFill("ok")}
	idx := &stubIndex{chunks: opmChunks()}

	agent := newTestCorrectiveAgent(t, structured, &stubGrader{sufficient: true}, idx, &stubSearcher{})
	_, err := agent.ProcessMessage(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, []int{correctiveTopK}, idx.ks)
}

func TestRouteAfterGrade(t *testing.T) {
	assert.Equal(t, "generate", routeAfterGrade(correctiveState{sufficient: true}))
	assert.Equal(t, "retrieve_web", routeAfterGrade(correctiveState{sufficient: false}))
}
