package agents

import (
	"context"
	"fmt"

	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/core"
	"github.com/jemygraw/deepresearch/pkg/graph"
	"github.com/jemygraw/deepresearch/pkg/llm"
	"github.com/jemygraw/deepresearch/pkg/log"
	"github.com/jemygraw/deepresearch/pkg/prompts"
	"github.com/jemygraw/deepresearch/pkg/search"
)

type webSearchState struct {
	query   string
	history string
	results string
	answer  string
}

// WebSearchAgent answers from live search results. When the search fails or
// comes back empty it falls back to the model's own knowledge and says so.
type WebSearchAgent struct {
	cfg    *config.Config
	model  llm.Completer
	search Searcher
	runner *graph.StateRunnable[webSearchState]
	logger log.Logger
}

var _ core.ChatAgent = (*WebSearchAgent)(nil)

// NewWebSearch builds the web-search RAG agent.
func NewWebSearch(cfg *config.Config) *WebSearchAgent {
	return &WebSearchAgent{cfg: cfg, logger: log.Default()}
}

// Initialize builds the model and the search client, then compiles the
// search-and-summarize graph.
func (a *WebSearchAgent) Initialize(_ context.Context) error {
	if a.model == nil {
		model, err := llm.NewChatModel(a.cfg.LLM)
		if err != nil {
			return err
		}
		a.model = model
	}
	if a.search == nil {
		client, err := search.NewTavily(a.cfg.Search.TavilyAPIKey, search.WithIncludeAnswer(true))
		if err != nil {
			return err
		}
		a.search = client
	}

	workflow := graph.NewStateGraph[webSearchState]()
	workflow.SetRetryPolicy(transientRetryPolicy())
	workflow.AddNode("search", "Search the web for the query", a.searchNode)
	workflow.AddNode("summarize", "Summarize the results into a cited answer", a.summarizeNode)
	workflow.SetEntryPoint("search")
	workflow.AddEdge("search", "summarize")
	workflow.AddEdge("summarize", graph.END)

	runner, err := workflow.Compile()
	if err != nil {
		return err
	}
	a.runner = runner.WithTracer(newTracer(a.cfg, a.logger))
	return nil
}

// searchNode leaves the results empty on failure so the summarize node can
// degrade instead of failing the turn.
func (a *WebSearchAgent) searchNode(ctx context.Context, s webSearchState) (webSearchState, error) {
	resp, err := a.search.Search(ctx, s.query)
	if err != nil {
		a.logger.Warn("web search failed: %v", err)
		return s, nil
	}
	if len(resp.Results) == 0 && resp.Answer == "" {
		a.logger.Warn("web search returned no results for %q", s.query)
		return s, nil
	}
	s.results = search.FormatResults(resp.Results)
	if resp.Answer != "" {
		// The engine's own synthesized answer leads the context so the
		// summarizer weighs it before the individual hits.
		direct := "Direct answer from the search engine: " + resp.Answer
		if s.results == "" {
			s.results = direct
		} else {
			s.results = direct + "\n\n" + s.results
		}
	}
	return s, nil
}

func (a *WebSearchAgent) summarizeNode(ctx context.Context, s webSearchState) (webSearchState, error) {
	prompt := prompts.WebSearchSummarizer(s.history, s.query, s.results)
	if s.results == "" {
		prompt = prompts.WebSearchFallback(s.query)
	}

	answer, err := a.model.Complete(ctx, prompt)
	if err != nil {
		return s, fmt.Errorf("summarize results: %w", err)
	}
	s.answer = answer
	return s, nil
}

// ProcessMessage runs one turn through the search-and-summarize graph.
func (a *WebSearchAgent) ProcessMessage(ctx context.Context, message string, history []core.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.App.TurnTimeout)
	defer cancel()

	final, err := a.runner.Invoke(ctx, webSearchState{
		query:   message,
		history: historyText(a.cfg, history),
	})
	if err != nil {
		return "", err
	}
	return final.answer, nil
}
