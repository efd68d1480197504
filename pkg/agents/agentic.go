package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/core"
	"github.com/jemygraw/deepresearch/pkg/graph"
	"github.com/jemygraw/deepresearch/pkg/index"
	"github.com/jemygraw/deepresearch/pkg/llm"
	"github.com/jemygraw/deepresearch/pkg/log"
	"github.com/jemygraw/deepresearch/pkg/prompts"
	"github.com/jemygraw/deepresearch/pkg/search"
)

type agenticState struct {
	original   string
	query      string
	source     string
	evidence   []string
	sufficient bool
	feedback   string
	iteration  int
	answer     string
}

// evidenceText joins everything gathered so far. Evaluation and generation
// always see the full set, not just the latest retrieval.
func evidenceText(s agenticState) string {
	return strings.Join(s.evidence, "\n\n")
}

// AgenticAgent runs the bounded retrieval loop: pick a source, retrieve,
// evaluate, and rewrite the query from the feedback until the evidence is
// sufficient or the iteration budget is spent. The cap exit still generates
// an answer from the best-available evidence.
type AgenticAgent struct {
	cfg       *config.Config
	model     llm.Completer
	router    RetrievalRouter
	evaluator SufficiencyEvaluator
	rewriter  QueryRewriter
	index     index.Index
	search    Searcher
	runner    *graph.StateRunnable[agenticState]
	logger    log.Logger
}

var _ core.ChatAgent = (*AgenticAgent)(nil)

// NewAgentic builds the agentic retrieval-loop agent.
func NewAgentic(cfg *config.Config) *AgenticAgent {
	return &AgenticAgent{cfg: cfg, logger: log.Default()}
}

// Initialize builds the model, the verdict implementations and both
// retrieval backends, then compiles the loop graph.
func (a *AgenticAgent) Initialize(ctx context.Context) error {
	if a.model == nil {
		model, err := llm.NewChatModel(a.cfg.LLM)
		if err != nil {
			return err
		}
		a.model = model
	}
	if a.router == nil {
		a.router = &llmRetrievalRouter{model: a.model}
	}
	if a.evaluator == nil {
		a.evaluator = &llmSufficiencyEvaluator{structured: llm.NewStructuredClient(a.cfg.LLM)}
	}
	if a.rewriter == nil {
		a.rewriter = &llmQueryRewriter{model: a.model}
	}
	if a.index == nil {
		idx, err := buildIndex(ctx, a.cfg, a.logger)
		if err != nil {
			return err
		}
		a.index = idx
	}
	if a.search == nil {
		client, err := search.NewTavily(a.cfg.Search.TavilyAPIKey)
		if err != nil {
			return err
		}
		a.search = client
	}

	workflow := graph.NewStateGraph[agenticState]()
	workflow.SetRetryPolicy(transientRetryPolicy())
	workflow.AddNode("route", "Pick the knowledge source for the current query", a.routeNode)
	workflow.AddNode("retrieve", "Retrieve evidence from the chosen source", a.retrieveNode)
	workflow.AddNode("evaluate", "Judge whether the evidence answers the question", a.evaluateNode)
	workflow.AddNode("rewrite", "Rewrite the query from the evaluator feedback", a.rewriteNode)
	workflow.AddNode("generate", "Synthesize the answer from the gathered evidence", a.generateNode)
	workflow.SetEntryPoint("route")
	workflow.AddEdge("route", "retrieve")
	workflow.AddEdge("retrieve", "evaluate")
	workflow.AddConditionalEdge("evaluate", func(_ context.Context, s agenticState) string {
		return routeAfterEvaluate(s, a.cfg.App.MaxIterations)
	})
	workflow.AddEdge("rewrite", "route")
	workflow.AddEdge("generate", graph.END)

	runner, err := workflow.Compile()
	if err != nil {
		return err
	}
	a.runner = runner.WithTracer(newTracer(a.cfg, a.logger))
	return nil
}

// routeAfterEvaluate ends the loop on sufficient evidence or a spent
// iteration budget; otherwise the query goes back through the rewriter.
func routeAfterEvaluate(s agenticState, maxIterations int) string {
	if s.sufficient || s.iteration >= maxIterations {
		return "generate"
	}
	return "rewrite"
}

func (a *AgenticAgent) routeNode(ctx context.Context, s agenticState) (agenticState, error) {
	s.iteration++
	source, err := a.router.Route(ctx, s.query)
	if err != nil {
		return s, err
	}
	s.source = source
	a.logger.Debug("iteration %d retrieves from %s for %q", s.iteration, source, s.query)
	return s, nil
}

// retrieveNode appends this iteration's hits to the gathered evidence, so
// earlier iterations survive into evaluation and the cap-exit generation. A
// failed web search adds nothing; the evaluator then sends the loop around
// again or the cap exit generates regardless.
func (a *AgenticAgent) retrieveNode(ctx context.Context, s agenticState) (agenticState, error) {
	var text string
	if s.source == sourceWeb {
		resp, err := a.search.Search(ctx, s.query)
		if err != nil {
			a.logger.Warn("web search failed: %v", err)
			return s, nil
		}
		text = search.FormatResults(resp.Results)
	} else {
		chunks, err := a.index.Search(ctx, s.query, agenticTopK)
		if err != nil {
			return s, fmt.Errorf("search index: %w", err)
		}
		text = formatChunks(chunks)
	}
	if text != "" {
		s.evidence = append(s.evidence,
			fmt.Sprintf("Evidence from %s for query %q:\n%s", s.source, s.query, text))
	}
	return s, nil
}

func (a *AgenticAgent) evaluateNode(ctx context.Context, s agenticState) (agenticState, error) {
	eval, err := a.evaluator.Evaluate(ctx, s.original, evidenceText(s))
	if err != nil {
		return s, err
	}
	s.sufficient = eval.Sufficient
	s.feedback = eval.Feedback
	return s, nil
}

func (a *AgenticAgent) rewriteNode(ctx context.Context, s agenticState) (agenticState, error) {
	rewritten, err := a.rewriter.Rewrite(ctx, s.query, evidenceText(s), s.feedback)
	if err != nil {
		return s, err
	}
	a.logger.Debug("rewrote query to %q", rewritten)
	s.query = rewritten
	return s, nil
}

func (a *AgenticAgent) generateNode(ctx context.Context, s agenticState) (agenticState, error) {
	answer, err := a.model.Complete(ctx, prompts.DocumentSynthesizer(s.original, evidenceText(s)))
	if err != nil {
		return s, fmt.Errorf("synthesize answer: %w", err)
	}
	s.answer = answer
	return s, nil
}

// ProcessMessage runs one turn through the retrieval loop.
func (a *AgenticAgent) ProcessMessage(ctx context.Context, message string, history []core.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.App.TurnTimeout)
	defer cancel()

	final, err := a.runner.Invoke(ctx, agenticState{original: message, query: message})
	if err != nil {
		return "", err
	}
	return final.answer, nil
}
