package agents

import (
	"context"
	"fmt"

	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/core"
	"github.com/jemygraw/deepresearch/pkg/graph"
	"github.com/jemygraw/deepresearch/pkg/index"
	"github.com/jemygraw/deepresearch/pkg/llm"
	"github.com/jemygraw/deepresearch/pkg/log"
	"github.com/jemygraw/deepresearch/pkg/prompts"
	"github.com/jemygraw/deepresearch/pkg/search"
)

type correctiveState struct {
	question   string
	history    string
	docText    string
	webText    string
	sufficient bool
	answer     string
}

// CorrectiveAgent grades local retrieval and corrects with web search when
// the grade judges the retrieved batch insufficient. The web path joins its
// results onto the local context rather than replacing it; the generation
// cites document and web sources apart.
type CorrectiveAgent struct {
	cfg        *config.Config
	structured llm.StructuredCompleter
	grader     RelevanceGrader
	index      index.Index
	search     Searcher
	runner     *graph.StateRunnable[correctiveState]
	logger     log.Logger
}

var _ core.ChatAgent = (*CorrectiveAgent)(nil)

// NewCorrective builds the corrective RAG agent.
func NewCorrective(cfg *config.Config) *CorrectiveAgent {
	return &CorrectiveAgent{cfg: cfg, logger: log.Default()}
}

// Initialize builds the clients, the grader and the index, then compiles the
// corrective state machine.
func (a *CorrectiveAgent) Initialize(ctx context.Context) error {
	if a.structured == nil {
		a.structured = llm.NewStructuredClient(a.cfg.LLM)
	}
	if a.grader == nil {
		a.grader = &llmRelevanceGrader{structured: a.structured}
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

	workflow := graph.NewStateGraph[correctiveState]()
	workflow.SetRetryPolicy(transientRetryPolicy())
	workflow.AddNode("retrieve_local", "Retrieve candidate chunks from the document index", a.retrieveLocalNode)
	workflow.AddNode("grade", "Grade whether the retrieved batch can answer the question", a.gradeNode)
	workflow.AddNode("retrieve_web", "Search the web for the missing context", a.retrieveWebNode)
	workflow.AddNode("generate", "Generate the answer from the gathered context", a.generateNode)
	workflow.SetEntryPoint("retrieve_local")
	workflow.AddEdge("retrieve_local", "grade")
	workflow.AddConditionalEdge("grade", func(_ context.Context, s correctiveState) string {
		return routeAfterGrade(s)
	})
	workflow.AddEdge("retrieve_web", "generate")
	workflow.AddEdge("generate", graph.END)

	runner, err := workflow.Compile()
	if err != nil {
		return err
	}
	a.runner = runner.WithTracer(newTracer(a.cfg, a.logger))
	return nil
}

// routeAfterGrade picks the branch from the already-computed grade.
func routeAfterGrade(s correctiveState) string {
	if s.sufficient {
		return "generate"
	}
	return "retrieve_web"
}

func (a *CorrectiveAgent) retrieveLocalNode(ctx context.Context, s correctiveState) (correctiveState, error) {
	chunks, err := a.index.Search(ctx, s.question, correctiveTopK)
	if err != nil {
		return s, fmt.Errorf("search index: %w", err)
	}
	s.docText = formatChunks(chunks)
	return s, nil
}

// gradeNode asks the grader for the binary verdict. An empty retrieval is
// insufficient without asking.
func (a *CorrectiveAgent) gradeNode(ctx context.Context, s correctiveState) (correctiveState, error) {
	if s.docText == "" {
		s.sufficient = false
		return s, nil
	}
	sufficient, err := a.grader.Grade(ctx, s.question, s.history, s.docText)
	if err != nil {
		return s, err
	}
	s.sufficient = sufficient
	a.logger.Debug("local retrieval graded sufficient=%t", sufficient)
	return s, nil
}

// retrieveWebNode degrades to the local context on search failure so the
// turn still produces an answer.
func (a *CorrectiveAgent) retrieveWebNode(ctx context.Context, s correctiveState) (correctiveState, error) {
	resp, err := a.search.Search(ctx, s.question)
	if err != nil {
		a.logger.Warn("web search failed, answering from local context: %v", err)
		return s, nil
	}
	s.webText = search.FormatResults(resp.Results)
	return s, nil
}

func (a *CorrectiveAgent) generateNode(ctx context.Context, s correctiveState) (correctiveState, error) {
	contextText := s.docText
	prompt := prompts.DocumentRAG(s.history, s.question, contextText)
	if s.webText != "" {
		if contextText != "" {
			contextText += "\n\n"
		}
		contextText += s.webText
		prompt = prompts.CorrectiveGeneration(s.history, s.question, contextText)
	}

	var out RagGenerationResponse
	if err := a.structured.CompleteStructured(ctx, "rag_generation", prompt, &out); err != nil {
		return s, fmt.Errorf("generate answer: %w", err)
	}
	s.answer = formatRagAnswer(out)
	return s, nil
}

// ProcessMessage runs one turn through the corrective state machine.
func (a *CorrectiveAgent) ProcessMessage(ctx context.Context, message string, history []core.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.App.TurnTimeout)
	defer cancel()

	final, err := a.runner.Invoke(ctx, correctiveState{
		question: message,
		history:  historyText(a.cfg, history),
	})
	if err != nil {
		return "", err
	}
	return final.answer, nil
}
