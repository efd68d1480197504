package agents

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/core"
	"github.com/jemygraw/deepresearch/pkg/graph"
	"github.com/jemygraw/deepresearch/pkg/index"
	"github.com/jemygraw/deepresearch/pkg/llm"
	"github.com/jemygraw/deepresearch/pkg/log"
	"github.com/jemygraw/deepresearch/pkg/prompts"
)

// Retrieval depths of the document-backed agents.
const (
	documentTopK   = 4
	correctiveTopK = 10
	agenticTopK    = 4
)

// RagGenerationResponse is the structured generation result of the
// document-backed agents: the grounded answer plus the sources it cites.
type RagGenerationResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

type docRAGState struct {
	question string
	history  string
	docText  string
	answer   string
}

// DocumentAgent answers strictly from the local document index, ingested
// once at initialization.
type DocumentAgent struct {
	cfg        *config.Config
	structured llm.StructuredCompleter
	index      index.Index
	runner     *graph.StateRunnable[docRAGState]
	logger     log.Logger
}

var _ core.ChatAgent = (*DocumentAgent)(nil)

// NewDocument builds the document RAG agent.
func NewDocument(cfg *config.Config) *DocumentAgent {
	return &DocumentAgent{cfg: cfg, logger: log.Default()}
}

// Initialize builds the structured client and the document index, ingests
// the corpus, then compiles the retrieve-and-generate graph.
func (a *DocumentAgent) Initialize(ctx context.Context) error {
	if a.structured == nil {
		a.structured = llm.NewStructuredClient(a.cfg.LLM)
	}
	if a.index == nil {
		idx, err := buildIndex(ctx, a.cfg, a.logger)
		if err != nil {
			return err
		}
		a.index = idx
	}

	workflow := graph.NewStateGraph[docRAGState]()
	workflow.SetRetryPolicy(transientRetryPolicy())
	workflow.AddNode("retrieve", "Retrieve the top matching chunks from the index", a.retrieveNode)
	workflow.AddNode("generate", "Generate a grounded answer with sources", a.generateNode)
	workflow.SetEntryPoint("retrieve")
	workflow.AddEdge("retrieve", "generate")
	workflow.AddEdge("generate", graph.END)

	runner, err := workflow.Compile()
	if err != nil {
		return err
	}
	a.runner = runner.WithTracer(newTracer(a.cfg, a.logger))
	return nil
}

// buildIndex constructs the configured index backend and ingests the
// documents directory. A missing directory leaves the index empty instead of
// failing initialization.
func buildIndex(ctx context.Context, cfg *config.Config, logger log.Logger) (index.Index, error) {
	embedder, err := llm.NewEmbedder(cfg.LLM)
	if err != nil {
		return nil, err
	}
	idx, err := index.New(ctx, cfg.Index, embedder)
	if err != nil {
		return nil, err
	}

	count, err := index.Ingest(ctx, idx, cfg.Index.DocumentsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("documents directory %s not found, the index starts empty", cfg.Index.DocumentsDir)
			return idx, nil
		}
		return nil, fmt.Errorf("ingest documents: %w", err)
	}
	logger.Info("indexed %d chunks from %s", count, cfg.Index.DocumentsDir)
	return idx, nil
}

func (a *DocumentAgent) retrieveNode(ctx context.Context, s docRAGState) (docRAGState, error) {
	chunks, err := a.index.Search(ctx, s.question, documentTopK)
	if err != nil {
		return s, fmt.Errorf("search index: %w", err)
	}
	s.docText = formatChunks(chunks)
	return s, nil
}

func (a *DocumentAgent) generateNode(ctx context.Context, s docRAGState) (docRAGState, error) {
	var out RagGenerationResponse
	prompt := prompts.DocumentRAG(s.history, s.question, s.docText)
	if err := a.structured.CompleteStructured(ctx, "rag_generation", prompt, &out); err != nil {
		return s, fmt.Errorf("generate answer: %w", err)
	}
	s.answer = formatRagAnswer(out)
	return s, nil
}

// formatRagAnswer renders the structured generation as the chat reply.
func formatRagAnswer(out RagGenerationResponse) string {
	var b strings.Builder
	b.WriteString("Answer: ")
	b.WriteString(strings.TrimSpace(out.Answer))
	b.WriteString("\n")
	if len(out.Sources) > 0 {
		b.WriteString("\nSources:\n")
		for _, src := range out.Sources {
			b.WriteString("- ")
			b.WriteString(sourceLabel(src))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ProcessMessage runs one turn through the retrieve-and-generate graph.
func (a *DocumentAgent) ProcessMessage(ctx context.Context, message string, history []core.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.App.TurnTimeout)
	defer cancel()

	final, err := a.runner.Invoke(ctx, docRAGState{
		question: message,
		history:  historyText(a.cfg, history),
	})
	if err != nil {
		return "", err
	}
	return final.answer, nil
}
