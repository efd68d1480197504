// Package agents implements the chat agent variants: classify-then-respond
// chains, retrieval-augmented pipelines and ReAct research loops. Every
// variant satisfies core.ChatAgent; New maps a mode to its constructor.
package agents

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/core"
	"github.com/jemygraw/deepresearch/pkg/graph"
	"github.com/jemygraw/deepresearch/pkg/index"
	"github.com/jemygraw/deepresearch/pkg/log"
	"github.com/jemygraw/deepresearch/pkg/search"
	"github.com/jemygraw/deepresearch/pkg/session"
	"github.com/jemygraw/deepresearch/pkg/trace"
)

// Searcher is the slice of the web search client the agents consume.
type Searcher interface {
	Search(ctx context.Context, query string) (*search.Response, error)
}

// New builds the agent variant for the mode. The returned agent still needs
// Initialize before its first turn.
func New(mode core.Mode, cfg *config.Config) (core.ChatAgent, error) {
	switch mode {
	case core.ModeChainingQuery:
		return NewChainingQuery(cfg), nil
	case core.ModeChainingTools:
		return NewChainingTools(cfg), nil
	case core.ModeChainingMemory:
		return NewChainingMemory(cfg), nil
	case core.ModeRAGWebSearch:
		return NewWebSearch(cfg), nil
	case core.ModeRAGDocument:
		return NewDocument(cfg), nil
	case core.ModeRAGCorrective:
		return NewCorrective(cfg), nil
	case core.ModeReactToolUsing:
		return NewToolAgent(cfg), nil
	case core.ModeReactAgenticRAG:
		return NewAgentic(cfg), nil
	case core.ModeReactDeepResearch:
		return NewResearch(cfg), nil
	}
	return nil, &core.UnknownModeError{Mode: string(mode)}
}

// historyText formats the windowed conversation history for prompt use.
func historyText(cfg *config.Config, history []core.Turn) string {
	return session.FormatHistory(session.Window(history, cfg.App.HistoryWindow))
}

// newTracer wires span logging for every graph run, plus OTLP export when
// telemetry is enabled.
func newTracer(cfg *config.Config, logger log.Logger) *graph.Tracer {
	tracer := graph.NewTracer()
	tracer.AddHook(trace.NewLogHook(logger))
	if cfg.Telemetry.Enabled {
		tracer.AddHook(trace.NewOTelHook())
	}
	return tracer
}

// transientRetryPolicy retries graph nodes that failed on transient LLM or
// API errors. Everything else surfaces on the first attempt.
func transientRetryPolicy() *graph.RetryPolicy {
	return &graph.RetryPolicy{
		MaxRetries:      2,
		BackoffStrategy: graph.ExponentialBackoff,
		BaseDelay:       500 * time.Millisecond,
		RetryableErrors: []string{
			"timeout",
			"Timeout",
			"connection refused",
			"connection reset",
			"rate limit",
			"429",
			"500",
			"502",
			"503",
		},
	}
}

// formatChunks renders retrieved chunks the way the retrieval prompts expect:
// one pretty-printed JSON object per chunk, blank-line separated.
func formatChunks(chunks []index.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		doc := map[string]any{
			"id":       i,
			"filename": filepath.Base(chunk.Source),
			"content":  chunk.Content,
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			continue
		}
		parts = append(parts, string(data))
	}
	return strings.Join(parts, "\n\n")
}

// sourceLabel shortens document paths to their file name; URLs pass through
// untouched.
func sourceLabel(src string) string {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}
	return filepath.Base(src)
}
