package core

import (
	"fmt"
	"strings"
)

// Mode identifies an agent variant.
type Mode string

const (
	ModeChainingQuery  Mode = "llm_chaining_query"
	ModeChainingTools  Mode = "llm_chaining_tools"
	ModeChainingMemory Mode = "llm_chaining_memory"

	ModeRAGWebSearch  Mode = "rag_web_search"
	ModeRAGDocument   Mode = "rag_document"
	ModeRAGCorrective Mode = "rag_corrective"

	ModeReactToolUsing    Mode = "react_tool_using"
	ModeReactAgenticRAG   Mode = "react_agentic_rag"
	ModeReactDeepResearch Mode = "react_deep_research"
)

// Modes lists every agent mode in presentation order.
func Modes() []Mode {
	return []Mode{
		ModeChainingQuery,
		ModeChainingTools,
		ModeChainingMemory,
		ModeRAGWebSearch,
		ModeRAGDocument,
		ModeRAGCorrective,
		ModeReactToolUsing,
		ModeReactAgenticRAG,
		ModeReactDeepResearch,
	}
}

// Description returns a short human-readable summary of the mode.
func (m Mode) Description() string {
	switch m {
	case ModeChainingQuery:
		return "Classify the query, then answer with a category-specific prompt"
	case ModeChainingTools:
		return "Query chaining with calculator and datetime tools"
	case ModeChainingMemory:
		return "Query chaining with tools and conversation memory"
	case ModeRAGWebSearch:
		return "Answer from live web search results with cited sources"
	case ModeRAGDocument:
		return "Answer from the local document index"
	case ModeRAGCorrective:
		return "Grade local retrieval and fall back to web search when it is insufficient"
	case ModeReactToolUsing:
		return "ReAct reasoning loop over the registered tools"
	case ModeReactAgenticRAG:
		return "Retrieval loop that rewrites the query across bounded iterations"
	case ModeReactDeepResearch:
		return "Multi-role research pipeline producing a long-form report"
	default:
		return string(m)
	}
}

// Family returns the variant family the mode belongs to.
func (m Mode) Family() string {
	switch m {
	case ModeChainingQuery, ModeChainingTools, ModeChainingMemory:
		return "chaining"
	case ModeRAGWebSearch, ModeRAGDocument, ModeRAGCorrective:
		return "rag"
	case ModeReactToolUsing, ModeReactAgenticRAG, ModeReactDeepResearch:
		return "react"
	}
	return "unknown"
}

// WantsWebSearch reports whether the mode reaches out to the web search API.
func (m Mode) WantsWebSearch() bool {
	switch m {
	case ModeRAGWebSearch, ModeRAGCorrective, ModeReactToolUsing, ModeReactAgenticRAG, ModeReactDeepResearch:
		return true
	}
	return false
}

// WantsDocumentIndex reports whether the mode retrieves from the document index.
func (m Mode) WantsDocumentIndex() bool {
	switch m {
	case ModeRAGDocument, ModeRAGCorrective, ModeReactToolUsing, ModeReactAgenticRAG:
		return true
	}
	return false
}

// UnknownModeError reports a mode identifier that matched neither a specific
// mode nor one of the high-level aliases.
type UnknownModeError struct {
	Mode string
}

func (e *UnknownModeError) Error() string {
	names := make([]string, 0, len(Modes()))
	for _, m := range Modes() {
		names = append(names, string(m))
	}
	return fmt.Sprintf("unknown agent mode %q (valid modes: %s)", e.Mode, strings.Join(names, ", "))
}

// aliases maps the high-level family names to their default variant. Keys are
// lowercase; ReaAct_Multi_Agent keeps the historical spelling alongside the
// plain one.
var aliases = map[string]Mode{
	"llm_chaining":       ModeChainingMemory,
	"llm_rag_tools":      ModeRAGCorrective,
	"reaact_multi_agent": ModeReactDeepResearch,
	"react_multi_agent":  ModeReactDeepResearch,
}

// ParseMode resolves a mode identifier or family alias, case-insensitively.
func ParseMode(name string) (Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if mode, ok := aliases[normalized]; ok {
		return mode, nil
	}
	for _, mode := range Modes() {
		if normalized == string(mode) {
			return mode, nil
		}
	}
	return "", &UnknownModeError{Mode: name}
}
