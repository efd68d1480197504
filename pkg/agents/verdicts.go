package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/jemygraw/deepresearch/pkg/llm"
	"github.com/jemygraw/deepresearch/pkg/prompts"
)

// The verdict interfaces isolate every LLM-backed control decision. Graph
// routing functions stay pure over already-computed state, and tests replace
// the model with fixed outcomes.

// Classifier assigns a question to one label of a closed category set.
type Classifier interface {
	Classify(ctx context.Context, question, history string) (string, error)
}

// RelevanceGrader judges whether a retrieved batch suffices to answer the
// question.
type RelevanceGrader interface {
	Grade(ctx context.Context, question, history, retrievedDocs string) (bool, error)
}

// Evaluation is the outcome of a sufficiency check: the verdict plus feedback
// for the query rewriter when the evidence fell short.
type Evaluation struct {
	Sufficient bool
	Feedback   string
}

// SufficiencyEvaluator judges retrieved evidence against the original
// question inside the agentic retrieval loop.
type SufficiencyEvaluator interface {
	Evaluate(ctx context.Context, question, retrievedDocs string) (Evaluation, error)
}

// RetrievalRouter picks the knowledge source for a query.
type RetrievalRouter interface {
	Route(ctx context.Context, question string) (string, error)
}

// QueryRewriter reformulates a query using evaluator feedback.
type QueryRewriter interface {
	Rewrite(ctx context.Context, question, retrievedDocs, feedback string) (string, error)
}

// ReviewVerdict is the outcome of a section review.
type ReviewVerdict struct {
	Accept   bool
	Feedback string
}

// SectionReviewer judges one drafted report section.
type SectionReviewer interface {
	Review(ctx context.Context, topic, title, content string) (ReviewVerdict, error)
}

const (
	categoryDefault     = "default"
	categoryCalculation = "calculation"
	categoryDatetime    = "datetime"

	sourceDocuments = "documents"
	sourceWeb       = "web"
)

// basicCategories is the closed label set of the plain chaining classifier;
// toolCategories adds the two tool-dispatch labels.
var basicCategories = map[string]bool{
	"factual":       true,
	"analytical":    true,
	"comparison":    true,
	"definition":    true,
	categoryDefault: true,
}

var toolCategories = map[string]bool{
	"factual":           true,
	"analytical":        true,
	"comparison":        true,
	"definition":        true,
	categoryDatetime:    true,
	categoryCalculation: true,
	categoryDefault:     true,
}

type llmClassifier struct {
	model     llm.Completer
	withTools bool
}

// Classify returns one label from the closed set. Anything the model says
// outside the set, including empty output, coerces to default.
func (c *llmClassifier) Classify(ctx context.Context, question, history string) (string, error) {
	var prompt string
	switch {
	case !c.withTools:
		prompt = prompts.Classifier(question)
	case history == "":
		prompt = prompts.ClassifierWithTools(question)
	default:
		prompt = prompts.ClassifierWithHistory(history, question)
	}

	reply, err := c.model.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("classify question: %w", err)
	}

	label := llm.CleanLabel(reply)
	valid := basicCategories
	if c.withTools {
		valid = toolCategories
	}
	if !valid[label] {
		return categoryDefault, nil
	}
	return label, nil
}

type gradeResult struct {
	IsSufficient int `json:"is_sufficient"`
}

type llmRelevanceGrader struct {
	structured llm.StructuredCompleter
}

func (g *llmRelevanceGrader) Grade(ctx context.Context, question, history, retrievedDocs string) (bool, error) {
	var out gradeResult
	prompt := prompts.DocumentGrading(history, question, retrievedDocs)
	if err := g.structured.CompleteStructured(ctx, "retrieval_grade", prompt, &out); err != nil {
		return false, fmt.Errorf("grade retrieval: %w", err)
	}
	return out.IsSufficient == 1, nil
}

type evaluationResult struct {
	Score    string `json:"score"`
	Feedback string `json:"feedback"`
}

type llmSufficiencyEvaluator struct {
	structured llm.StructuredCompleter
}

func (e *llmSufficiencyEvaluator) Evaluate(ctx context.Context, question, retrievedDocs string) (Evaluation, error) {
	var out evaluationResult
	prompt := prompts.DocumentEvaluator(question, retrievedDocs)
	if err := e.structured.CompleteStructured(ctx, "retrieval_evaluation", prompt, &out); err != nil {
		return Evaluation{}, fmt.Errorf("evaluate retrieval: %w", err)
	}
	return Evaluation{
		Sufficient: strings.EqualFold(strings.TrimSpace(out.Score), "yes"),
		Feedback:   out.Feedback,
	}, nil
}

type llmRetrievalRouter struct {
	model llm.Completer
}

// Route answers sourceWeb or sourceDocuments, treating anything unexpected as
// sourceDocuments since local retrieval is the cheaper first try.
func (r *llmRetrievalRouter) Route(ctx context.Context, question string) (string, error) {
	reply, err := r.model.Complete(ctx, prompts.RetrievalRouter(question))
	if err != nil {
		return "", fmt.Errorf("route retrieval: %w", err)
	}
	if llm.CleanLabel(reply) == sourceWeb {
		return sourceWeb, nil
	}
	return sourceDocuments, nil
}

type llmQueryRewriter struct {
	model llm.Completer
}

func (w *llmQueryRewriter) Rewrite(ctx context.Context, question, retrievedDocs, feedback string) (string, error) {
	reply, err := w.model.Complete(ctx, prompts.QueryRewriter(question, retrievedDocs, feedback))
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}
	rewritten := strings.TrimSpace(reply)
	if rewritten == "" {
		return question, nil
	}
	return rewritten, nil
}

type reviewResult struct {
	Verdict  string `json:"verdict"`
	Feedback string `json:"feedback"`
}

type llmSectionReviewer struct {
	structured llm.StructuredCompleter
}

func (r *llmSectionReviewer) Review(ctx context.Context, topic, title, content string) (ReviewVerdict, error) {
	var out reviewResult
	prompt := prompts.SectionReview(topic, title, content)
	if err := r.structured.CompleteStructured(ctx, "section_review", prompt, &out); err != nil {
		return ReviewVerdict{}, fmt.Errorf("review section: %w", err)
	}
	return ReviewVerdict{
		Accept:   strings.EqualFold(strings.TrimSpace(out.Verdict), "accept"),
		Feedback: out.Feedback,
	}, nil
}
