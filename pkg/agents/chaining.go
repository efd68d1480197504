package agents

import (
	"context"
	"fmt"

	lctools "github.com/tmc/langchaingo/tools"

	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/core"
	"github.com/jemygraw/deepresearch/pkg/graph"
	"github.com/jemygraw/deepresearch/pkg/llm"
	"github.com/jemygraw/deepresearch/pkg/log"
	"github.com/jemygraw/deepresearch/pkg/prompts"
	"github.com/jemygraw/deepresearch/pkg/tools"
)

type chainState struct {
	question   string
	history    string
	category   string
	toolResult string
	toolErr    string
	answer     string
}

// ChainingAgent answers by classifying the question and composing the reply
// with a category-specific prompt. The tools variant adds calculator and
// datetime dispatch; the memory variant folds the conversation history into
// every prompt.
type ChainingAgent struct {
	cfg        *config.Config
	model      llm.Completer
	classifier Classifier
	calculator lctools.Tool
	datetime   lctools.Tool
	withTools  bool
	withMemory bool
	runner     *graph.StateRunnable[chainState]
	logger     log.Logger
}

var _ core.ChatAgent = (*ChainingAgent)(nil)

// NewChainingQuery builds the plain classify-then-respond agent.
func NewChainingQuery(cfg *config.Config) *ChainingAgent {
	return &ChainingAgent{cfg: cfg, logger: log.Default()}
}

// NewChainingTools builds the chaining agent with calculator and datetime
// dispatch.
func NewChainingTools(cfg *config.Config) *ChainingAgent {
	return &ChainingAgent{cfg: cfg, withTools: true, logger: log.Default()}
}

// NewChainingMemory builds the tools variant that also carries conversation
// history.
func NewChainingMemory(cfg *config.Config) *ChainingAgent {
	return &ChainingAgent{cfg: cfg, withTools: true, withMemory: true, logger: log.Default()}
}

// Initialize builds the model, the classifier and the tools, then compiles
// the workflow graph. Collaborators already set stay untouched.
func (a *ChainingAgent) Initialize(_ context.Context) error {
	if a.model == nil {
		model, err := llm.NewChatModel(a.cfg.LLM)
		if err != nil {
			return err
		}
		a.model = model
	}
	if a.classifier == nil {
		a.classifier = &llmClassifier{model: a.model, withTools: a.withTools}
	}
	if a.withTools {
		if a.calculator == nil {
			a.calculator = tools.NewCalculator()
		}
		if a.datetime == nil {
			a.datetime = tools.NewDatetime()
		}
	}

	runner, err := a.buildGraph()
	if err != nil {
		return err
	}
	a.runner = runner.WithTracer(newTracer(a.cfg, a.logger))
	return nil
}

func (a *ChainingAgent) buildGraph() (*graph.StateRunnable[chainState], error) {
	workflow := graph.NewStateGraph[chainState]()
	workflow.SetRetryPolicy(transientRetryPolicy())

	workflow.AddNode("classify", "Classify the question into a response category", a.classifyNode)
	workflow.AddNode("respond", "Compose the reply for the classified category", a.respondNode)
	workflow.SetEntryPoint("classify")

	if a.withTools {
		workflow.AddNode("calculate", "Turn the question into a calculator expression and evaluate it", a.calculateNode)
		workflow.AddNode("datetime", "Look up the current date and time", a.datetimeNode)
		workflow.AddConditionalEdge("classify", func(_ context.Context, s chainState) string {
			return routeAfterClassify(s)
		})
		workflow.AddEdge("calculate", "respond")
		workflow.AddEdge("datetime", "respond")
	} else {
		workflow.AddEdge("classify", "respond")
	}
	workflow.AddEdge("respond", graph.END)

	return workflow.Compile()
}

// routeAfterClassify picks the next node from the already-computed category.
func routeAfterClassify(s chainState) string {
	switch s.category {
	case categoryCalculation:
		return "calculate"
	case categoryDatetime:
		return "datetime"
	}
	return "respond"
}

func (a *ChainingAgent) classifyNode(ctx context.Context, s chainState) (chainState, error) {
	category, err := a.classifier.Classify(ctx, s.question, s.history)
	if err != nil {
		return s, err
	}
	s.category = category
	a.logger.Debug("classified question as %s", category)
	return s, nil
}

func (a *ChainingAgent) calculateNode(ctx context.Context, s chainState) (chainState, error) {
	expression, err := a.model.Complete(ctx, prompts.CalculationExpression(s.history, s.question))
	if err != nil {
		return s, fmt.Errorf("derive expression: %w", err)
	}

	result, err := a.calculator.Call(ctx, expression)
	if err != nil {
		a.logger.Warn("calculator failed on %q: %v", expression, err)
		s.toolErr = err.Error()
		return s, nil
	}
	s.toolResult = result
	return s, nil
}

func (a *ChainingAgent) datetimeNode(ctx context.Context, s chainState) (chainState, error) {
	result, err := a.datetime.Call(ctx, s.question)
	if err != nil {
		a.logger.Warn("datetime tool failed: %v", err)
		s.toolErr = err.Error()
		return s, nil
	}
	s.toolResult = result
	return s, nil
}

// respondNode composes the reply. A tool failure turns into an apology, a
// tool result into a direct answer, everything else into the
// category-specific response.
func (a *ChainingAgent) respondNode(ctx context.Context, s chainState) (chainState, error) {
	var prompt string
	switch {
	case s.toolErr != "":
		prompt = prompts.ToolApology(s.question, s.toolErr)
	case s.toolResult != "":
		prompt = prompts.ToolAnswer(s.history, s.question, s.toolResult)
	default:
		prompt = prompts.ResponseWithHistory(s.category, s.history, s.question)
	}

	answer, err := a.model.Complete(ctx, prompt)
	if err != nil {
		return s, fmt.Errorf("compose reply: %w", err)
	}
	s.answer = answer
	return s, nil
}

// ProcessMessage runs one turn through the chaining graph.
func (a *ChainingAgent) ProcessMessage(ctx context.Context, message string, history []core.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.App.TurnTimeout)
	defer cancel()

	state := chainState{question: message}
	if a.withMemory {
		state.history = historyText(a.cfg, history)
	}

	final, err := a.runner.Invoke(ctx, state)
	if err != nil {
		return "", err
	}
	return final.answer, nil
}
