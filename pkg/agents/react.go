package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lctools "github.com/tmc/langchaingo/tools"

	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/core"
	"github.com/jemygraw/deepresearch/pkg/graph"
	"github.com/jemygraw/deepresearch/pkg/llm"
	"github.com/jemygraw/deepresearch/pkg/log"
	"github.com/jemygraw/deepresearch/pkg/prompts"
	"github.com/jemygraw/deepresearch/pkg/search"
	"github.com/jemygraw/deepresearch/pkg/session"
	"github.com/jemygraw/deepresearch/pkg/tools"
)

// maxToolTurns bounds the ReAct loop; past it the agent is told to wrap up.
const maxToolTurns = 10

type reactState struct {
	messages   []llms.MessageContent
	iterations int
}

// ToolAgent runs the ReAct loop: the model alternates between requesting
// tool calls and replying, and tool results feed the next decision.
type ToolAgent struct {
	cfg    *config.Config
	model  llms.Model
	tools  []lctools.Tool
	byName map[string]lctools.Tool
	runner *graph.StateRunnable[reactState]
	logger log.Logger
}

var _ core.ChatAgent = (*ToolAgent)(nil)

// NewToolAgent builds the tool-using ReAct agent.
func NewToolAgent(cfg *config.Config) *ToolAgent {
	return &ToolAgent{cfg: cfg, logger: log.Default()}
}

// Initialize builds the model and the tool belt (web search, document
// search, calculator, datetime, weather), then compiles the loop graph.
func (a *ToolAgent) Initialize(ctx context.Context) error {
	if a.model == nil {
		chat, err := llm.NewChatModel(a.cfg.LLM)
		if err != nil {
			return err
		}
		a.model = chat.Model()
	}
	if a.tools == nil {
		searchClient, err := search.NewTavily(a.cfg.Search.TavilyAPIKey)
		if err != nil {
			return err
		}
		idx, err := buildIndex(ctx, a.cfg, a.logger)
		if err != nil {
			return err
		}
		a.tools = []lctools.Tool{
			tools.NewWebSearch(searchClient),
			tools.NewDocumentSearch(idx),
			tools.NewCalculator(),
			tools.NewDatetime(),
			tools.NewWeather(),
		}
	}
	a.byName = make(map[string]lctools.Tool, len(a.tools))
	for _, t := range a.tools {
		a.byName[t.Name()] = t
	}

	workflow := graph.NewStateGraph[reactState]()
	workflow.SetRetryPolicy(transientRetryPolicy())
	workflow.AddNode("agent", "Decide between answering and calling tools", a.agentNode)
	workflow.AddNode("tools", "Execute the requested tool calls", a.toolsNode)
	workflow.SetEntryPoint("agent")
	workflow.AddConditionalEdge("agent", func(_ context.Context, s reactState) string {
		return routeAfterAgent(s)
	})
	workflow.AddEdge("tools", "agent")

	runner, err := workflow.Compile()
	if err != nil {
		return err
	}
	a.runner = runner.WithTracer(newTracer(a.cfg, a.logger))
	return nil
}

// routeAfterAgent continues to the tool node only when the last message
// requested tool calls.
func routeAfterAgent(s reactState) string {
	if len(s.messages) == 0 {
		return graph.END
	}
	last := s.messages[len(s.messages)-1]
	for _, part := range last.Parts {
		if _, ok := part.(llms.ToolCall); ok {
			return "tools"
		}
	}
	return graph.END
}

func (a *ToolAgent) agentNode(ctx context.Context, s reactState) (reactState, error) {
	if s.iterations >= maxToolTurns {
		s.messages = append(s.messages, llms.TextParts(llms.ChatMessageTypeAI,
			"I could not settle on an answer within the tool budget. Please try a narrower question."))
		return s, nil
	}
	s.iterations++

	resp, err := a.model.GenerateContent(ctx, s.messages, llms.WithTools(a.toolDefs()))
	if err != nil {
		return s, fmt.Errorf("agent turn: %w", err)
	}
	if len(resp.Choices) == 0 {
		return s, fmt.Errorf("agent turn: no choices returned")
	}
	choice := resp.Choices[0]

	aiMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
	if choice.Content != "" {
		aiMsg.Parts = append(aiMsg.Parts, llms.TextPart(choice.Content))
	}
	for _, tc := range choice.ToolCalls {
		aiMsg.Parts = append(aiMsg.Parts, tc)
	}
	s.messages = append(s.messages, aiMsg)
	return s, nil
}

func (a *ToolAgent) toolsNode(ctx context.Context, s reactState) (reactState, error) {
	last := s.messages[len(s.messages)-1]
	for _, part := range last.Parts {
		tc, ok := part.(llms.ToolCall)
		if !ok {
			continue
		}
		s.messages = append(s.messages, llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{
				llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    a.callTool(ctx, tc),
				},
			},
		})
	}
	return s, nil
}

// callTool executes one requested call. Failures come back as text so the
// model can recover instead of aborting the loop.
func (a *ToolAgent) callTool(ctx context.Context, tc llms.ToolCall) string {
	tool, ok := a.byName[tc.FunctionCall.Name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", tc.FunctionCall.Name)
	}

	input := tc.FunctionCall.Arguments
	var args map[string]any
	if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err == nil {
		if v, ok := args["input"].(string); ok {
			input = v
		}
	}

	result, err := tool.Call(ctx, input)
	if err != nil {
		a.logger.Warn("tool %s failed: %v", tc.FunctionCall.Name, err)
		return fmt.Sprintf("Error: %v", err)
	}
	return result
}

// toolDefs converts the registered tools into function definitions with a
// single string input, the shape every tool's Call accepts.
func (a *ToolAgent) toolDefs() []llms.Tool {
	defs := make([]llms.Tool, 0, len(a.tools))
	for _, t := range a.tools {
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input": map[string]any{
							"type":        "string",
							"description": "The input query for the tool",
						},
					},
					"required":             []string{"input"},
					"additionalProperties": false,
				},
			},
		})
	}
	return defs
}

// ProcessMessage runs one turn of the ReAct loop over the system prompt, the
// windowed history and the new message.
func (a *ToolAgent) ProcessMessage(ctx context.Context, message string, history []core.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.App.TurnTimeout)
	defer cancel()

	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, prompts.AgentSystem))
	for _, turn := range session.Window(history, a.cfg.App.HistoryWindow) {
		role := llms.ChatMessageTypeHuman
		if turn.Role == core.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, message))

	final, err := a.runner.Invoke(ctx, reactState{messages: messages})
	if err != nil {
		return "", err
	}
	if answer := lastAssistantText(final.messages); answer != "" {
		return answer, nil
	}
	return "I wasn't able to find an answer to that.", nil
}

// lastAssistantText extracts the text of the most recent AI message that
// carries any.
func lastAssistantText(messages []llms.MessageContent) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != llms.ChatMessageTypeAI {
			continue
		}
		var b strings.Builder
		for _, part := range messages[i].Parts {
			if text, ok := part.(llms.TextContent); ok {
				b.WriteString(text.Text)
			}
		}
		if b.Len() > 0 {
			return strings.TrimSpace(b.String())
		}
	}
	return ""
}
