package agents

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/core"
	"github.com/jemygraw/deepresearch/pkg/index"
	"github.com/jemygraw/deepresearch/pkg/search"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{
			TurnTimeout:   5 * time.Second,
			HistoryWindow: 20,
			MaxIterations: 3,
			MaxRevisions:  2,
			ReportPath:    filepath.Join(t.TempDir(), "report.md"),
		},
	}
}

func historyFixture() []core.Turn {
	return []core.Turn{
		{Role: core.RoleUser, Content: "Who developed general relativity?"},
		{Role: core.RoleAssistant, Content: "Albert Einstein."},
	}
}

// scriptedCompleter replies from substring rules checked in registration
// order. An empty substring matches every prompt.
type completionRule struct {
	contains string
	reply    string
}

type scriptedCompleter struct {
	mu    sync.Mutex
	rules []completionRule
	err   error
	calls []string
}

func (c *scriptedCompleter) on(substr, reply string) *scriptedCompleter {
	c.rules = append(c.rules, completionRule{contains: substr, reply: reply})
	return c
}

func (c *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.calls = append(c.calls, prompt)
	for _, rule := range c.rules {
		if strings.Contains(prompt, rule.contains) {
			return rule.reply, nil
		}
	}
	return "stub reply", nil
}

func (c *scriptedCompleter) prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// stubStructured fills structured outputs through a test-provided function
// and records the schema names and prompts it saw.
type stubStructured struct {
	mu      sync.Mutex
	fill    func(name, prompt string, out any) error
	names   []string
	prompts []string
}

func (s *stubStructured) CompleteStructured(_ context.Context, name, prompt string, out any) error {
	s.mu.Lock()
	s.names = append(s.names, name)
	s.prompts = append(s.prompts, prompt)
	fill := s.fill
	s.mu.Unlock()
	if fill == nil {
		return nil
	}
	return fill(name, prompt, out)
}

func (s *stubStructured) calls(name string) int {
	return len(s.promptsFor(name))
}

func (s *stubStructured) promptsFor(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for i, n := range s.names {
		if n == name {
			out = append(out, s.prompts[i])
		}
	}
	return out
}

type stubClassifier struct {
	label string
	err   error
}

func (s stubClassifier) Classify(context.Context, string, string) (string, error) {
	return s.label, s.err
}

type stubGrader struct {
	mu         sync.Mutex
	sufficient bool
	calls      int
}

func (s *stubGrader) Grade(context.Context, string, string, string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.sufficient, nil
}

type stubEvaluator struct {
	mu         sync.Mutex
	sufficient bool
	feedback   string
	calls      int
	docs       []string
}

func (s *stubEvaluator) Evaluate(_ context.Context, _, retrievedDocs string) (Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.docs = append(s.docs, retrievedDocs)
	return Evaluation{Sufficient: s.sufficient, Feedback: s.feedback}, nil
}

type stubRouter struct {
	source string
}

func (s stubRouter) Route(context.Context, string) (string, error) {
	return s.source, nil
}

type stubRewriter struct {
	mu     sync.Mutex
	prefix string
	calls  int
}

func (s *stubRewriter) Rewrite(_ context.Context, question, _, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.prefix + question, nil
}

// stubReviewer pops verdicts in order and accepts once they run out.
type stubReviewer struct {
	mu       sync.Mutex
	verdicts []ReviewVerdict
	calls    int
}

func (s *stubReviewer) Review(context.Context, string, string, string) (ReviewVerdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.verdicts) == 0 {
		return ReviewVerdict{Accept: true}, nil
	}
	verdict := s.verdicts[0]
	s.verdicts = s.verdicts[1:]
	return verdict, nil
}

// stubIndex serves chunks and records the lookups. When perCall is set, each
// Search pops the next batch instead of slicing the shared chunks.
type stubIndex struct {
	mu      sync.Mutex
	chunks  []index.Chunk
	perCall [][]index.Chunk
	err     error
	queries []string
	ks      []int
}

var _ index.Index = (*stubIndex)(nil)

func (s *stubIndex) Add(context.Context, []index.Chunk) error { return nil }

func (s *stubIndex) Search(_ context.Context, query string, k int) ([]index.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.queries = append(s.queries, query)
	s.ks = append(s.ks, k)
	if len(s.perCall) > 0 {
		i := len(s.queries) - 1
		if i >= len(s.perCall) {
			i = len(s.perCall) - 1
		}
		return s.perCall[i], nil
	}
	if k > len(s.chunks) {
		k = len(s.chunks)
	}
	return s.chunks[:k], nil
}

func (s *stubIndex) searchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

type stubSearcher struct {
	mu      sync.Mutex
	resp    *search.Response
	err     error
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, query string) (*search.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.queries = append(s.queries, query)
	return s.resp, nil
}

func (s *stubSearcher) searchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

type stubFetcher struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (s *stubFetcher) FetchText(context.Context, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.text, s.err
}

func (s *stubFetcher) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubSystemCompleter records the user prompts it drafted from.
type stubSystemCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []string
}

func (s *stubSystemCompleter) CompleteWithSystem(_ context.Context, _, user string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.calls = append(s.calls, user)
	return s.reply, nil
}

func (s *stubSystemCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// scriptedModel replays canned responses; past the script it repeats the
// last one.
type scriptedModel struct {
	mu        sync.Mutex
	responses []*llms.ContentResponse
	calls     int
	messages  [][]llms.MessageContent
}

func (m *scriptedModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]llms.MessageContent, len(messages))
	copy(snapshot, messages)
	m.messages = append(m.messages, snapshot)

	i := m.calls
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	m.calls++
	if i < 0 {
		return nil, errors.New("no scripted responses")
	}
	return m.responses[i], nil
}

func (m *scriptedModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func (m *scriptedModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func textResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}
}

func toolCallResponse(id, name, arguments string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:   id,
			Type: "function",
			FunctionCall: &llms.FunctionCall{
				Name:      name,
				Arguments: arguments,
			},
		}},
	}}}
}
