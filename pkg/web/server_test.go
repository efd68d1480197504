package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/core"
	"github.com/jemygraw/deepresearch/pkg/log"
	"github.com/jemygraw/deepresearch/pkg/session"
)

type stubChatAgent struct {
	mu        sync.Mutex
	reply     string
	err       error
	messages  []string
	histories [][]core.Turn
}

func (a *stubChatAgent) Initialize(context.Context) error { return nil }

func (a *stubChatAgent) ProcessMessage(_ context.Context, message string, history []core.Turn) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
	snapshot := make([]core.Turn, len(history))
	copy(snapshot, history)
	a.histories = append(a.histories, snapshot)
	if a.err != nil {
		return "", a.err
	}
	return a.reply, nil
}

// newTestServer wires a server around an in-memory session store. The stub
// agent, when given, is pre-cached for the plain chaining mode so handlers
// never construct a real model client.
func newTestServer(agent core.ChatAgent) (*Server, *session.MemoryStore) {
	store := session.NewMemoryStore()
	s := NewServer(&config.Config{}, store, log.NoOpLogger{})
	if agent != nil {
		s.agents[core.ModeChainingQuery] = agent
	}
	return s, store
}

func postJSON(t *testing.T, h http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeChat(t *testing.T, rec *httptest.ResponseRecorder) chatResponse {
	t.Helper()
	var resp chatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestModesListsEveryVariant(t *testing.T) {
	s, _ := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/modes", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var modes []modeInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&modes))
	require.Len(t, modes, len(core.Modes()))

	byID := make(map[string]modeInfo, len(modes))
	for _, m := range modes {
		byID[m.ID] = m
	}
	research, ok := byID["react_deep_research"]
	require.True(t, ok, "deep research mode missing from listing")
	assert.Equal(t, "react", research.Family)
	assert.NotEmpty(t, research.Description)
}

func TestModesRejectsPost(t *testing.T) {
	s, _ := newTestServer(nil)
	rec := postJSON(t, s.Handler(), "/api/modes", map[string]string{})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestChatRoundTripPersistsSession(t *testing.T) {
	agent := &stubChatAgent{reply: "The capital is **Paris**."}
	s, store := newTestServer(agent)

	rec := postJSON(t, s.Handler(), "/api/chat", chatRequest{
		Mode:    "llm_chaining_query",
		Message: "What is the capital of France?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeChat(t, rec)
	assert.NotEmpty(t, resp.SessionID, "server should mint a session id")
	assert.Equal(t, "llm_chaining_query", resp.Mode)
	assert.Equal(t, "The capital is **Paris**.", resp.Reply)
	assert.Contains(t, resp.HTML, "<strong>Paris</strong>")

	history, err := store.History(context.Background(), resp.SessionID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, core.Turn{Role: core.RoleUser, Content: "What is the capital of France?"}, history[0])
	assert.Equal(t, core.Turn{Role: core.RoleAssistant, Content: "The capital is **Paris**."}, history[1])
}

func TestChatThreadsHistoryAcrossTurns(t *testing.T) {
	agent := &stubChatAgent{reply: "Paris."}
	s, _ := newTestServer(agent)

	first := postJSON(t, s.Handler(), "/api/chat", chatRequest{
		Mode:    "llm_chaining_query",
		Message: "What is the capital of France?",
	})
	require.Equal(t, http.StatusOK, first.Code)
	sessionID := decodeChat(t, first).SessionID

	second := postJSON(t, s.Handler(), "/api/chat", chatRequest{
		SessionID: sessionID,
		Mode:      "llm_chaining_query",
		Message:   "And its population?",
	})
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, sessionID, decodeChat(t, second).SessionID)

	require.Len(t, agent.histories, 2)
	assert.Empty(t, agent.histories[0])
	require.Len(t, agent.histories[1], 2)
	assert.Equal(t, "What is the capital of France?", agent.histories[1][0].Content)
	assert.Equal(t, "Paris.", agent.histories[1][1].Content)
}

func TestChatRejectsUnknownMode(t *testing.T) {
	s, _ := newTestServer(&stubChatAgent{reply: "ok"})
	rec := postJSON(t, s.Handler(), "/api/chat", chatRequest{
		Mode:    "quantum_agent",
		Message: "hello",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body["error"], "quantum_agent")
}

func TestChatRequiresMessage(t *testing.T) {
	s, _ := newTestServer(&stubChatAgent{reply: "ok"})
	rec := postJSON(t, s.Handler(), "/api/chat", chatRequest{Mode: "llm_chaining_query"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "message is required", body["error"])
}

func TestChatRejectsGet(t *testing.T) {
	s, _ := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestChatAgentFailureLeavesSessionUntouched(t *testing.T) {
	agent := &stubChatAgent{err: errors.New("model offline")}
	s, store := newTestServer(agent)

	rec := postJSON(t, s.Handler(), "/api/chat", chatRequest{
		SessionID: "sess-err",
		Mode:      "llm_chaining_query",
		Message:   "hello",
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "the agent could not answer, please try again", body["error"])

	history, err := store.History(context.Background(), "sess-err")
	require.NoError(t, err)
	assert.Empty(t, history, "failed turns must not be persisted")
}

func TestHealthReportsModeCount(t *testing.T) {
	s, _ := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, len(core.Modes()), body["modes"])
}

func TestResearchRequiresQuery(t *testing.T) {
	s, _ := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/research", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexPageIsEmbedded(t *testing.T) {
	s, _ := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Deep Research Assistant")
}
