// Package web serves the browser chat UI: an embedded single-page client plus
// the JSON and SSE endpoints it talks to.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jemygraw/deepresearch/pkg/agents"
	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/core"
	"github.com/jemygraw/deepresearch/pkg/log"
	"github.com/jemygraw/deepresearch/pkg/session"
)

//go:embed static
var staticFS embed.FS

// Server hosts the chat API. Agents are built lazily per mode and reused
// across sessions; conversation history lives in the session store.
type Server struct {
	cfg      *config.Config
	sessions session.Store
	logger   log.Logger

	mu     sync.Mutex
	agents map[core.Mode]core.ChatAgent
}

// NewServer builds the web server on the given session store.
func NewServer(cfg *config.Config, sessions session.Store, logger log.Logger) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		logger:   logger,
		agents:   make(map[core.Mode]core.ChatAgent),
	}
}

// Handler returns the route mux: the embedded page at the root and the API
// underneath /api/.
func (s *Server) Handler() http.Handler {
	staticRoot, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("embedded static assets missing: %v", err))
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(staticRoot)))
	mux.HandleFunc("/api/modes", s.handleModes)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/research", s.handleResearch)
	mux.HandleFunc("/api/health", s.handleHealth)
	return mux
}

// ListenAndServe blocks serving the UI. WriteTimeout stays 0 because the
// research endpoint streams events for minutes.
func (s *Server) ListenAndServe(addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
	}
	s.logger.Info("web UI listening on %s", addr)
	return server.ListenAndServe()
}

// agentFor returns the cached agent for the mode, initializing it on first
// use. Initialization runs under the lock so a mode is only built once.
func (s *Server) agentFor(ctx context.Context, mode core.Mode) (core.ChatAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if agent, ok := s.agents[mode]; ok {
		return agent, nil
	}
	agent, err := agents.New(mode, s.cfg)
	if err != nil {
		return nil, err
	}
	if err := agent.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize %s agent: %w", mode, err)
	}
	s.agents[mode] = agent
	return agent, nil
}

type modeInfo struct {
	ID          string `json:"id"`
	Family      string `json:"family"`
	Description string `json:"description"`
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	modes := make([]modeInfo, 0, len(core.Modes()))
	for _, mode := range core.Modes() {
		modes = append(modes, modeInfo{
			ID:          string(mode),
			Family:      mode.Family(),
			Description: mode.Description(),
		})
	}
	sendJSON(w, modes)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	Reply     string `json:"reply"`
	HTML      string `json:"html"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		sendJSONError(w, "message is required", http.StatusBadRequest)
		return
	}

	mode, err := core.ParseMode(req.Mode)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	ctx := r.Context()
	agent, err := s.agentFor(ctx, mode)
	if err != nil {
		s.logger.Error("agent for mode %s: %v", mode, err)
		sendJSONError(w, "agent unavailable", http.StatusInternalServerError)
		return
	}

	history, err := s.sessions.History(ctx, req.SessionID)
	if err != nil {
		s.logger.Warn("loading history for session %s: %v", req.SessionID, err)
	}

	reply, err := agent.ProcessMessage(ctx, req.Message, history)
	if err != nil {
		s.logger.Error("turn failed for session %s: %v", req.SessionID, err)
		sendJSONError(w, "the agent could not answer, please try again", http.StatusInternalServerError)
		return
	}

	if err := s.sessions.Append(ctx, req.SessionID,
		core.Turn{Role: core.RoleUser, Content: req.Message},
		core.Turn{Role: core.RoleAssistant, Content: reply},
	); err != nil {
		s.logger.Warn("persisting session %s: %v", req.SessionID, err)
	}

	sendJSON(w, chatResponse{
		SessionID: req.SessionID,
		Mode:      string(mode),
		Reply:     reply,
		HTML:      renderMarkdown(reply),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, map[string]any{
		"status": "ok",
		"modes":  len(core.Modes()),
	})
}

func sendJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("encoding response: %v", err)
	}
}

func sendJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
