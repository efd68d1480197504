package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jemygraw/deepresearch/pkg/agents"
)

// researchEvent is one SSE frame of a research run.
type researchEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Report  string `json:"report,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// handleResearch streams a deep-research run: progress lines as they happen,
// then the finished report. Each run gets a fresh agent so its logger can
// feed this client's stream.
func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, "query parameter is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	logChan := make(chan string, 100)
	resultChan := make(chan string, 1)
	errChan := make(chan error, 1)

	agent := agents.NewResearch(s.cfg)
	agent.SetLogger(sseLogger{ch: logChan})
	if err := agent.Initialize(r.Context()); err != nil {
		s.logger.Error("research agent init: %v", err)
		sendEvent(w, flusher, researchEvent{Type: "error", Message: "research agent unavailable"})
		return
	}

	// Client disconnect cancels the run through the request context.
	go func() {
		defer close(logChan)
		defer close(resultChan)
		defer close(errChan)

		report, err := agent.ProcessMessage(r.Context(), query, nil)
		if err != nil {
			errChan <- err
			return
		}
		resultChan <- report
	}()

	for {
		select {
		case msg, ok := <-logChan:
			if !ok {
				logChan = nil
				continue
			}
			sendEvent(w, flusher, researchEvent{Type: "log", Message: msg})
		case report, ok := <-resultChan:
			if !ok {
				resultChan = nil
				continue
			}
			sendEvent(w, flusher, researchEvent{
				Type:   "result",
				Report: report,
				HTML:   renderMarkdown(report),
			})
			return
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			s.logger.Error("research run failed: %v", err)
			sendEvent(w, flusher, researchEvent{Type: "error", Message: err.Error()})
			return
		}

		if logChan == nil && resultChan == nil && errChan == nil {
			return
		}
	}
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, ev researchEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}

// sseLogger forwards agent progress lines into the event stream. Debug noise
// stays out; a slow client drops lines instead of stalling the run.
type sseLogger struct {
	ch chan<- string
}

func (l sseLogger) Debug(string, ...any) {}

func (l sseLogger) Info(format string, v ...any) {
	l.send(fmt.Sprintf(format, v...))
}

func (l sseLogger) Warn(format string, v ...any) {
	l.send("warning: " + fmt.Sprintf(format, v...))
}

func (l sseLogger) Error(format string, v ...any) {
	l.send("error: " + fmt.Sprintf(format, v...))
}

func (l sseLogger) send(msg string) {
	select {
	case l.ch <- msg:
	default:
	}
}
