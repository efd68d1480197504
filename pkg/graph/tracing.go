package graph

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TraceEvent identifies what a trace span records.
type TraceEvent string

const (
	TraceEventGraphStart    TraceEvent = "graph_start"
	TraceEventGraphEnd      TraceEvent = "graph_end"
	TraceEventNodeStart     TraceEvent = "node_start"
	TraceEventNodeEnd       TraceEvent = "node_end"
	TraceEventNodeError     TraceEvent = "node_error"
	TraceEventEdgeTraversal TraceEvent = "edge_traversal"
)

// TraceSpan records one unit of graph execution. Node spans carry the state
// the node saw on start and the state it produced on end.
type TraceSpan struct {
	ID        string
	ParentID  string
	Event     TraceEvent
	NodeName  string
	FromNode  string
	ToNode    string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	State     any
	Error     error
	Metadata  map[string]any
}

// TraceHook receives spans as they start and finish.
type TraceHook interface {
	OnEvent(ctx context.Context, span *TraceSpan)
}

// TraceHookFunc adapts a function to the TraceHook interface.
type TraceHookFunc func(ctx context.Context, span *TraceSpan)

// OnEvent calls the wrapped function.
func (f TraceHookFunc) OnEvent(ctx context.Context, span *TraceSpan) {
	f(ctx, span)
}

// Tracer fans span events out to registered hooks. It is safe for concurrent
// use, so a single tracer can serve every turn of a long-running agent. Spans
// are only retained in memory while recording is on; hooked delivery does not
// buffer, so an agent kept alive across many turns never accumulates the
// state snapshots the spans carry.
type Tracer struct {
	mu        sync.Mutex
	hooks     []TraceHook
	recording bool
	spans     []*TraceSpan
}

// NewTracer creates an empty tracer with recording off.
func NewTracer() *Tracer {
	return &Tracer{}
}

// SetRecording toggles span retention for inspection through GetSpans.
func (t *Tracer) SetRecording(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recording = on
}

// AddHook registers a hook invoked for every span event.
func (t *Tracer) AddHook(hook TraceHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, hook)
}

// StartSpan opens a span for the given event. The parent is taken from the
// context when present.
func (t *Tracer) StartSpan(ctx context.Context, event TraceEvent, nodeName string) *TraceSpan {
	span := &TraceSpan{
		ID:        uuid.NewString(),
		Event:     event,
		NodeName:  nodeName,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
	}
	if parent := SpanFromContext(ctx); parent != nil {
		span.ParentID = parent.ID
	}

	t.record(ctx, span)
	return span
}

// EndSpan closes a span with the resulting state and error, flipping the event
// to its terminal form.
func (t *Tracer) EndSpan(ctx context.Context, span *TraceSpan, state any, err error) {
	if span == nil {
		return
	}
	span.EndTime = time.Now()
	span.Duration = span.EndTime.Sub(span.StartTime)
	span.State = state
	span.Error = err

	switch span.Event {
	case TraceEventGraphStart:
		span.Event = TraceEventGraphEnd
	case TraceEventNodeStart:
		if err != nil {
			span.Event = TraceEventNodeError
		} else {
			span.Event = TraceEventNodeEnd
		}
	}

	t.notify(ctx, span)
}

// TraceEdgeTraversal records a transition from one node to another.
func (t *Tracer) TraceEdgeTraversal(ctx context.Context, from, to string) {
	span := &TraceSpan{
		ID:        uuid.NewString(),
		Event:     TraceEventEdgeTraversal,
		FromNode:  from,
		ToNode:    to,
		StartTime: time.Now(),
		EndTime:   time.Now(),
		Metadata:  make(map[string]any),
	}
	if parent := SpanFromContext(ctx); parent != nil {
		span.ParentID = parent.ID
	}

	t.record(ctx, span)
}

// GetSpans returns a snapshot of the retained spans in order. Empty unless
// recording was switched on.
func (t *Tracer) GetSpans() []*TraceSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*TraceSpan, len(t.spans))
	copy(out, t.spans)
	return out
}

// Clear drops all recorded spans.
func (t *Tracer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = nil
}

func (t *Tracer) record(ctx context.Context, span *TraceSpan) {
	t.mu.Lock()
	if t.recording {
		t.spans = append(t.spans, span)
	}
	hooks := t.snapshotHooksLocked()
	t.mu.Unlock()

	for _, hook := range hooks {
		hook.OnEvent(ctx, span)
	}
}

func (t *Tracer) notify(ctx context.Context, span *TraceSpan) {
	t.mu.Lock()
	hooks := t.snapshotHooksLocked()
	t.mu.Unlock()

	for _, hook := range hooks {
		hook.OnEvent(ctx, span)
	}
}

func (t *Tracer) snapshotHooksLocked() []TraceHook {
	hooks := make([]TraceHook, len(t.hooks))
	copy(hooks, t.hooks)
	return hooks
}

type spanContextKey struct{}

// ContextWithSpan returns a context carrying the span as the current parent.
func ContextWithSpan(ctx context.Context, span *TraceSpan) context.Context {
	return context.WithValue(ctx, spanContextKey{}, span)
}

// SpanFromContext returns the span carried by the context, or nil.
func SpanFromContext(ctx context.Context) *TraceSpan {
	span, _ := ctx.Value(spanContextKey{}).(*TraceSpan)
	return span
}
