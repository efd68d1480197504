package graph

import (
	"context"
	"errors"
	"testing"
)

func TestTracer_CollectsSpans(t *testing.T) {
	g := NewStateGraph[map[string]any]()

	g.AddNode("node1", "First node", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return map[string]any{"result": "result1"}, nil
	})
	g.AddNode("node2", "Second node", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		return map[string]any{"result": "result2"}, nil
	})

	g.AddEdge("node1", "node2")
	g.AddEdge("node2", END)
	g.SetEntryPoint("node1")

	runnable, err := g.Compile()
	if err != nil {
		t.Fatalf("Failed to compile: %v", err)
	}

	tracer := NewTracer()
	tracer.SetRecording(true)
	runnable.SetTracer(tracer)

	if _, err := runnable.Invoke(context.Background(), map[string]any{"initial": true}); err != nil {
		t.Fatalf("Failed to invoke: %v", err)
	}

	spans := tracer.GetSpans()
	if len(spans) == 0 {
		t.Fatal("Tracer should have collected spans")
	}

	var hasGraphEnd, hasNode1End, hasNode2End, hasEdge bool
	var graphSpanID string
	for _, span := range spans {
		switch {
		case span.Event == TraceEventGraphEnd && span.NodeName == "graph":
			hasGraphEnd = true
			graphSpanID = span.ID
		case span.Event == TraceEventNodeEnd && span.NodeName == "node1":
			hasNode1End = true
		case span.Event == TraceEventNodeEnd && span.NodeName == "node2":
			hasNode2End = true
		case span.Event == TraceEventEdgeTraversal && span.FromNode == "node1" && span.ToNode == "node2":
			hasEdge = true
		}
	}

	if !hasGraphEnd {
		t.Error("Should have GraphEnd event for graph")
	}
	if !hasNode1End {
		t.Error("Should have NodeEnd event for node1")
	}
	if !hasNode2End {
		t.Error("Should have NodeEnd event for node2")
	}
	if !hasEdge {
		t.Error("Should have EdgeTraversal event from node1 to node2")
	}

	// Node spans are parented to the graph span via the context.
	for _, span := range spans {
		if span.NodeName == "node1" || span.NodeName == "node2" {
			if span.ParentID != graphSpanID {
				t.Errorf("Node span %s should be parented to the graph span", span.NodeName)
			}
		}
	}

	tracer.Clear()
	if len(tracer.GetSpans()) != 0 {
		t.Error("Clear should drop all spans")
	}
}

func TestTracer_NodeErrorEvent(t *testing.T) {
	g := NewStateGraph[TestState]()

	g.AddNode("fail", "Fails", func(ctx context.Context, state TestState) (TestState, error) {
		return state, errors.New("node failure")
	})
	g.SetEntryPoint("fail")
	g.AddEdge("fail", END)

	runnable, err := g.Compile()
	if err != nil {
		t.Fatalf("Failed to compile: %v", err)
	}

	tracer := NewTracer()
	tracer.SetRecording(true)
	runnable.SetTracer(tracer)

	if _, err := runnable.Invoke(context.Background(), TestState{}); err == nil {
		t.Fatal("Expected error from execution")
	}

	var hasNodeError bool
	for _, span := range tracer.GetSpans() {
		if span.Event == TraceEventNodeError && span.NodeName == "fail" {
			hasNodeError = true
			if span.Error == nil {
				t.Error("NodeError span should carry the error")
			}
		}
	}
	if !hasNodeError {
		t.Error("Should have NodeError event for failing node")
	}
}

func TestTracer_NoRetentionByDefault(t *testing.T) {
	tracer := NewTracer()

	var events []TraceEvent
	tracer.AddHook(TraceHookFunc(func(ctx context.Context, span *TraceSpan) {
		events = append(events, span.Event)
	}))

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		span := tracer.StartSpan(ctx, TraceEventNodeStart, "sample")
		tracer.EndSpan(ctx, span, nil, nil)
	}

	if len(events) != 20 {
		t.Fatalf("Hooks should fire regardless of recording, got %d events", len(events))
	}
	if got := len(tracer.GetSpans()); got != 0 {
		t.Errorf("Tracer should retain no spans unless recording, got %d", got)
	}

	tracer.SetRecording(true)
	span := tracer.StartSpan(ctx, TraceEventNodeStart, "sample")
	tracer.EndSpan(ctx, span, nil, nil)
	if got := len(tracer.GetSpans()); got != 1 {
		t.Errorf("Expected 1 retained span after enabling recording, got %d", got)
	}
}

func TestTracer_Hooks(t *testing.T) {
	tracer := NewTracer()

	var events []TraceEvent
	tracer.AddHook(TraceHookFunc(func(ctx context.Context, span *TraceSpan) {
		events = append(events, span.Event)
	}))

	ctx := context.Background()
	span := tracer.StartSpan(ctx, TraceEventNodeStart, "sample")
	tracer.EndSpan(ctx, span, nil, nil)

	if len(events) != 2 {
		t.Fatalf("Expected 2 hook invocations, got %d", len(events))
	}
	if events[0] != TraceEventNodeStart {
		t.Errorf("Expected first event to be node_start, got %s", events[0])
	}
	if events[1] != TraceEventNodeEnd {
		t.Errorf("Expected second event to be node_end, got %s", events[1])
	}
	if span.Duration < 0 {
		t.Error("Span duration should be non-negative")
	}
}

func TestSpanContext(t *testing.T) {
	ctx := context.Background()
	if span := SpanFromContext(ctx); span != nil {
		t.Errorf("Expected no span on fresh context, got %v", span)
	}

	parent := &TraceSpan{ID: "parent-id"}
	ctx = ContextWithSpan(ctx, parent)
	if span := SpanFromContext(ctx); span != parent {
		t.Error("Expected span carried by context")
	}

	tracer := NewTracer()
	child := tracer.StartSpan(ctx, TraceEventNodeStart, "child")
	if child.ParentID != "parent-id" {
		t.Errorf("Expected child parented to parent-id, got %s", child.ParentID)
	}
	if child.ID == "" || child.ID == parent.ID {
		t.Errorf("Expected distinct child span ID, got %s", child.ID)
	}
}
