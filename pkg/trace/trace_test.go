package trace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/graph"
)

// recordingLogger captures formatted log lines per level.
type recordingLogger struct {
	mu    sync.Mutex
	lines map[string][]string
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{lines: make(map[string][]string)}
}

func (l *recordingLogger) record(level, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines[level] = append(l.lines[level], fmt.Sprintf(format, v...))
}

func (l *recordingLogger) Debug(format string, v ...any) { l.record("debug", format, v...) }
func (l *recordingLogger) Info(format string, v ...any)  { l.record("info", format, v...) }
func (l *recordingLogger) Warn(format string, v ...any)  { l.record("warn", format, v...) }
func (l *recordingLogger) Error(format string, v ...any) { l.record("error", format, v...) }

func (l *recordingLogger) all(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines[level]...)
}

func TestLogHook(t *testing.T) {
	logger := newRecordingLogger()
	hook := NewLogHook(logger)
	ctx := context.Background()

	hook.OnEvent(ctx, &graph.TraceSpan{
		ID:    "run-1",
		Event: graph.TraceEventNodeStart, NodeName: "retrieve",
	})
	hook.OnEvent(ctx, &graph.TraceSpan{
		ID:    "run-1",
		Event: graph.TraceEventNodeEnd, NodeName: "retrieve",
		Duration: 42 * time.Millisecond,
	})
	hook.OnEvent(ctx, &graph.TraceSpan{
		Event: graph.TraceEventEdgeTraversal, FromNode: "retrieve", ToNode: "grade",
	})
	hook.OnEvent(ctx, &graph.TraceSpan{
		Event: graph.TraceEventNodeError, NodeName: "generate",
		Error: errors.New("model unavailable"),
	})

	debugs := logger.all("debug")
	require.Len(t, debugs, 3)
	assert.Contains(t, debugs[0], "node retrieve started")
	assert.Contains(t, debugs[1], "node retrieve finished")
	assert.Contains(t, debugs[2], "edge retrieve -> grade")

	errs := logger.all("error")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "node generate failed")
	assert.Contains(t, errs[0], "model unavailable")
}

func TestInitDisabled(t *testing.T) {
	shutdown := Init(context.Background(), config.TelemetryConfig{Enabled: false}, newRecordingLogger())
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestOTelHookMirrorsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	hook := NewOTelHook()
	ctx := context.Background()
	start := time.Now()

	run := &graph.TraceSpan{ID: "run-1", Event: graph.TraceEventGraphStart, StartTime: start}
	hook.OnEvent(ctx, run)

	node := &graph.TraceSpan{
		ID: "node-1", ParentID: "run-1",
		Event: graph.TraceEventNodeStart, NodeName: "retrieve",
		StartTime: start,
	}
	hook.OnEvent(ctx, node)

	node.Event = graph.TraceEventNodeError
	node.Error = errors.New("boom")
	node.EndTime = start.Add(5 * time.Millisecond)
	hook.OnEvent(ctx, node)

	run.Event = graph.TraceEventGraphEnd
	run.EndTime = start.Add(10 * time.Millisecond)
	hook.OnEvent(ctx, run)

	ended := sr.Ended()
	require.Len(t, ended, 2)

	assert.Equal(t, "retrieve", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "graph", ended[1].Name())

	// Node span is parented by the graph span.
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
}

func TestOTelHookIgnoresUnknownEnd(t *testing.T) {
	hook := NewOTelHook()
	hook.OnEvent(context.Background(), &graph.TraceSpan{
		ID:    "never-started",
		Event: graph.TraceEventNodeEnd,
	})
}
