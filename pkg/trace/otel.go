package trace

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/jemygraw/deepresearch/pkg/config"
	"github.com/jemygraw/deepresearch/pkg/graph"
	"github.com/jemygraw/deepresearch/pkg/log"
)

// Init configures the global OpenTelemetry provider with an OTLP HTTP
// exporter (Jaeger accepts OTLP on port 4318). Returns a shutdown function
// to call on exit. When telemetry is disabled or the exporter cannot be
// built the shutdown is a no-op and spans stay local.
func Init(ctx context.Context, cfg config.TelemetryConfig, logger log.Logger) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if logger == nil {
		logger = log.Default()
	}
	if !cfg.Enabled {
		logger.Debug("trace export disabled (set OTEL_ENABLED=true to enable)")
		return noop
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("failed to create OTLP exporter: %v, trace export disabled", err)
		return noop
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)
	logger.Info("OTLP trace export enabled (endpoint: %s)", cfg.Endpoint)

	return tp.Shutdown
}

// OTelHook mirrors graph spans into OpenTelemetry spans so graph runs show
// up in a collector with the same parentage.
type OTelHook struct {
	tracer oteltrace.Tracer

	mu   sync.Mutex
	open map[string]oteltrace.Span
}

var _ graph.TraceHook = (*OTelHook)(nil)

// NewOTelHook creates a hook emitting through the global tracer provider.
func NewOTelHook() *OTelHook {
	return &OTelHook{
		tracer: otel.Tracer("deepresearch/graph"),
		open:   make(map[string]oteltrace.Span),
	}
}

// OnEvent opens an OTel span when a graph span starts and ends it with the
// recorded timestamps when it finishes.
func (h *OTelHook) OnEvent(ctx context.Context, span *graph.TraceSpan) {
	switch span.Event {
	case graph.TraceEventGraphStart, graph.TraceEventNodeStart:
		name := span.NodeName
		if name == "" {
			name = "graph"
		}
		_, s := h.tracer.Start(h.parentContext(ctx, span),
			name, oteltrace.WithTimestamp(span.StartTime))
		s.SetAttributes(
			attribute.String("graph.span_id", span.ID),
			attribute.String("graph.event", string(span.Event)),
		)
		h.mu.Lock()
		h.open[span.ID] = s
		h.mu.Unlock()

	case graph.TraceEventGraphEnd, graph.TraceEventNodeEnd, graph.TraceEventNodeError:
		h.mu.Lock()
		s, ok := h.open[span.ID]
		delete(h.open, span.ID)
		h.mu.Unlock()
		if !ok {
			return
		}
		if span.Error != nil {
			s.RecordError(span.Error)
			s.SetStatus(codes.Error, span.Error.Error())
		}
		s.End(oteltrace.WithTimestamp(span.EndTime))

	case graph.TraceEventEdgeTraversal:
		_, s := h.tracer.Start(h.parentContext(ctx, span),
			fmt.Sprintf("edge %s -> %s", span.FromNode, span.ToNode),
			oteltrace.WithTimestamp(span.StartTime))
		s.End(oteltrace.WithTimestamp(span.EndTime))
	}
}

// parentContext rebuilds OTel parentage from the graph span's ParentID, since
// the runner's context does not carry OTel spans.
func (h *OTelHook) parentContext(ctx context.Context, span *graph.TraceSpan) context.Context {
	if span.ParentID == "" {
		return ctx
	}
	h.mu.Lock()
	parent, ok := h.open[span.ParentID]
	h.mu.Unlock()
	if !ok {
		return ctx
	}
	return oteltrace.ContextWithSpan(ctx, parent)
}
