// Package trace turns graph execution spans into log lines and, when
// enabled, mirrors them to an OTLP collector. Tracing is an observer: a
// failure here never alters the result of a turn.
package trace

import (
	"context"

	"github.com/jemygraw/deepresearch/pkg/graph"
	"github.com/jemygraw/deepresearch/pkg/log"
)

// LogHook writes span events to a Logger. Lifecycle events log at debug so
// normal runs stay quiet; node failures log at error.
type LogHook struct {
	logger log.Logger
}

var _ graph.TraceHook = (*LogHook)(nil)

// NewLogHook creates a hook writing to logger. A nil logger falls back to
// the package default.
func NewLogHook(logger log.Logger) *LogHook {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHook{logger: logger}
}

// OnEvent logs the span.
func (h *LogHook) OnEvent(_ context.Context, span *graph.TraceSpan) {
	switch span.Event {
	case graph.TraceEventGraphStart:
		h.logger.Debug("graph run %s started", span.ID)
	case graph.TraceEventGraphEnd:
		h.logger.Debug("graph run %s finished in %s", span.ID, span.Duration)
	case graph.TraceEventNodeStart:
		h.logger.Debug("node %s started", span.NodeName)
	case graph.TraceEventNodeEnd:
		h.logger.Debug("node %s finished in %s", span.NodeName, span.Duration)
	case graph.TraceEventNodeError:
		h.logger.Error("node %s failed after %s: %v", span.NodeName, span.Duration, span.Error)
	case graph.TraceEventEdgeTraversal:
		h.logger.Debug("edge %s -> %s", span.FromNode, span.ToNode)
	}
}
