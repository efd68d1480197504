package graph

import (
	"context"
	"fmt"
	"time"
)

// StateRunnable executes a compiled StateGraph. Traversal is sequential: one
// node runs at a time, then its outgoing edge picks the next node. A runnable
// is safe for concurrent Invoke calls as long as the node functions are.
type StateRunnable[S any] struct {
	graph  *StateGraph[S]
	tracer *Tracer
}

// SetTracer attaches a tracer that records spans for the run and every node.
func (r *StateRunnable[S]) SetTracer(tracer *Tracer) {
	r.tracer = tracer
}

// WithTracer attaches a tracer and returns the runnable for chaining.
func (r *StateRunnable[S]) WithTracer(tracer *Tracer) *StateRunnable[S] {
	r.tracer = tracer
	return r
}

// Invoke runs the graph from its entry point until a traversal reaches END and
// returns the final state. A node error aborts the run and is returned wrapped
// with the node name. Context cancellation is checked before every node.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initial S) (S, error) {
	var zero S

	var graphSpan *TraceSpan
	if r.tracer != nil {
		graphSpan = r.tracer.StartSpan(ctx, TraceEventGraphStart, "graph")
		graphSpan.State = initial
		ctx = ContextWithSpan(ctx, graphSpan)
	}

	state := initial
	current := r.graph.entryPoint
	for current != END {
		if err := ctx.Err(); err != nil {
			r.endGraphSpan(ctx, graphSpan, state, err)
			return zero, err
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			err := fmt.Errorf("%w: %s", ErrNodeNotFound, current)
			r.endGraphSpan(ctx, graphSpan, state, err)
			return zero, err
		}

		nodeCtx := ctx
		var nodeSpan *TraceSpan
		if r.tracer != nil {
			nodeSpan = r.tracer.StartSpan(ctx, TraceEventNodeStart, current)
			nodeSpan.State = state
			nodeCtx = ContextWithSpan(ctx, nodeSpan)
		}

		next, err := r.runNode(nodeCtx, node, state)
		if r.tracer != nil {
			r.tracer.EndSpan(nodeCtx, nodeSpan, next, err)
		}
		if err != nil {
			wrapped := fmt.Errorf("error in node %s: %w", current, err)
			r.endGraphSpan(ctx, graphSpan, state, wrapped)
			return zero, wrapped
		}
		state = next

		target, err := r.nextNode(ctx, current, state)
		if err != nil {
			r.endGraphSpan(ctx, graphSpan, state, err)
			return zero, err
		}
		if r.tracer != nil && target != END {
			r.tracer.TraceEdgeTraversal(ctx, current, target)
		}
		current = target
	}

	r.endGraphSpan(ctx, graphSpan, state, nil)
	return state, nil
}

// nextNode resolves the node following from. A conditional edge, when present,
// is evaluated exactly once and wins over static edges.
func (r *StateRunnable[S]) nextNode(ctx context.Context, from string, state S) (string, error) {
	if condition, ok := r.graph.conditionalEdges[from]; ok {
		target := condition(ctx, state)
		if target == "" {
			return "", fmt.Errorf("conditional edge from %s returned empty target", from)
		}
		if target != END {
			if _, ok := r.graph.nodes[target]; !ok {
				return "", fmt.Errorf("%w: %s", ErrNodeNotFound, target)
			}
		}
		return target, nil
	}

	for _, edge := range r.graph.edges {
		if edge.From == from {
			return edge.To, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
}

// runNode executes a node under the graph's retry policy. Non-retryable errors
// and exhausted attempts surface immediately; waiting between attempts respects
// context cancellation.
func (r *StateRunnable[S]) runNode(ctx context.Context, node Node[S], state S) (S, error) {
	var zero S

	policy := r.graph.retryPolicy
	attempts := 1
	if policy != nil {
		attempts = policy.MaxRetries + 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := r.callNode(ctx, node, state)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt == attempts-1 || !policy.retryable(err) {
			break
		}
		select {
		case <-time.After(policy.delay(attempt)):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}

// callNode invokes the node function and converts a panic into an error so a
// misbehaving node cannot take down the caller.
func (r *StateRunnable[S]) callNode(ctx context.Context, node Node[S], state S) (result S, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero S
			result = zero
			err = fmt.Errorf("panic in node %s: %v", node.Name, rec)
		}
	}()
	return node.Function(ctx, state)
}

func (r *StateRunnable[S]) endGraphSpan(ctx context.Context, span *TraceSpan, state S, err error) {
	if r.tracer == nil || span == nil {
		return
	}
	r.tracer.EndSpan(ctx, span, state, err)
}
