// Package graph provides a typed state-graph workflow engine. An agent builds a
// StateGraph describing its processing steps as named nodes with plain and
// conditional edges, compiles it, and invokes the result with an initial state.
// Each node receives the current state and returns the updated state; edges
// decide which node runs next until END is reached.
package graph

import (
	"context"
	"errors"
	"fmt"
)

// END is the terminal target of a traversal. Routing to END stops execution.
const END = "END"

var (
	// ErrEntryPointNotSet is returned by Compile when no entry point was set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a referenced node does not exist.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when a node has neither a static nor a
	// conditional edge leading out of it.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")
)

// Node is a named processing step. Function receives the current state and
// returns the updated state.
type Node[S any] struct {
	Name        string
	Description string
	Function    func(ctx context.Context, state S) (S, error)
}

// Edge is a static transition between two nodes.
type Edge struct {
	From string
	To   string
}

// Condition decides the next node after a traversal of its source node. It is
// evaluated exactly once per traversal and must return a node name or END.
type Condition[S any] func(ctx context.Context, state S) string

// StateGraph describes a workflow as nodes and edges over a state type S.
//
// Example:
//
//	g := graph.NewStateGraph[myState]()
//	g.AddNode("classify", "classify the query", classifyNode)
//	g.AddNode("respond", "compose the reply", respondNode)
//	g.AddEdge("classify", "respond")
//	g.AddEdge("respond", graph.END)
//	g.SetEntryPoint("classify")
//	app, err := g.Compile()
type StateGraph[S any] struct {
	nodes            map[string]Node[S]
	edges            []Edge
	conditionalEdges map[string]Condition[S]
	entryPoint       string
	retryPolicy      *RetryPolicy
}

// NewStateGraph creates an empty state graph for the state type S.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]Node[S]),
		conditionalEdges: make(map[string]Condition[S]),
	}
}

// AddNode registers a node under the given name.
func (g *StateGraph[S]) AddNode(name, description string, fn func(ctx context.Context, state S) (S, error)) {
	g.nodes[name] = Node[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a static edge from one node to another. A node has at most one
// outgoing static edge; the first registered edge wins.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// AddConditionalEdge routes from a node through a condition evaluated over the
// state after the node ran. A conditional edge takes precedence over static
// edges from the same node.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition Condition[S]) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the node execution starts from.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetRetryPolicy sets the retry policy applied to every node of this graph.
func (g *StateGraph[S]) SetRetryPolicy(policy *RetryPolicy) {
	g.retryPolicy = policy
}

// Compile validates the graph and returns a runnable. It checks that the entry
// point exists and that every static edge references known nodes, so wiring
// mistakes surface at build time instead of mid-run.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: entry point %s", ErrNodeNotFound, g.entryPoint)
	}
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, fmt.Errorf("%w: edge source %s", ErrNodeNotFound, e.From)
		}
		if e.To != END {
			if _, ok := g.nodes[e.To]; !ok {
				return nil, fmt.Errorf("%w: edge target %s", ErrNodeNotFound, e.To)
			}
		}
	}
	for from := range g.conditionalEdges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: conditional edge source %s", ErrNodeNotFound, from)
		}
	}

	return &StateRunnable[S]{graph: g}, nil
}
