package graph

import (
	"context"
	"fmt"
	"iter"
	"time"
)

// StateGraph represents a generic state-based graph with compile-time type safety.
// The type parameter S is the state threaded through the run and D is the
// delta each node returns. Deltas are merged into the state by the reducer,
// so a node can only change what its delta type carries.
//
// Example usage:
//
//	type Counter struct{ Count int }
//	type Inc struct{ By int }
//
//	g := graph.NewStateGraph(func(s Counter, d Inc) (Counter, error) {
//	    s.Count += d.By
//	    return s, nil
//	})
//	g.AddNode("inc", "Increment counter", func(ctx context.Context, s Counter) (Inc, error) {
//	    return Inc{By: 1}, nil
//	})
type StateGraph[S, D any] struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]Node[S, D]

	// edges is a slice of Edge objects representing the connections between nodes
	edges []Edge

	// conditionalEdges maps a "From" node to the function choosing its successor
	conditionalEdges map[string]func(ctx context.Context, state S) string

	// entryPoint is the name of the entry point node in the graph
	entryPoint string

	// reducer merges node deltas into the state
	reducer Reducer[S, D]

	// maxSteps bounds node executions per run
	maxSteps int
}

// NewStateGraph creates a new instance of StateGraph using reducer to merge deltas.
func NewStateGraph[S, D any](reducer Reducer[S, D]) *StateGraph[S, D] {
	return &StateGraph[S, D]{
		nodes:            make(map[string]Node[S, D]),
		conditionalEdges: make(map[string]func(ctx context.Context, state S) string),
		reducer:          reducer,
		maxSteps:         DefaultMaxSteps,
	}
}

// AddNode adds a new node to the state graph with the given name, description and function.
func (g *StateGraph[S, D]) AddNode(name string, description string, fn NodeFunc[S, D]) {
	g.nodes[name] = Node[S, D]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a new edge to the state graph between the "from" and "to" nodes.
func (g *StateGraph[S, D]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{
		From: from,
		To:   to,
	})
}

// AddConditionalEdge adds a conditional edge where the target node is determined at runtime.
// The condition must be a pure function of the state.
//
// Example:
//
//	g.AddConditionalEdge("check", func(ctx context.Context, state Counter) string {
//	    if state.Count > 10 {
//	        return graph.END
//	    }
//	    return "inc"
//	})
func (g *StateGraph[S, D]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S, D]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetMaxSteps sets the maximum number of node executions in a single run.
// Values below one restore DefaultMaxSteps.
func (g *StateGraph[S, D]) SetMaxSteps(n int) {
	if n < 1 {
		n = DefaultMaxSteps
	}
	g.maxSteps = n
}

// Nodes returns the nodes of the graph keyed by name.
func (g *StateGraph[S, D]) Nodes() map[string]Node[S, D] {
	out := make(map[string]Node[S, D], len(g.nodes))
	for k, v := range g.nodes {
		out[k] = v
	}
	return out
}

// Compile validates the graph and returns a StateRunnable instance.
func (g *StateGraph[S, D]) Compile() (*StateRunnable[S, D], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if g.reducer == nil {
		return nil, ErrReducerNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, g.entryPoint)
	}

	next := make(map[string]string, len(g.edges))
	for _, edge := range g.edges {
		if _, ok := g.nodes[edge.From]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, edge.From)
		}
		if _, ok := g.nodes[edge.To]; !ok && edge.To != END {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, edge.To)
		}
		if _, dup := next[edge.From]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEdge, edge.From)
		}
		next[edge.From] = edge.To
	}
	for from := range g.conditionalEdges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, from)
		}
		if _, dup := next[from]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEdge, from)
		}
	}
	for name := range g.nodes {
		_, static := next[name]
		_, conditional := g.conditionalEdges[name]
		if !static && !conditional {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
		}
	}

	return &StateRunnable[S, D]{
		graph: g,
		next:  next,
	}, nil
}

// StateRunnable represents a compiled state graph that can be invoked with type safety.
// A StateRunnable holds no per-run state and may be shared by concurrent runs.
type StateRunnable[S, D any] struct {
	graph     *StateGraph[S, D]
	next      map[string]string
	listeners []NodeListener
}

// AddListener registers a listener notified on every node start, completion and failure.
// Listeners must be added before the runnable is shared between goroutines.
func (r *StateRunnable[S, D]) AddListener(listener NodeListener) {
	r.listeners = append(r.listeners, listener)
}

// Invoke executes the compiled state graph with the given input state and
// returns the final state.
//
// Example:
//
//	finalState, err := app.Invoke(ctx, Counter{})
func (r *StateRunnable[S, D]) Invoke(ctx context.Context, initialState S) (S, error) {
	state := initialState
	for step, err := range r.Stream(ctx, initialState) {
		if err != nil {
			var zero S
			return zero, err
		}
		state = step.State
	}
	return state, nil
}

// Stream executes the graph one node at a time, yielding a Step after every
// completed node. Nodes run strictly sequentially on the caller's goroutine.
// Breaking out of the loop stops the run before the next node starts.
// On failure a single error is yielded and the sequence ends.
func (r *StateRunnable[S, D]) Stream(ctx context.Context, initialState S) iter.Seq2[Step[S, D], error] {
	return func(yield func(Step[S, D], error) bool) {
		var zero Step[S, D]
		state := initialState
		current := r.graph.entryPoint

		for steps := 0; current != END; steps++ {
			if steps >= r.graph.maxSteps {
				yield(zero, fmt.Errorf("%w: %d", ErrMaxStepsExceeded, r.graph.maxSteps))
				return
			}
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}

			node, ok := r.graph.nodes[current]
			if !ok {
				yield(zero, fmt.Errorf("%w: %s", ErrNodeNotFound, current))
				return
			}

			r.notify(ctx, NodeEventStart, node.Name, 0, nil)
			start := time.Now()
			delta, err := node.Function(ctx, state)
			elapsed := time.Since(start)
			if err != nil {
				r.notify(ctx, NodeEventError, node.Name, elapsed, err)
				yield(zero, &NodeError{Node: node.Name, Err: err})
				return
			}

			state, err = r.graph.reducer(state, delta)
			if err != nil {
				err = fmt.Errorf("merge delta: %w", err)
				r.notify(ctx, NodeEventError, node.Name, elapsed, err)
				yield(zero, &NodeError{Node: node.Name, Err: err})
				return
			}

			next, err := r.determineNextNode(ctx, node.Name, state)
			if err != nil {
				yield(zero, err)
				return
			}
			r.notify(ctx, NodeEventComplete, node.Name, elapsed, nil)

			if !yield(Step[S, D]{
				Node:     node.Name,
				Delta:    delta,
				State:    state,
				Next:     next,
				Duration: elapsed,
			}, nil) {
				return
			}
			current = next
		}
	}
}

// determineNextNode resolves the successor of a node from its conditional or static edge.
func (r *StateRunnable[S, D]) determineNextNode(ctx context.Context, nodeName string, state S) (string, error) {
	if condition, ok := r.graph.conditionalEdges[nodeName]; ok {
		next := condition(ctx, state)
		if next == "" {
			return "", fmt.Errorf("conditional edge returned empty next node from %s", nodeName)
		}
		if _, ok := r.graph.nodes[next]; !ok && next != END {
			return "", fmt.Errorf("%w: %s (from %s)", ErrNodeNotFound, next, nodeName)
		}
		return next, nil
	}
	if next, ok := r.next[nodeName]; ok {
		return next, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, nodeName)
}

func (r *StateRunnable[S, D]) notify(ctx context.Context, event NodeEvent, nodeName string, d time.Duration, err error) {
	for _, l := range r.listeners {
		l.OnNodeEvent(ctx, event, nodeName, d, err)
	}
}
