package graph

import (
	"context"
	"errors"
	"time"
)

// END is a special constant used to represent the end node in the graph.
const END = "END"

// DefaultMaxSteps bounds the number of node executions in one run when the
// graph does not set its own limit.
const DefaultMaxSteps = 100

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrDuplicateEdge is returned when a node has more than one static outgoing edge.
	ErrDuplicateEdge = errors.New("node has more than one outgoing edge")

	// ErrMaxStepsExceeded is returned when a run executes more nodes than allowed.
	ErrMaxStepsExceeded = errors.New("max steps exceeded")

	// ErrReducerNotSet is returned when a graph is compiled without a reducer.
	ErrReducerNotSet = errors.New("reducer not set")
)

// NodeFunc is the function executed by a node. It reads the current state and
// returns a delta describing what the node produced; it never mutates state.
type NodeFunc[S, D any] func(ctx context.Context, state S) (D, error)

// Reducer folds a node's delta into the state, returning the new state.
type Reducer[S, D any] func(state S, delta D) (S, error)

// Node represents a node in the graph.
type Node[S, D any] struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes the functionality of the node.
	Description string

	// Function is the function associated with the node.
	Function NodeFunc[S, D]
}

// Edge represents a static edge in the graph.
type Edge struct {
	// From is the name of the node from which the edge originates.
	From string

	// To is the name of the node to which the edge points.
	To string
}

// Step is emitted once per completed node.
type Step[S, D any] struct {
	// Node is the name of the node that completed.
	Node string

	// Delta is what the node produced.
	Delta D

	// State is the state after the delta was merged.
	State S

	// Next is the node that will run after this one, or END.
	Next string

	// Duration is how long the node function took.
	Duration time.Duration
}
