package graph

import "fmt"

// NodeError is returned when a node function fails. The run stops at the
// failing node and no partial state is returned.
type NodeError struct {
	// Node is the name of the node that failed
	Node string
	// Err is the underlying failure
	Err error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("error in node %s: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
