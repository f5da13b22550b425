// Package graph provides a small typed workflow engine: named nodes joined by
// static and conditional edges, executed one node at a time.
//
// A StateGraph[S, D] is parameterised by a state type S and a delta type D.
// Nodes read the current state and return a delta; a Reducer supplied at
// construction folds each delta into the state. Nodes never mutate state
// directly, so the reducer is the single place where state invariants live.
//
// # Execution
//
// A compiled StateRunnable executes sequentially on the caller's goroutine.
// After each node completes its successor is chosen by the node's conditional
// edge, if any, otherwise by its static edge. The run ends when the successor
// is END. A per-graph step limit guards against routing that never reaches END.
//
// Stream exposes the run as an iter.Seq2 of Step values, one per completed
// node, carrying the delta and the merged state:
//
//	for step, err := range app.Stream(ctx, initial) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(step.Node, step.Delta)
//	}
//
// Invoke drains the same stream and returns the final state.
//
// # Failure
//
// A failing node stops the run. The error is wrapped in a *NodeError that
// names the node; no further nodes execute and no partial state is returned.
//
// # Observability
//
// NodeListener implementations attached with AddListener receive start,
// complete and error events for every node, including its duration.
package graph
