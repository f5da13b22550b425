package graph

import (
	"context"
	"sync"
	"time"
)

// NodeEvent represents different types of node events
type NodeEvent string

const (
	// NodeEventStart indicates a node has started execution
	NodeEventStart NodeEvent = "start"

	// NodeEventComplete indicates a node has completed successfully
	NodeEventComplete NodeEvent = "complete"

	// NodeEventError indicates a node encountered an error
	NodeEventError NodeEvent = "error"
)

// NodeListener defines the interface for node event listeners.
// duration is zero for start events.
type NodeListener interface {
	OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, duration time.Duration, err error)
}

// NodeListenerFunc is a function adapter for NodeListener
type NodeListenerFunc func(ctx context.Context, event NodeEvent, nodeName string, duration time.Duration, err error)

// OnNodeEvent implements the NodeListener interface
func (f NodeListenerFunc) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, duration time.Duration, err error) {
	f(ctx, event, nodeName, duration, err)
}

// RecordedEvent is a single event captured by a Recorder.
type RecordedEvent struct {
	Event    NodeEvent
	Node     string
	Duration time.Duration
	Err      error
}

// Recorder is a NodeListener that keeps every event it receives.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []RecordedEvent
}

// OnNodeEvent implements the NodeListener interface
func (r *Recorder) OnNodeEvent(_ context.Context, event NodeEvent, nodeName string, duration time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{Event: event, Node: nodeName, Duration: duration, Err: err})
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of the given type were recorded for nodeName.
func (r *Recorder) Count(event NodeEvent, nodeName string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Event == event && e.Node == nodeName {
			n++
		}
	}
	return n
}
