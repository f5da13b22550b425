package research

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/smallnest/deepresearch/extract"
	"github.com/smallnest/deepresearch/graph"
	"github.com/smallnest/deepresearch/llm"
	"github.com/smallnest/deepresearch/log"
	"github.com/smallnest/deepresearch/search"
)

// Node names used in the workflow graph and in progress events.
const (
	NodePlanner    = "planner"
	NodeResearcher = "researcher"
	NodeWriter     = "writer"
)

var (
	// ErrEmptyTopic is returned when a run is started without a topic.
	ErrEmptyTopic = errors.New("research: topic is empty")

	// ErrEmptyPlan is returned when the planner yields no usable query.
	ErrEmptyPlan = errors.New("research: planner produced no queries")

	// ErrEmptyReport is returned when the writer yields an empty report.
	ErrEmptyReport = errors.New("research: writer produced an empty report")

	// ErrMissingDependency is returned by NewEngine when a client is nil.
	ErrMissingDependency = errors.New("research: missing dependency")
)

// NodeError reports the node at which a run failed.
type NodeError = graph.NodeError

// Phase is the position of a run in the workflow.
type Phase string

const (
	PhasePlanning    Phase = "planning"
	PhaseResearching Phase = "researching"
	PhaseWriting     Phase = "writing"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
)

// phaseOf returns the phase a run is in while node is executing.
func phaseOf(node string) Phase {
	switch node {
	case NodePlanner:
		return PhasePlanning
	case NodeResearcher:
		return PhaseResearching
	case NodeWriter:
		return PhaseWriting
	case graph.END:
		return PhaseDone
	}
	return PhaseFailed
}

// Event is emitted after each node completes.
type Event struct {
	// Node is the node that completed.
	Node string
	// Delta is what the node produced: PlanDelta, ResearchDelta or ReportDelta.
	Delta Delta
	// Phase is the phase the run moves into next.
	Phase Phase
	// Step is the 1-based index of the research step for researcher events,
	// and 0 otherwise.
	Step int
	// Total is the plan length once known.
	Total int
	// Elapsed is how long the node took.
	Elapsed time.Duration
}

type options struct {
	logger           log.Logger
	maxQueries       int
	maxResults       int
	maxDocumentChars int
	nodeTimeout      time.Duration
	listeners        []graph.NodeListener
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the logger used by every node.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxQueries caps the plan length.
func WithMaxQueries(n int) Option {
	return func(o *options) {
		o.maxQueries = n
	}
}

// WithMaxResults sets how many search results are researched per query.
func WithMaxResults(n int) Option {
	return func(o *options) {
		o.maxResults = n
	}
}

// WithMaxDocumentChars caps the extracted text kept per source, in characters.
func WithMaxDocumentChars(n int) Option {
	return func(o *options) {
		o.maxDocumentChars = n
	}
}

// WithNodeTimeout bounds each node execution. Zero means no limit.
func WithNodeTimeout(d time.Duration) Option {
	return func(o *options) {
		o.nodeTimeout = d
	}
}

// WithListener attaches a listener to every node start, completion and failure.
func WithListener(l graph.NodeListener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, l)
	}
}

// Engine runs the research workflow:
//
//	planner -> researcher (repeated once per planned query) -> writer -> END
//
// An Engine is safe for concurrent use; each run owns its own State.
type Engine struct {
	graph    *graph.StateGraph[State, Delta]
	runnable *graph.StateRunnable[State, Delta]
	logger   log.Logger
}

// NewEngine wires the planner, researcher and writer around the given clients.
func NewEngine(model llm.Client, searcher search.Client, extractor extract.Extractor, opts ...Option) (*Engine, error) {
	if model == nil || searcher == nil || extractor == nil {
		return nil, ErrMissingDependency
	}

	o := options{
		logger:           &log.NoOpLogger{},
		maxQueries:       DefaultMaxQueries,
		maxResults:       DefaultMaxResults,
		maxDocumentChars: DefaultMaxDocumentChars,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = &log.NoOpLogger{}
	}
	if o.maxQueries <= 0 {
		o.maxQueries = DefaultMaxQueries
	}

	planner := NewPlanner(model, o.maxQueries, o.logger)
	researcher := NewResearcher(model, searcher, extractor, o.logger)
	if o.maxResults > 0 {
		researcher.maxResults = o.maxResults
	}
	if o.maxDocumentChars > 0 {
		researcher.maxDocumentChars = o.maxDocumentChars
	}
	writer := NewWriter(model, o.logger)

	g := graph.NewStateGraph(Merge)
	g.AddNode(NodePlanner, "Break the topic into search queries",
		graph.WithTimeout(NodePlanner, planner.Node(), o.nodeTimeout))
	g.AddNode(NodeResearcher, "Search, scrape and summarize the query at the cursor",
		graph.WithTimeout(NodeResearcher, researcher.Node(), o.nodeTimeout))
	g.AddNode(NodeWriter, "Compose the final report",
		graph.WithTimeout(NodeWriter, writer.Node(), o.nodeTimeout))

	g.SetEntryPoint(NodePlanner)
	g.AddEdge(NodePlanner, NodeResearcher)
	g.AddConditionalEdge(NodeResearcher, route)
	g.AddEdge(NodeWriter, graph.END)
	// One planner step, at most maxQueries research steps and one writer step.
	g.SetMaxSteps(o.maxQueries + 2)

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile research graph: %w", err)
	}
	for _, l := range o.listeners {
		runnable.AddListener(l)
	}

	return &Engine{graph: g, runnable: runnable, logger: o.logger}, nil
}

// Run executes the whole workflow and returns the final state.
func (e *Engine) Run(ctx context.Context, topic string) (State, error) {
	var final State
	for _, err := range e.stream(ctx, topic, &final) {
		if err != nil {
			return State{}, err
		}
	}
	return final, nil
}

// Stream executes the workflow and yields one Event per completed node.
// A failure is yielded once and ends the sequence; stopping the iteration
// early cancels the remaining nodes.
func (e *Engine) Stream(ctx context.Context, topic string) iter.Seq2[Event, error] {
	return e.stream(ctx, topic, nil)
}

func (e *Engine) stream(ctx context.Context, topic string, final *State) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			yield(Event{}, ErrEmptyTopic)
			return
		}
		e.logger.Info("starting research on %q", topic)

		for step, err := range e.runnable.Stream(ctx, State{Topic: topic}) {
			if err != nil {
				e.logger.Error("research failed: %v", err)
				yield(Event{}, err)
				return
			}
			if final != nil {
				*final = step.State
			}
			ev := Event{
				Node:    step.Node,
				Delta:   step.Delta,
				Phase:   phaseOf(step.Next),
				Total:   len(step.State.Plan),
				Elapsed: step.Duration,
			}
			if step.Node == NodeResearcher {
				ev.Step = step.State.Cursor
			}
			if !yield(ev, nil) {
				return
			}
		}
		e.logger.Info("research on %q complete", topic)
	}
}

// Mermaid renders the workflow graph as a Mermaid flowchart.
func (e *Engine) Mermaid() string {
	return graph.NewExporter(e.graph).DrawMermaidWithOptions(graph.MermaidOptions{
		Direction: "TD",
		Routes:    map[string][]string{NodeResearcher: {NodeResearcher, NodeWriter}},
	})
}
