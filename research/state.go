package research

import (
	"errors"
	"fmt"
	"slices"
)

// State is the working memory of one research run. It is created per run,
// owned by the goroutine executing the run, and only changed by merging
// deltas through Merge.
type State struct {
	// Topic is the user's research topic, set once at start.
	Topic string `json:"topic"`
	// Plan holds the search queries produced by the planner, in order.
	Plan []string `json:"plan"`
	// Cursor is the index of the next query to research.
	Cursor int `json:"cursor"`
	// Summaries holds one summary per researched query, in plan order.
	Summaries []string `json:"summaries"`
	// FinalReport is the synthesized Markdown report.
	FinalReport string `json:"final_report"`
}

// Done reports whether every planned query has been researched.
func (s State) Done() bool {
	return s.Cursor >= len(s.Plan)
}

// CurrentQuery returns the query at the cursor.
func (s State) CurrentQuery() (string, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Plan) {
		return "", false
	}
	return s.Plan[s.Cursor], true
}

// ErrInvalidDelta is returned by Merge when a delta would break a state invariant.
var ErrInvalidDelta = errors.New("invalid delta")

// Delta is the partial update produced by one node. The set of deltas is
// closed: PlanDelta, ResearchDelta and ReportDelta.
type Delta interface {
	// Node returns the name of the node that produces this delta.
	Node() string
	merge(s State) (State, error)
}

// PlanDelta is produced by the planner. It replaces the plan and restarts the
// research loop, so re-planning a state mid-run is safe.
type PlanDelta struct {
	Plan []string `json:"plan"`
}

// ResearchDelta is produced once per researcher invocation.
type ResearchDelta struct {
	// Cursor is the new cursor value, one past the researched query.
	Cursor int `json:"cursor"`
	// Query is the query that was researched.
	Query string `json:"query"`
	// Summary is appended to State.Summaries.
	Summary string `json:"summary"`
	// Sources lists the URLs whose text fed the summary.
	Sources []string `json:"sources,omitempty"`
}

// ReportDelta is produced by the writer.
type ReportDelta struct {
	FinalReport string `json:"final_report"`
}

func (PlanDelta) Node() string     { return NodePlanner }
func (ResearchDelta) Node() string { return NodeResearcher }
func (ReportDelta) Node() string   { return NodeWriter }

func (d PlanDelta) merge(s State) (State, error) {
	if len(d.Plan) == 0 {
		return s, ErrEmptyPlan
	}
	s.Plan = slices.Clone(d.Plan)
	s.Cursor = 0
	s.Summaries = []string{}
	return s, nil
}

func (d ResearchDelta) merge(s State) (State, error) {
	if d.Cursor != s.Cursor+1 {
		return s, fmt.Errorf("%w: cursor must advance by one (have %d, got %d)", ErrInvalidDelta, s.Cursor, d.Cursor)
	}
	if d.Cursor > len(s.Plan) {
		return s, fmt.Errorf("%w: cursor %d beyond plan of %d", ErrInvalidDelta, d.Cursor, len(s.Plan))
	}
	summaries := make([]string, len(s.Summaries), len(s.Summaries)+1)
	copy(summaries, s.Summaries)
	s.Summaries = append(summaries, d.Summary)
	s.Cursor = d.Cursor
	return s, nil
}

func (d ReportDelta) merge(s State) (State, error) {
	if s.FinalReport != "" {
		return s, fmt.Errorf("%w: report already written", ErrInvalidDelta)
	}
	if !s.Done() {
		return s, fmt.Errorf("%w: report before research finished (%d/%d)", ErrInvalidDelta, s.Cursor, len(s.Plan))
	}
	if d.FinalReport == "" {
		return s, ErrEmptyReport
	}
	s.FinalReport = d.FinalReport
	return s, nil
}

// Merge folds a node's delta into the state. It is the only way state
// changes during a run and it rejects deltas that would break the
// relationship between cursor, plan and summaries.
func Merge(s State, d Delta) (State, error) {
	if d == nil {
		return s, fmt.Errorf("%w: nil delta", ErrInvalidDelta)
	}
	return d.merge(s)
}
