package research

import "context"

// Decision is the loop controller's verdict after a research step.
type Decision string

const (
	// Continue means another planned query remains.
	Continue Decision = "continue"
	// Finish means every planned query has been researched.
	Finish Decision = "finish"
)

// NextStep decides whether the research loop continues. It depends only on
// the state.
func NextStep(s State) Decision {
	if s.Cursor < len(s.Plan) {
		return Continue
	}
	return Finish
}

// route maps the loop decision onto the next node.
func route(_ context.Context, s State) string {
	if NextStep(s) == Continue {
		return NodeResearcher
	}
	return NodeWriter
}
