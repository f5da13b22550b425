package research

import (
	"context"
	"regexp"
	"strings"

	"github.com/smallnest/deepresearch/graph"
	"github.com/smallnest/deepresearch/llm"
	"github.com/smallnest/deepresearch/log"
)

// DefaultMaxQueries is the largest plan the planner produces.
const DefaultMaxQueries = 3

// Planner decomposes a topic into search queries.
type Planner struct {
	model      llm.Client
	maxQueries int
	logger     log.Logger
}

// NewPlanner creates a planner that keeps at most maxQueries queries.
// A non-positive maxQueries means DefaultMaxQueries.
func NewPlanner(model llm.Client, maxQueries int, logger log.Logger) *Planner {
	if maxQueries <= 0 {
		maxQueries = DefaultMaxQueries
	}
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Planner{model: model, maxQueries: maxQueries, logger: logger}
}

// Plan asks the model for search queries and parses its answer.
// It returns ErrEmptyPlan when the answer holds no usable line.
func (p *Planner) Plan(ctx context.Context, topic string) ([]string, error) {
	p.logger.Info("[planner] generating search queries for %q", topic)

	out, err := p.model.Invoke(ctx, []llm.Message{
		llm.System(plannerInstruction),
		llm.Human(topic),
	})
	if err != nil {
		return nil, err
	}

	plan := ParsePlan(out, p.maxQueries)
	if len(plan) == 0 {
		return nil, ErrEmptyPlan
	}
	p.logger.Info("[planner] plan generated: %q", plan)
	return plan, nil
}

// Node returns the planner as a graph node.
func (p *Planner) Node() graph.NodeFunc[State, Delta] {
	return func(ctx context.Context, s State) (Delta, error) {
		plan, err := p.Plan(ctx, s.Topic)
		if err != nil {
			return nil, err
		}
		return PlanDelta{Plan: plan}, nil
	}
}

// listMarker matches bullets and numbering a model may add despite being told
// not to. "1)" needs no trailing space; "1." does, so decimals like "3.5" survive.
var listMarker = regexp.MustCompile(`^(?:[-*•]\s+|\d{1,2}\.\s+|\d{1,2}\)\s*)`)

// ParsePlan splits a model answer into at most limit queries: one per line,
// trimmed, blank lines and duplicates dropped, order kept.
func ParsePlan(text string, limit int) []string {
	seen := make(map[string]bool)
	var plan []string
	for line := range strings.Lines(text) {
		q := strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		plan = append(plan, q)
		if limit > 0 && len(plan) == limit {
			break
		}
	}
	return plan
}
