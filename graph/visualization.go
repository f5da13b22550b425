package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Exporter renders a graph's topology in text formats.
type Exporter[S, D any] struct {
	graph *StateGraph[S, D]
}

// NewExporter creates a new graph exporter for the given graph
func NewExporter[S, D any](graph *StateGraph[S, D]) *Exporter[S, D] {
	return &Exporter[S, D]{graph: graph}
}

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string

	// Routes lists the possible targets of each conditional edge, keyed by
	// source node. Conditions are opaque functions, so without this the
	// diagram only marks that a choice happens.
	Routes map[string][]string
}

// DrawMermaid generates a Mermaid diagram representation of the graph
func (ge *Exporter[S, D]) DrawMermaid() string {
	return ge.DrawMermaidWithOptions(MermaidOptions{Direction: "TD"})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options
func (ge *Exporter[S, D]) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	fmt.Fprintf(&sb, "flowchart %s\n", direction)

	if ge.graph.entryPoint != "" {
		sb.WriteString("    START([\"START\"])\n")
		fmt.Fprintf(&sb, "    START --> %s\n", ge.graph.entryPoint)
	}

	names := make([]string, 0, len(ge.graph.nodes))
	for name := range ge.graph.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", name, name)
	}

	hasEnd := false
	for _, edge := range ge.graph.edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", edge.From, edge.To)
		hasEnd = hasEnd || edge.To == END
	}

	froms := make([]string, 0, len(ge.graph.conditionalEdges))
	for from := range ge.graph.conditionalEdges {
		froms = append(froms, from)
	}
	sort.Strings(froms)
	for _, from := range froms {
		targets := opts.Routes[from]
		if len(targets) == 0 {
			fmt.Fprintf(&sb, "    %s -.-> %s_condition((?))\n", from, from)
			continue
		}
		for _, to := range targets {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", from, to)
			hasEnd = hasEnd || to == END
		}
	}

	if hasEnd {
		sb.WriteString("    END([\"END\"])\n")
		sb.WriteString("    style END fill:#FFB6C1\n")
	}
	if ge.graph.entryPoint != "" {
		sb.WriteString("    style START fill:#90EE90\n")
		fmt.Fprintf(&sb, "    style %s fill:#87CEEB\n", ge.graph.entryPoint)
	}

	return sb.String()
}
