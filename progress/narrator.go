// Package progress narrates a research run for a terminal.
package progress

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/smallnest/deepresearch/research"
)

// Narrator prints one styled block per research event.
//
// Styles are bound to a renderer for the output writer, so colours are only
// emitted when the writer is a terminal.
type Narrator struct {
	out io.Writer

	title   lipgloss.Style
	success lipgloss.Style
	step    lipgloss.Style
	muted   lipgloss.Style
	failure lipgloss.Style
	item    lipgloss.Style
}

// NewNarrator creates a narrator writing to out.
func NewNarrator(out io.Writer) *Narrator {
	r := lipgloss.NewRenderer(out)
	return &Narrator{
		out:     out,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3")),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		step:    r.NewStyle().Foreground(lipgloss.Color("#FFC107")),
		muted:   r.NewStyle().Faint(true),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#e53935")),
		item:    r.NewStyle().PaddingLeft(2),
	}
}

// Start announces the topic.
func (n *Narrator) Start(topic string) {
	fmt.Fprintln(n.out, n.title.Render("Researching: "+topic))
}

// Handle prints a progress line for a completed node.
func (n *Narrator) Handle(ev research.Event) {
	switch d := ev.Delta.(type) {
	case research.PlanDelta:
		fmt.Fprintln(n.out, n.success.Render(
			fmt.Sprintf("✅ Plan Created: Generated %d search queries.", len(d.Plan))))
		for i, q := range d.Plan {
			fmt.Fprintln(n.out, n.item.Render(fmt.Sprintf("%d. %s", i+1, q)))
		}
	case research.ResearchDelta:
		line := fmt.Sprintf("🔍 Research Step: Finished Query %d. (Scraped & Summarized %d chars)",
			d.Cursor, utf8.RuneCountInString(d.Summary))
		fmt.Fprintln(n.out, n.step.Render(line))
		if len(d.Sources) > 0 {
			fmt.Fprintln(n.out, n.item.Render(n.muted.Render(strings.Join(d.Sources, "\n"))))
		}
	case research.ReportDelta:
		fmt.Fprintln(n.out, n.success.Render("Research Complete!"))
	}
}

// Fail prints a single human-readable failure message.
func (n *Narrator) Fail(err error) {
	fmt.Fprintln(n.out, n.failure.Render("Error Occurred: "+err.Error()))
}
