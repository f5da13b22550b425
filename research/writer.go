package research

import (
	"context"
	"strings"

	"github.com/smallnest/deepresearch/graph"
	"github.com/smallnest/deepresearch/llm"
	"github.com/smallnest/deepresearch/log"
)

// Writer synthesizes the final report from the research summaries.
type Writer struct {
	model  llm.Client
	logger log.Logger
}

// NewWriter creates a writer.
func NewWriter(model llm.Client, logger log.Logger) *Writer {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Writer{model: model, logger: logger}
}

// Write produces a Markdown report on topic based only on summaries.
func (w *Writer) Write(ctx context.Context, topic string, summaries []string) (string, error) {
	w.logger.Info("[writer] composing final report from %d summaries", len(summaries))

	report, err := w.model.Invoke(ctx, []llm.Message{
		llm.Human(reportPrompt(topic, summaries)),
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(report) == "" {
		return "", ErrEmptyReport
	}
	return report, nil
}

// Node returns the writer as a graph node.
func (w *Writer) Node() graph.NodeFunc[State, Delta] {
	return func(ctx context.Context, s State) (Delta, error) {
		report, err := w.Write(ctx, s.Topic, s.Summaries)
		if err != nil {
			return nil, err
		}
		return ReportDelta{FinalReport: report}, nil
	}
}
