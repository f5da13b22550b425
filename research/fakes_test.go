package research

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/smallnest/deepresearch/llm"
	"github.com/smallnest/deepresearch/search"
)

// fakeModel answers planner, summarizer and writer prompts from a script.
type fakeModel struct {
	mu sync.Mutex

	plan         string
	planErr      error
	summarizeErr error
	report       func(topic string, summaries string) string
	reportErr    error

	calls          []string
	summaryPrompts []string
	reportPrompts  []string
}

func (m *fakeModel) Invoke(ctx context.Context, messages []llm.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(messages) == 2 && messages[0].Role == llm.RoleSystem {
		m.calls = append(m.calls, NodePlanner)
		return m.plan, m.planErr
	}

	prompt := messages[len(messages)-1].Content
	switch {
	case strings.HasPrefix(prompt, "You are a research assistant."):
		m.calls = append(m.calls, "summarize")
		m.summaryPrompts = append(m.summaryPrompts, prompt)
		if m.summarizeErr != nil {
			return "", m.summarizeErr
		}
		query := between(prompt, "for the query: '", "'.")
		return "Summary of " + query, nil
	case strings.HasPrefix(prompt, "You are a professional technical writer."):
		m.calls = append(m.calls, NodeWriter)
		m.reportPrompts = append(m.reportPrompts, prompt)
		if m.reportErr != nil {
			return "", m.reportErr
		}
		topic := between(prompt, "report on: '", "'.")
		summaries := between(prompt, "research phase:\n\n", "\n\nWrite a comprehensive")
		if m.report != nil {
			return m.report(topic, summaries), nil
		}
		return defaultReport(topic, summaries), nil
	}
	return "", errors.New("unexpected prompt")
}

func (m *fakeModel) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == kind {
			n++
		}
	}
	return n
}

func defaultReport(topic, summaries string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Report: %s\n\n## Introduction\n\nFindings on %s.\n\n## Key Findings\n\n", topic, topic)
	for i, s := range strings.Split(summaries, SummarySeparator) {
		fmt.Fprintf(&b, "### Finding %d\n\n%s\n\n", i+1, s)
	}
	b.WriteString("## Conclusion\n\nDone.\n")
	return b.String()
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	s = s[i+len(start):]
	if j := strings.Index(s, end); j >= 0 {
		return s[:j]
	}
	return s
}

// fakeSearch returns one result per query, derived from the query text.
type fakeSearch struct {
	mu       sync.Mutex
	err      error
	perQuery int
	queries  []string
}

func (s *fakeSearch) Search(ctx context.Context, query string, maxResults int) iter.Seq2[search.Result, error] {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if s.err != nil {
		return search.Fail(s.err)
	}
	n := s.perQuery
	if n == 0 {
		n = 1
	}
	results := make([]search.Result, n)
	for i := range results {
		results[i] = search.Result{
			Title: fmt.Sprintf("%s #%d", query, i+1),
			URL:   fmt.Sprintf("https://example.com/%s/%d", strings.ReplaceAll(query, " ", "-"), i+1),
		}
	}
	return search.FromSlice(results, maxResults)
}

// fakeExtractor returns page text keyed by URL; unknown URLs get generic text.
type fakeExtractor struct {
	mu    sync.Mutex
	pages map[string]string
	fail  map[string]error
	urls  []string
	all   error
}

func (x *fakeExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.urls = append(x.urls, rawURL)
	if x.all != nil {
		return "", x.all
	}
	if err, ok := x.fail[rawURL]; ok {
		return "", err
	}
	if text, ok := x.pages[rawURL]; ok {
		return text, nil
	}
	return "Facts extracted from " + rawURL, nil
}

// slowModel blocks until the context ends or delay passes.
type slowModel struct {
	delay time.Duration
}

func (m *slowModel) Invoke(ctx context.Context, messages []llm.Message) (string, error) {
	select {
	case <-time.After(m.delay):
		return "late", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
