package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallnest/deepresearch/extract"
	"github.com/smallnest/deepresearch/graph"
	"github.com/smallnest/deepresearch/llm"
	"github.com/smallnest/deepresearch/log"
	"github.com/smallnest/deepresearch/search"
)

const (
	// DefaultMaxResults is the number of search results researched per query.
	DefaultMaxResults = 3

	// DefaultMaxDocumentChars caps the extracted text kept per source.
	DefaultMaxDocumentChars = 8000
)

// Document is the extracted text of one search result.
type Document struct {
	URL  string
	Text string
}

// String formats the document for the summarization prompt.
func (d Document) String() string {
	return "SOURCE: " + d.URL + "\nCONTENT:\n" + d.Text
}

// Finding is the outcome of researching one query.
type Finding struct {
	Query   string
	Summary string
	Sources []string
}

// Researcher runs search, extraction and summarization for a single query.
type Researcher struct {
	model            llm.Client
	searcher         search.Client
	extractor        extract.Extractor
	maxResults       int
	maxDocumentChars int
	logger           log.Logger
}

// NewResearcher creates a researcher with default limits.
func NewResearcher(model llm.Client, searcher search.Client, extractor extract.Extractor, logger log.Logger) *Researcher {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Researcher{
		model:            model,
		searcher:         searcher,
		extractor:        extractor,
		maxResults:       DefaultMaxResults,
		maxDocumentChars: DefaultMaxDocumentChars,
		logger:           logger,
	}
}

// Research searches for query, extracts each result and summarizes what
// was found. Search and extraction failures only reduce the material; a
// failing summarization is returned as an error.
func (r *Researcher) Research(ctx context.Context, query string) (Finding, error) {
	finding := Finding{Query: query}

	r.logger.Debug("[researcher] searching for %q", query)
	results, err := search.Collect(r.searcher.Search(ctx, query, r.maxResults))
	if err != nil {
		r.logger.Warn("[researcher] search failed for %q: %v", query, err)
		results = nil
	}
	if len(results) > r.maxResults {
		results = results[:r.maxResults]
	}

	var docs []Document
	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return finding, err
		}
		r.logger.Debug("[researcher] scraping %s (%s)", res.Title, res.URL)
		text, err := r.extractor.Extract(ctx, res.URL)
		if err != nil {
			r.logger.Warn("[researcher] scraping failed for %s: %v", res.URL, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			r.logger.Warn("[researcher] skipped %s: no main text found", res.URL)
			continue
		}
		docs = append(docs, Document{URL: res.URL, Text: truncate(text, r.maxDocumentChars)})
	}
	if err := ctx.Err(); err != nil {
		return finding, err
	}

	if len(docs) == 0 {
		r.logger.Info("[researcher] no content scraped for %q, skipping summary", query)
		finding.Summary = Placeholder(query)
		return finding, nil
	}

	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.String()
		finding.Sources = append(finding.Sources, d.URL)
	}

	r.logger.Debug("[researcher] summarizing %d documents", len(docs))
	summary, err := r.model.Invoke(ctx, []llm.Message{
		llm.Human(summaryPrompt(query, strings.Join(parts, "\n\n"))),
	})
	if err != nil {
		return finding, fmt.Errorf("summarize %q: %w", query, err)
	}
	finding.Summary = summary
	return finding, nil
}

// Node returns the researcher as a graph node working on the query at the cursor.
func (r *Researcher) Node() graph.NodeFunc[State, Delta] {
	return func(ctx context.Context, s State) (Delta, error) {
		query, ok := s.CurrentQuery()
		if !ok {
			return nil, fmt.Errorf("%w: cursor %d outside plan of %d", ErrInvalidDelta, s.Cursor, len(s.Plan))
		}
		r.logger.Info("[researcher] processing query %d/%d: %q", s.Cursor+1, len(s.Plan), query)

		f, err := r.Research(ctx, query)
		if err != nil {
			return nil, err
		}
		return ResearchDelta{
			Cursor:  s.Cursor + 1,
			Query:   query,
			Summary: f.Summary,
			Sources: f.Sources,
		}, nil
	}
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
