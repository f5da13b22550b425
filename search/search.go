// Package search provides web search clients returning ranked result
// sequences for a query.
package search

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"time"
)

// ErrEmptyQuery is returned when a search is attempted with a blank query.
var ErrEmptyQuery = errors.New("search: query is empty")

// DefaultTimeout bounds a single search request.
const DefaultTimeout = 15 * time.Second

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Result is one ranked search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Client searches the web. The returned sequence is lazy: no request is made
// until it is iterated. It yields results in provider rank order, at most
// maxResults of them. A failure is yielded once as an error and ends the
// sequence.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) iter.Seq2[Result, error]
}

// ClientFunc is a function adapter for Client
type ClientFunc func(ctx context.Context, query string, maxResults int) iter.Seq2[Result, error]

// Search implements the Client interface
func (f ClientFunc) Search(ctx context.Context, query string, maxResults int) iter.Seq2[Result, error] {
	return f(ctx, query, maxResults)
}

// Collect drains seq into a slice, stopping at the first error.
// Results gathered before the error are returned alongside it.
func Collect(seq iter.Seq2[Result, error]) ([]Result, error) {
	var out []Result
	for r, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

// FromSlice returns a sequence over fixed results, capped at maxResults.
func FromSlice(results []Result, maxResults int) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		for i, r := range results {
			if maxResults > 0 && i >= maxResults {
				return
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Fail returns a sequence that yields err once.
func Fail(err error) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		yield(Result{}, err)
	}
}

// fetch lazily runs load when the sequence is iterated and yields its results.
func fetch(load func() ([]Result, error), maxResults int) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		results, err := load()
		if err != nil {
			yield(Result{}, err)
			return
		}
		FromSlice(results, maxResults)(yield)
	}
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}
