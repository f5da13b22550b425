package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
)

// Tavily searches through the Tavily search API.
type Tavily struct {
	apiKey  string
	baseURL string
	depth   string
	client  *http.Client
}

// TavilyOption configures a Tavily client.
type TavilyOption func(*Tavily)

// WithTavilyBaseURL sets the search endpoint.
func WithTavilyBaseURL(baseURL string) TavilyOption {
	return func(t *Tavily) {
		t.baseURL = baseURL
	}
}

// WithTavilyDepth sets the search depth, "basic" or "advanced".
func WithTavilyDepth(depth string) TavilyOption {
	return func(t *Tavily) {
		t.depth = depth
	}
}

// WithTavilyHTTPClient sets the HTTP client used for requests.
func WithTavilyHTTPClient(client *http.Client) TavilyOption {
	return func(t *Tavily) {
		t.client = client
	}
}

// NewTavily creates a Tavily client.
func NewTavily(apiKey string, opts ...TavilyOption) (*Tavily, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("tavily: %w", ErrMissingAPIKey)
	}
	t := &Tavily{
		apiKey:  apiKey,
		baseURL: "https://api.tavily.com/search",
		depth:   "basic",
		client:  defaultHTTPClient(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

type tavilyRequest struct {
	Query       string `json:"query"`
	APIKey      string `json:"api_key"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search implements the Client interface
func (t *Tavily) Search(ctx context.Context, query string, maxResults int) iter.Seq2[Result, error] {
	return fetch(func() ([]Result, error) { return t.search(ctx, query, maxResults) }, maxResults)
}

func (t *Tavily) search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	body, err := json.Marshal(tavilyRequest{
		Query:       query,
		APIKey:      t.apiKey,
		SearchDepth: t.depth,
		MaxResults:  max(maxResults, 1),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api status: %d", resp.StatusCode)
	}

	var out tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]Result, 0, len(out.Results))
	for _, r := range out.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return results, nil
}
