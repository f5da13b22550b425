package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
)

// ErrMissingAPIKey is returned when an API-backed client is built without a key.
var ErrMissingAPIKey = errors.New("search: api key not set")

// Brave searches through the Brave Search API.
type Brave struct {
	APIKey  string
	BaseURL string
	Country string
	Lang    string
	client  *http.Client
}

// BraveOption configures a Brave client.
type BraveOption func(*Brave)

// WithBraveBaseURL sets the base URL for the Brave Search API.
func WithBraveBaseURL(baseURL string) BraveOption {
	return func(b *Brave) {
		b.BaseURL = baseURL
	}
}

// WithBraveCountry sets the country code for search results (e.g., "US", "CN").
func WithBraveCountry(country string) BraveOption {
	return func(b *Brave) {
		b.Country = country
	}
}

// WithBraveLang sets the language code for search results (e.g., "en", "zh").
func WithBraveLang(lang string) BraveOption {
	return func(b *Brave) {
		b.Lang = lang
	}
}

// WithBraveHTTPClient sets the HTTP client used for requests.
func WithBraveHTTPClient(client *http.Client) BraveOption {
	return func(b *Brave) {
		b.client = client
	}
}

// NewBrave creates a Brave Search client.
func NewBrave(apiKey string, opts ...BraveOption) (*Brave, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("brave: %w", ErrMissingAPIKey)
	}

	b := &Brave{
		APIKey:  apiKey,
		BaseURL: "https://api.search.brave.com/res/v1/web/search",
		Country: "US",
		Lang:    "en",
		client:  defaultHTTPClient(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search implements the Client interface
func (b *Brave) Search(ctx context.Context, query string, maxResults int) iter.Seq2[Result, error] {
	return fetch(func() ([]Result, error) { return b.search(ctx, query, maxResults) }, maxResults)
}

func (b *Brave) search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	// The API accepts 1-20 results per page.
	count := min(max(maxResults, 1), 20)

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))
	if b.Country != "" {
		params.Set("country", b.Country)
	}
	if b.Lang != "" {
		params.Set("search_lang", b.Lang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave api returned status: %d", resp.StatusCode)
	}

	var body braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]Result, 0, len(body.Web.Results))
	for _, r := range body.Web.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return results, nil
}
