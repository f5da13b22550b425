package search

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultDuckDuckGoEndpoint is the lite HTML interface, which is the most
// stable page to scrape.
const DefaultDuckDuckGoEndpoint = "https://lite.duckduckgo.com/lite/"

// DuckDuckGo searches by scraping DuckDuckGo's lite HTML page. It needs no
// API key.
type DuckDuckGo struct {
	endpoint string
	client   *http.Client
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// DuckDuckGoOption configures a DuckDuckGo client.
type DuckDuckGoOption func(*DuckDuckGo)

// WithDuckDuckGoEndpoint overrides the page that is scraped.
func WithDuckDuckGoEndpoint(endpoint string) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		d.endpoint = endpoint
	}
}

// WithDuckDuckGoHTTPClient sets the HTTP client used for requests.
func WithDuckDuckGoHTTPClient(client *http.Client) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		d.client = client
	}
}

// WithDuckDuckGoInterval sets the minimum spacing between requests made by
// this client. Zero disables pacing.
func WithDuckDuckGoInterval(interval time.Duration) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		d.interval = interval
	}
}

// NewDuckDuckGo creates a DuckDuckGo client paced to one query per second.
func NewDuckDuckGo(opts ...DuckDuckGoOption) *DuckDuckGo {
	d := &DuckDuckGo{
		endpoint: DefaultDuckDuckGoEndpoint,
		client:   defaultHTTPClient(),
		interval: time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Search implements the Client interface
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) iter.Seq2[Result, error] {
	return fetch(func() ([]Result, error) { return d.search(ctx, query) }, maxResults)
}

func (d *DuckDuckGo) search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if err := d.pace(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("q", query)

	var resp *http.Response
	delay := time.Second
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err = d.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("duckduckgo request: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt == 3 {
			break
		}
		resp.Body.Close()

		// Back off on 429, doubling the delay each time.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return parseDuckDuckGo(doc), nil
}

// pace enforces the minimum interval between requests.
func (d *DuckDuckGo) pace(ctx context.Context) error {
	if d.interval <= 0 {
		return nil
	}
	d.mu.Lock()
	wait := time.Until(d.last.Add(d.interval))
	if wait < 0 {
		wait = 0
	}
	d.last = time.Now().Add(wait)
	d.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// parseDuckDuckGo reads results from either the lite page (a.result-link,
// td.result-snippet) or the regular HTML page (a.result__a, .result__snippet).
func parseDuckDuckGo(doc *goquery.Document) []Result {
	var results []Result
	seen := make(map[string]bool)

	add := func(href, title, snippet string) {
		u := resolveDuckDuckGoLink(href)
		title = strings.TrimSpace(title)
		if u == "" || title == "" || seen[u] || isDuckDuckGoAd(u) {
			return
		}
		seen[u] = true
		results = append(results, Result{Title: title, URL: u, Snippet: collapseSpace(snippet)})
	}

	// Lite layout: each link row is followed by a row holding its snippet.
	doc.Find("a.result-link").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		snippet := a.Closest("tr").NextFiltered("tr").Find("td.result-snippet").Text()
		add(href, a.Text(), snippet)
	})
	if len(results) > 0 {
		return results
	}

	doc.Find(".result").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("result--ad") {
			return
		}
		a := s.Find("a.result__a").First()
		href, _ := a.Attr("href")
		add(href, a.Text(), s.Find(".result__snippet").Text())
	})
	return results
}

// resolveDuckDuckGoLink unwraps DuckDuckGo's /l/?uddg= redirect links and
// returns an absolute http(s) URL, or "" when the link is not a result.
func resolveDuckDuckGoLink(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return resolveDuckDuckGoLink(target)
		}
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func isDuckDuckGoAd(u string) bool {
	return strings.Contains(u, "duckduckgo.com/y.js") || strings.Contains(u, "ad_domain=")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
