// Package extract fetches web pages and reduces them to their primary
// readable text.
//
// Readability-style article extraction is tried first; pages it cannot handle
// fall back to stripping markup and navigation chrome from the whole body.
package extract

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

// Extractor turns a URL into readable text. An empty string with a nil error
// means the page had no usable content.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (string, error)
}

// ExtractorFunc is a function adapter for Extractor
type ExtractorFunc func(ctx context.Context, rawURL string) (string, error)

// Extract implements the Extractor interface
func (f ExtractorFunc) Extract(ctx context.Context, rawURL string) (string, error) {
	return f(ctx, rawURL)
}

var (
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("extract: unsupported url scheme")

	// ErrNotHTML is returned when the response is not an HTML or text document.
	ErrNotHTML = errors.New("extract: response is not html")
)

const (
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 20 * time.Second

	// DefaultMaxBytes caps how much of a response body is read.
	DefaultMaxBytes = 5 << 20

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// boilerplate lists elements removed before the fallback text pass.
const boilerplate = "script, style, noscript, nav, header, footer, aside, form, iframe, svg"

// Readability fetches pages over HTTP and extracts their main text.
type Readability struct {
	client   *http.Client
	maxBytes int64
	policy   *bluemonday.Policy
}

// Option configures a Readability extractor.
type Option func(*Readability)

// WithHTTPClient sets the HTTP client used for fetching.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Readability) {
		r.client = client
	}
}

// WithMaxBytes caps the number of body bytes read per page.
func WithMaxBytes(n int64) Option {
	return func(r *Readability) {
		if n > 0 {
			r.maxBytes = n
		}
	}
}

// NewReadability creates an extractor with a default timeout and size cap.
func NewReadability(opts ...Option) *Readability {
	r := &Readability{
		client:   &http.Client{Timeout: DefaultTimeout},
		maxBytes: DefaultMaxBytes,
		policy:   bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Extract implements the Extractor interface
func (r *Readability) Extract(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	page, err := r.fetch(ctx, u)
	if err != nil {
		return "", err
	}
	return r.FromHTML(page, u), nil
}

func (r *Readability) fetch(ctx context.Context, u *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,text/plain;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: http %d", u, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mt, _, _ := mime.ParseMediaType(ct)
		if mt != "text/html" && mt != "application/xhtml+xml" && mt != "text/plain" {
			return "", fmt.Errorf("%w: %s", ErrNotHTML, mt)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", u, err)
	}
	return string(body), nil
}

// FromHTML extracts readable text from an already fetched page. u is used to
// resolve relative links and may be nil.
func (r *Readability) FromHTML(page string, u *url.URL) string {
	if u == nil {
		u = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(page), u)
	if err == nil {
		if text := normalize(article.TextContent); text != "" {
			return text
		}
	}
	return r.stripped(page)
}

// stripped removes boilerplate elements and all remaining markup.
func (r *Readability) stripped(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return normalize(html.UnescapeString(r.policy.Sanitize(page)))
	}
	doc.Find(boilerplate).Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	markup, err := body.Html()
	if err != nil {
		return normalize(body.Text())
	}
	// Keep block boundaries as whitespace so words from adjacent elements do not merge.
	markup = blockBoundary.Replace(markup)
	return normalize(html.UnescapeString(r.policy.Sanitize(markup)))
}

var blockBoundary = strings.NewReplacer(
	"</p>", "</p>\n", "</div>", "</div>\n", "</li>", "</li>\n",
	"</h1>", "</h1>\n", "</h2>", "</h2>\n", "</h3>", "</h3>\n",
	"<br>", "<br>\n", "<br/>", "<br/>\n", "</tr>", "</tr>\n",
)

// normalize collapses runs of spaces within lines and drops blank lines.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
