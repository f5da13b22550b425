package search

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const litePage = `<html><body><table>
<tr><td>1.</td><td><a rel="nofollow" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fsolar&amp;rut=abc" class='result-link'>Solar Efficiency 2024</a></td></tr>
<tr><td></td><td class='result-snippet'>Panels   reached
 record <b>efficiency</b>.</td></tr>
<tr><td>2.</td><td><a rel="nofollow" href="https://duckduckgo.com/y.js?ad_domain=ads.example" class='result-link'>Sponsored</a></td></tr>
<tr><td>3.</td><td><a rel="nofollow" href="https://news.example.org/pv" class='result-link'>PV News</a></td></tr>
<tr><td></td><td class='result-snippet'>Perovskite tandem cells.</td></tr>
<tr><td>4.</td><td><a rel="nofollow" href="https://news.example.org/pv" class='result-link'>PV News duplicate</a></td></tr>
</table></body></html>`

const htmlPage = `<html><body>
<div class="result result--ad"><a class="result__a" href="https://ad.example.com">Ad</a></div>
<div class="result"><a class="result__a" href="https://a.example.com/x">First</a><a class="result__snippet">alpha</a></div>
<div class="result"><a class="result__a" href="javascript:void(0)">Bad</a></div>
<div class="result"><a class="result__a" href="https://b.example.com/y">Second</a><a class="result__snippet">beta</a></div>
</body></html>`

func TestDuckDuckGo_Lite(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("q")
		_, _ = w.Write([]byte(litePage))
	}))
	defer srv.Close()

	ddg := NewDuckDuckGo(WithDuckDuckGoEndpoint(srv.URL), WithDuckDuckGoInterval(0))
	results, err := Collect(ddg.Search(context.Background(), "solar panel efficiency", 3))
	require.NoError(t, err)
	assert.Equal(t, "solar panel efficiency", gotQuery)

	require.Len(t, results, 2)
	assert.Equal(t, Result{
		Title:   "Solar Efficiency 2024",
		URL:     "https://example.com/solar",
		Snippet: "Panels reached record efficiency.",
	}, results[0])
	assert.Equal(t, "https://news.example.org/pv", results[1].URL)
	assert.Equal(t, "Perovskite tandem cells.", results[1].Snippet)
}

func TestDuckDuckGo_HTMLLayout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(htmlPage))
	}))
	defer srv.Close()

	ddg := NewDuckDuckGo(WithDuckDuckGoEndpoint(srv.URL), WithDuckDuckGoInterval(0))
	results, err := Collect(ddg.Search(context.Background(), "q", 5))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "First", results[0].Title)
	assert.Equal(t, "beta", results[1].Snippet)
}

func TestDuckDuckGo_MaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(litePage))
	}))
	defer srv.Close()

	ddg := NewDuckDuckGo(WithDuckDuckGoEndpoint(srv.URL), WithDuckDuckGoInterval(0))
	results, err := Collect(ddg.Search(context.Background(), "q", 1))
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestDuckDuckGo_Lazy(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(litePage))
	}))
	defer srv.Close()

	ddg := NewDuckDuckGo(WithDuckDuckGoEndpoint(srv.URL), WithDuckDuckGoInterval(0))
	seq := ddg.Search(context.Background(), "q", 3)
	assert.Equal(t, int32(0), hits.Load())

	for range seq {
		break
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestDuckDuckGo_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	ddg := NewDuckDuckGo(WithDuckDuckGoEndpoint(srv.URL), WithDuckDuckGoInterval(0))
	_, err := Collect(ddg.Search(context.Background(), "q", 3))
	assert.ErrorContains(t, err, "403")

	_, err = Collect(ddg.Search(context.Background(), "   ", 3))
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestResolveDuckDuckGoLink(t *testing.T) {
	assert.Equal(t, "https://x.org/a?b=1", resolveDuckDuckGoLink("//duckduckgo.com/l/?uddg=https%3A%2F%2Fx.org%2Fa%3Fb%3D1"))
	assert.Equal(t, "https://plain.org", resolveDuckDuckGoLink("https://plain.org"))
	assert.Equal(t, "", resolveDuckDuckGoLink("/settings"))
	assert.Equal(t, "", resolveDuckDuckGoLink("mailto:a@b.c"))
}

func TestBrave(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "solar", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("count"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"web": map[string]any{"results": []map[string]string{
				{"title": "A", "url": "https://a.example", "description": "da"},
				{"title": "NoURL"},
				{"title": "B", "url": "https://b.example", "description": "db"},
			}},
		})
	}))
	defer srv.Close()

	b, err := NewBrave("key", WithBraveBaseURL(srv.URL))
	require.NoError(t, err)

	results, err := Collect(b.Search(context.Background(), "solar", 2))
	require.NoError(t, err)
	assert.Equal(t, []Result{
		{Title: "A", URL: "https://a.example", Snippet: "da"},
		{Title: "B", URL: "https://b.example", Snippet: "db"},
	}, results)
}

func TestBrave_MissingKeyAndStatus(t *testing.T) {
	_, err := NewBrave("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	b, err := NewBrave("bad", WithBraveBaseURL(srv.URL))
	require.NoError(t, err)
	_, err = Collect(b.Search(context.Background(), "q", 3))
	assert.ErrorContains(t, err, "401")
}

func TestTavily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tv-key", req.APIKey)
		assert.Equal(t, 3, req.MaxResults)
		assert.Equal(t, "advanced", req.SearchDepth)
		_, _ = w.Write([]byte(`{"results":[{"title":"T","url":"https://t.example","content":"c","score":0.9}]}`))
	}))
	defer srv.Close()

	tv, err := NewTavily("tv-key", WithTavilyBaseURL(srv.URL), WithTavilyDepth("advanced"))
	require.NoError(t, err)

	results, err := Collect(tv.Search(context.Background(), "q", 3))
	require.NoError(t, err)
	assert.Equal(t, []Result{{Title: "T", URL: "https://t.example", Snippet: "c"}}, results)

	_, err = NewTavily("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestCollectAndHelpers(t *testing.T) {
	res := []Result{{URL: "1"}, {URL: "2"}, {URL: "3"}}
	got, err := Collect(FromSlice(res, 2))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	boom := errors.New("boom")
	got, err = Collect(Fail(boom))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, got)

	client := ClientFunc(func(ctx context.Context, q string, n int) iter.Seq2[Result, error] {
		return FromSlice([]Result{{URL: strings.ToUpper(q)}}, n)
	})
	got, err = Collect(client.Search(context.Background(), "x", 1))
	require.NoError(t, err)
	assert.Equal(t, "X", got[0].URL)
}
