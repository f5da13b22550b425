package server

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/deepresearch/extract"
	"github.com/smallnest/deepresearch/llm"
	"github.com/smallnest/deepresearch/research"
	"github.com/smallnest/deepresearch/search"
	"github.com/smallnest/deepresearch/store"
	"github.com/smallnest/deepresearch/store/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type sseEvent struct {
	Name string
	Data string
}

func parseSSE(body string) []sseEvent {
	var events []sseEvent
	for block := range strings.SplitSeq(body, "\n\n") {
		var ev sseEvent
		for line := range strings.SplitSeq(block, "\n") {
			if name, ok := strings.CutPrefix(line, "event:"); ok {
				ev.Name = strings.TrimSpace(name)
			}
			if data, ok := strings.CutPrefix(line, "data:"); ok {
				ev.Data = strings.TrimSpace(data)
			}
		}
		if ev.Name != "" {
			events = append(events, ev)
		}
	}
	return events
}

func scriptedModel(failWriter bool) llm.Client {
	return llm.ClientFunc(func(ctx context.Context, messages []llm.Message) (string, error) {
		if messages[0].Role == llm.RoleSystem {
			return "first query\nsecond query", nil
		}
		prompt := messages[len(messages)-1].Content
		if strings.HasPrefix(prompt, "You are a research assistant.") {
			return "a summary", nil
		}
		if failWriter {
			return "", errors.New("model overloaded")
		}
		return "# Solar Report\n\nBody.", nil
	})
}

func newTestServer(t *testing.T, failWriter bool) (*Server, *memory.ReportStore) {
	t.Helper()

	searcher := search.ClientFunc(func(ctx context.Context, query string, maxResults int) iter.Seq2[search.Result, error] {
		return search.FromSlice([]search.Result{{Title: query, URL: "https://example.com/" + strings.ReplaceAll(query, " ", "-")}}, maxResults)
	})
	extractor := extract.ExtractorFunc(func(ctx context.Context, rawURL string) (string, error) {
		return "page text for " + rawURL, nil
	})

	metrics := NewMetrics()
	engine, err := research.NewEngine(scriptedModel(failWriter), searcher, extractor, research.WithListener(metrics))
	require.NoError(t, err)

	reports := memory.NewReportStore()
	return New(engine, reports, WithMetrics(metrics)), reports
}

func postResearch(h http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func TestResearch_StreamsEventsAndArchives(t *testing.T) {
	srv, reports := newTestServer(t, false)

	w := postResearch(srv.Handler(), `{"topic":"solar panels"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := parseSSE(w.Body.String())
	var names []string
	for _, ev := range events {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{"planner", "researcher", "researcher", "writer", "archived"}, names)

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(events[0].Data), &raw))
	assert.Equal(t, "planner", raw["node"])
	assert.Equal(t, []any{"first query", "second query"}, raw["delta"].(map[string]any)["plan"])

	var step map[string]any
	require.NoError(t, json.Unmarshal([]byte(events[2].Data), &step))
	assert.EqualValues(t, 2, step["step"])
	assert.EqualValues(t, 2, step["total"])
	assert.Equal(t, "writing", step["phase"])

	var archived archivedEvent
	require.NoError(t, json.Unmarshal([]byte(events[4].Data), &archived))
	assert.Equal(t, "Solar Report", archived.Title)

	saved, err := reports.Load(context.Background(), archived.ID)
	require.NoError(t, err)
	assert.Equal(t, "solar panels", saved.Topic)
	assert.Equal(t, []string{"first query", "second query"}, saved.Plan)
	assert.Equal(t, "# Solar Report\n\nBody.", saved.Markdown)
}

func TestResearch_NodeFailureSendsErrorEvent(t *testing.T) {
	srv, reports := newTestServer(t, true)

	w := postResearch(srv.Handler(), `{"topic":"solar panels"}`)
	events := parseSSE(w.Body.String())
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, "error", last.Name)
	var payload errorEvent
	require.NoError(t, json.Unmarshal([]byte(last.Data), &payload))
	assert.Equal(t, research.NodeWriter, payload.Node)
	assert.Contains(t, payload.Error, "model overloaded")

	list, err := reports.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, list, "failed runs are not archived")
}

func TestResearch_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, false)

	assert.Equal(t, http.StatusBadRequest, postResearch(srv.Handler(), `{"topic":"   "}`).Code)
	assert.Equal(t, http.StatusBadRequest, postResearch(srv.Handler(), `not json`).Code)
}

func TestReports_CRUD(t *testing.T) {
	srv, reports := newTestServer(t, false)
	h := srv.Handler()
	ctx := context.Background()

	r := store.NewReport("wind", []string{"q"}, "# Wind Power\n\n<script>alert(1)</script>text")
	require.NoError(t, reports.Save(ctx, r))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports?limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Reports []reportSummary `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Reports, 1)
	assert.Equal(t, "Wind Power", list.Reports[0].Title)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/"+r.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got store.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, r.Markdown, got.Markdown)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/"+r.ID+"/html", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Wind Power")
	assert.NotContains(t, w.Body.String(), "<script>alert(1)</script>")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/reports/"+r.ID, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/"+r.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, false)
	h := srv.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	postResearch(h, `{"topic":"solar panels"}`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `deepresearch_node_events_total{event="complete",node="researcher"} 2`)
	assert.Contains(t, body, `deepresearch_node_events_total{event="start",node="planner"} 1`)
	assert.Contains(t, body, `deepresearch_runs_total{status="succeeded"} 1`)
	assert.Contains(t, body, "deepresearch_node_duration_seconds_bucket")
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-done)
}
