// Package server exposes the research engine over HTTP.
//
// Routes:
//
//	POST   /api/research          run a research job, streamed as server-sent events
//	GET    /api/reports           list archived reports, newest first
//	GET    /api/reports/:id       fetch one archived report as JSON
//	GET    /api/reports/:id/html  render one archived report as a standalone page
//	DELETE /api/reports/:id       delete an archived report
//	GET    /healthz               liveness probe
//	GET    /metrics               Prometheus metrics
//
// The research stream emits one event per completed node, named after the
// node (planner, researcher, writer). A failure is sent as a single error
// event. After the writer event the report is archived and an archived
// event carries its ID.
package server

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smallnest/deepresearch/graph"
	"github.com/smallnest/deepresearch/log"
	"github.com/smallnest/deepresearch/report"
	"github.com/smallnest/deepresearch/research"
	"github.com/smallnest/deepresearch/store"
)

// DefaultListLimit caps GET /api/reports when no limit is given.
const DefaultListLimit = 50

// shutdownTimeout bounds graceful shutdown in Run.
const shutdownTimeout = 10 * time.Second

// Runner streams a research run. *research.Engine implements it.
type Runner interface {
	Stream(ctx context.Context, topic string) iter.Seq2[research.Event, error]
}

// Server serves the HTTP API.
type Server struct {
	runner  Runner
	reports store.ReportStore
	metrics *Metrics
	logger  log.Logger
	router  *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics shares a Metrics instance, typically one also attached to the
// engine as a node listener.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a server. reports may not be nil.
func New(runner Runner, reports store.ReportStore, opts ...Option) *Server {
	s := &Server{runner: runner, reports: reports}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = &log.NoOpLogger{}
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes(r)
	s.router = r
	return s
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")
	{
		api.POST("/research", s.research)
		api.GET("/reports", s.listReports)
		api.GET("/reports/:id", s.getReport)
		api.GET("/reports/:id/html", s.getReportHTML)
		api.DELETE("/reports/:id", s.deleteReport)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

type researchRequest struct {
	Topic string `json:"topic"`
}

// progressEvent is the data of planner, researcher and writer events.
type progressEvent struct {
	Node      string         `json:"node"`
	Phase     research.Phase `json:"phase"`
	Step      int            `json:"step,omitempty"`
	Total     int            `json:"total"`
	ElapsedMS int64          `json:"elapsed_ms"`
	Delta     research.Delta `json:"delta"`
}

type errorEvent struct {
	Node  string `json:"node,omitempty"`
	Error string `json:"error"`
}

type archivedEvent struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (s *Server) research(c *gin.Context) {
	var req researchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": research.ErrEmptyTopic.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	var plan []string
	var markdown string
	for ev, err := range s.runner.Stream(c.Request.Context(), topic) {
		if err != nil {
			s.logger.Warn("research on %q failed: %v", topic, err)
			s.metrics.runFinished("failed")
			payload := errorEvent{Error: err.Error()}
			var nodeErr *graph.NodeError
			if errors.As(err, &nodeErr) {
				payload.Node = nodeErr.Node
			}
			c.SSEvent("error", payload)
			c.Writer.Flush()
			return
		}

		switch d := ev.Delta.(type) {
		case research.PlanDelta:
			plan = d.Plan
		case research.ReportDelta:
			markdown = d.FinalReport
		}
		c.SSEvent(ev.Node, progressEvent{
			Node:      ev.Node,
			Phase:     ev.Phase,
			Step:      ev.Step,
			Total:     ev.Total,
			ElapsedMS: ev.Elapsed.Milliseconds(),
			Delta:     ev.Delta,
		})
		c.Writer.Flush()
	}
	s.metrics.runFinished("succeeded")

	archived := store.NewReport(topic, plan, markdown)
	if err := s.reports.Save(c.Request.Context(), archived); err != nil {
		s.logger.Error("archive report for %q: %v", topic, err)
		c.SSEvent("error", errorEvent{Error: fmt.Sprintf("archive report: %v", err)})
		c.Writer.Flush()
		return
	}
	c.SSEvent("archived", archivedEvent{ID: archived.ID, Title: report.Title(markdown, topic)})
	c.Writer.Flush()
}

type reportSummary struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) listReports(c *gin.Context) {
	limit := DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	reports, err := s.reports.List(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("list reports: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]reportSummary, 0, len(reports))
	for _, r := range reports {
		out = append(out, reportSummary{
			ID:        r.ID,
			Topic:     r.Topic,
			Title:     report.Title(r.Markdown, r.Topic),
			CreatedAt: r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"reports": out})
}

func (s *Server) loadReport(c *gin.Context) (*store.Report, bool) {
	r, err := s.reports.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return nil, false
		}
		s.logger.Error("load report %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return r, true
}

func (s *Server) getReport(c *gin.Context) {
	if r, ok := s.loadReport(c); ok {
		c.JSON(http.StatusOK, r)
	}
}

func (s *Server) getReportHTML(c *gin.Context) {
	r, ok := s.loadReport(c)
	if !ok {
		return
	}
	doc, err := report.Document(r.Topic, r.Markdown)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", doc)
}

func (s *Server) deleteReport(c *gin.Context) {
	err := s.reports.Delete(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.Status(http.StatusNoContent)
	}
}
