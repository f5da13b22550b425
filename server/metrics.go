package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smallnest/deepresearch/graph"
)

const namespace = "deepresearch"

// Metrics records workflow activity on a private registry. It implements
// graph.NodeListener, so it can be attached to an engine with
// research.WithListener.
type Metrics struct {
	registry     *prometheus.Registry
	nodeEvents   *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	runs         *prometheus.CounterVec
}

var _ graph.NodeListener = (*Metrics)(nil)

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		nodeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_events_total",
			Help:      "Node lifecycle events by node and event type.",
		}, []string{"node", "event"}),
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Duration of completed and failed node executions.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"node"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Research runs started over HTTP by outcome.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(
		m.nodeEvents,
		m.nodeDuration,
		m.runs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// OnNodeEvent implements graph.NodeListener.
func (m *Metrics) OnNodeEvent(_ context.Context, event graph.NodeEvent, nodeName string, duration time.Duration, _ error) {
	m.nodeEvents.WithLabelValues(nodeName, string(event)).Inc()
	if event != graph.NodeEventStart {
		m.nodeDuration.WithLabelValues(nodeName).Observe(duration.Seconds())
	}
}

func (m *Metrics) runFinished(status string) {
	m.runs.WithLabelValues(status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
