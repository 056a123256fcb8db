// Package observability holds the Prometheus metrics of the chat pipeline.
package observability

import (
	"net/http"
	"time"

	"mistral-thing-be/pkg/chat/orchestrator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	generations    *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	active         prometheus.Gauge
	deltas         prometheus.Counter
	outputTokens   prometheus.Counter
	rateLimited    prometheus.Counter
	titleFallbacks prometheus.Counter
}

var _ orchestrator.Observer = (*Metrics)(nil)

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_generations_total",
			Help: "Finished generations by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chat_generation_duration_seconds",
			Help:    "Wall time of a generation from submitted to its final status.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160, 300},
		}, []string{"outcome"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chat_generations_active",
			Help: "Generations currently streaming in this process.",
		}),
		deltas: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_deltas_persisted_total",
			Help: "Partial content writes to pending messages.",
		}),
		outputTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_output_tokens_total",
			Help: "Estimated tokens of completed responses.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_rate_limited_total",
			Help: "Messages rejected by the per-user rate limit.",
		}),
		titleFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_title_fallbacks_total",
			Help: "Threads that fell back to the default title.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.generations,
		m.duration,
		m.active,
		m.deltas,
		m.outputTokens,
		m.rateLimited,
		m.titleFallbacks,
	)
	return m
}

// RegisterGauge exposes a value sampled at scrape time, e.g. connected
// websocket clients.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) GenerationStarted(job orchestrator.Job) {
	m.active.Inc()
}

func (m *Metrics) DeltaPersisted(job orchestrator.Job) {
	m.deltas.Inc()
}

func (m *Metrics) GenerationFinished(job orchestrator.Job, outcome orchestrator.Outcome, elapsed time.Duration, outputTokens int) {
	m.active.Dec()
	m.generations.WithLabelValues(string(outcome)).Inc()
	m.duration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
	m.outputTokens.Add(float64(outputTokens))
}

func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

func (m *Metrics) TitleFallback() {
	m.titleFallbacks.Inc()
}
