package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the service counters on a private registry.
type Collector struct {
	registry *prometheus.Registry

	tokensUsed   *prometheus.CounterVec
	llmCalls     *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	enrichments  *prometheus.CounterVec
	signalsFound *prometheus.HistogramVec
}

// New registers all counters on a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospectpilot_llm_tokens_total",
				Help: "Total tokens reported by the inference proxy",
			},
			[]string{"model"},
		),
		llmCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospectpilot_llm_calls_total",
				Help: "Inference proxy calls by outcome",
			},
			[]string{"outcome"},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospectpilot_generator_fallbacks_total",
				Help: "Generator results replaced by their typed fallback",
			},
			[]string{"generator"},
		),
		enrichments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospectpilot_enrichments_total",
				Help: "Enrichment requests by terminal state",
			},
			[]string{"state"},
		),
		signalsFound: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prospectpilot_signal_items",
				Help:    "Signal items returned per fetch",
				Buckets: []float64{0, 1, 2, 4, 6, 8},
			},
			[]string{"strategy"},
		),
	}
}

// AddTokens adds reported token usage. Nil-safe.
func (c *Collector) AddTokens(model string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.tokensUsed.WithLabelValues(model).Add(float64(n))
}

// LLMCall counts one gateway call outcome (ok, fallback, parse_error).
func (c *Collector) LLMCall(outcome string) {
	if c == nil {
		return
	}
	c.llmCalls.WithLabelValues(outcome).Inc()
}

// Fallback counts a generator that degraded to its typed default.
func (c *Collector) Fallback(generator string) {
	if c == nil {
		return
	}
	c.fallbacks.WithLabelValues(generator).Inc()
}

// Enrichment counts a terminal aggregator state.
func (c *Collector) Enrichment(state string) {
	if c == nil {
		return
	}
	c.enrichments.WithLabelValues(state).Inc()
}

// Signals observes how many items a strategy returned.
func (c *Collector) Signals(strategy string, n int) {
	if c == nil {
		return
	}
	c.signalsFound.WithLabelValues(strategy).Observe(float64(n))
}

// Handler exposes the registry for scraping.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
