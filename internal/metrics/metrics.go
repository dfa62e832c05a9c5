// Package metrics exposes Prometheus instruments for practice and LLM
// activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhisek/codequiz/internal/llm"
)

const namespace = "codequiz"

// Metrics holds every instrument on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	answersJudged      *prometheus.CounterVec
	scoreDelta         *prometheus.HistogramVec
	questionsGenerated *prometheus.CounterVec
	sessionsActive     prometheus.Gauge
	llmCalls           *prometheus.CounterVec
	llmLatency         *prometheus.HistogramVec
	llmTokens          *prometheus.CounterVec
}

// New registers all instruments plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		answersJudged: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_judged_total",
			Help:      "Answers judged, by topic and result.",
		}, []string{"topic", "correct"}),
		scoreDelta: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_delta",
			Help:      "Skill score change per judged answer.",
			Buckets:   []float64{-5, -3, -2, 0, 2, 3, 5},
		}, []string{"topic"}),
		questionsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_generated_total",
			Help:      "Question generation attempts, by topic and status.",
		}, []string{"topic", "status"}),
		sessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions started and not yet ended by this process.",
		}),
		llmCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "LLM calls, by provider, purpose and status.",
		}, []string{"provider", "purpose", "status"}),
		llmLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "LLM call latency including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"provider", "purpose"}),
		llmTokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Tokens consumed, by provider and direction.",
		}, []string{"provider", "direction"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveAnswer records a judged answer and the resulting score change.
func (m *Metrics) ObserveAnswer(topic string, correct bool, delta int) {
	m.answersJudged.WithLabelValues(topic, strconv.FormatBool(correct)).Inc()
	m.scoreDelta.WithLabelValues(topic).Observe(float64(delta))
}

// ObserveQuestion records a generation attempt.
func (m *Metrics) ObserveQuestion(topic string, err error) {
	m.questionsGenerated.WithLabelValues(topic, status(err)).Inc()
}

// SessionStarted and SessionEnded track open sessions.
func (m *Metrics) SessionStarted() { m.sessionsActive.Inc() }
func (m *Metrics) SessionEnded()   { m.sessionsActive.Dec() }

// ObserveLLMCall implements llm.Observer.
func (m *Metrics) ObserveLLMCall(provider, purpose string, elapsed time.Duration, usage llm.Usage, err error) {
	m.llmCalls.WithLabelValues(provider, purpose, status(err)).Inc()
	m.llmLatency.WithLabelValues(provider, purpose).Observe(elapsed.Seconds())
	if usage.InputTokens > 0 {
		m.llmTokens.WithLabelValues(provider, "input").Add(float64(usage.InputTokens))
	}
	if usage.OutputTokens > 0 {
		m.llmTokens.WithLabelValues(provider, "output").Add(float64(usage.OutputTokens))
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var _ llm.Observer = (*Metrics)(nil)
