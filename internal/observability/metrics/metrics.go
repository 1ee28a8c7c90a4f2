package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConversationMetrics exposes counters/histograms for receptionist turns.
type ConversationMetrics struct {
	turnsTotal     *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
	llmTokens      *prometheus.CounterVec
	leadsCommitted *prometheus.CounterVec
	sessionsActive prometheus.Gauge
	sessionsEvict  prometheus.Counter
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "selaro",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Conversation turns by outcome",
		}, []string{"outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "selaro",
			Subsystem: "conversation",
			Name:      "llm_latency_seconds",
			Help:      "Latency of completion calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"provider", "status"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "selaro",
			Subsystem: "conversation",
			Name:      "llm_tokens_total",
			Help:      "Tokens consumed by completion calls",
		}, []string{"provider", "type"}),
		leadsCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "selaro",
			Subsystem: "conversation",
			Name:      "leads_committed_total",
			Help:      "Lead commit attempts by result",
		}, []string{"result"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "selaro",
			Subsystem: "conversation",
			Name:      "sessions_active",
			Help:      "Sessions currently held by the session store",
		}),
		sessionsEvict: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "selaro",
			Subsystem: "conversation",
			Name:      "sessions_evicted_total",
			Help:      "Sessions removed by the idle sweep",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.llmLatency, m.llmTokens, m.leadsCommitted, m.sessionsActive, m.sessionsEvict)
	return m
}

func (m *ConversationMetrics) ObserveTurn(outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
}

func (m *ConversationMetrics) ObserveLLM(provider, status string, latency time.Duration) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(provider, status).Observe(latency.Seconds())
}

func (m *ConversationMetrics) ObserveTokens(provider string, input, output int32) {
	if m == nil {
		return
	}
	if input > 0 {
		m.llmTokens.WithLabelValues(provider, "input").Add(float64(input))
	}
	if output > 0 {
		m.llmTokens.WithLabelValues(provider, "output").Add(float64(output))
	}
}

func (m *ConversationMetrics) ObserveCommit(result string) {
	if m == nil {
		return
	}
	m.leadsCommitted.WithLabelValues(result).Inc()
}

func (m *ConversationMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

func (m *ConversationMetrics) ObserveEvicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsEvict.Add(float64(n))
}
