package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConversationMetrics(reg)

	m.ObserveTurn("prompt")
	m.ObserveTurn("prompt")
	m.ObserveTurn("committed")
	m.ObserveCommit("created")
	m.ObserveTokens("openai", 120, 40)
	m.ObserveLLM("openai", "ok", 800*time.Millisecond)
	m.SetActiveSessions(3)
	m.ObserveEvicted(2)
	m.ObserveEvicted(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.turnsTotal.WithLabelValues("prompt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.leadsCommitted.WithLabelValues("created")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.llmTokens.WithLabelValues("openai", "input")))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.llmTokens.WithLabelValues("openai", "output")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsEvict))
}

func TestConversationMetricsLatencyHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConversationMetrics(reg)
	m.ObserveLLM("bedrock", "error", 3*time.Second)

	families, err := reg.Gather()
	require.NoError(t, err)

	var hist *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "selaro_conversation_llm_latency_seconds" {
			hist = mf.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, hist)
	assert.Equal(t, uint64(1), hist.GetSampleCount())
	assert.InDelta(t, 3.0, hist.GetSampleSum(), 0.001)
}

func TestConversationMetricsNilSafe(t *testing.T) {
	var m *ConversationMetrics
	m.ObserveTurn("prompt")
	m.ObserveLLM("openai", "ok", time.Second)
	m.ObserveTokens("openai", 1, 1)
	m.ObserveCommit("failed")
	m.SetActiveSessions(1)
	m.ObserveEvicted(1)
}
