package conversation

import (
	"context"
	"time"

	"github.com/wolfman30/selaro-receptionist/internal/observability/metrics"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// Janitor evicts idle sessions on a fixed interval.
type Janitor struct {
	store    SessionStore
	ttl      time.Duration
	interval time.Duration
	logger   *logging.Logger
	metrics  *metrics.ConversationMetrics
	now      func() time.Time
}

func NewJanitor(store SessionStore, ttl, interval time.Duration, m *metrics.ConversationMetrics, logger *logging.Logger) *Janitor {
	if store == nil {
		panic("conversation: session store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{
		store:    store,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Run sweeps until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	if j.ttl <= 0 {
		j.logger.Info("conversation: session ttl disabled, janitor not started")
		return
	}
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.SweepOnce(ctx)
		}
	}
}

// SweepOnce removes sessions idle for longer than the TTL.
func (j *Janitor) SweepOnce(ctx context.Context) int {
	removed, err := j.store.Sweep(ctx, j.now().Add(-j.ttl))
	if err != nil {
		j.logger.Warn("conversation: session sweep failed", "error", err)
	}
	if removed > 0 {
		j.metrics.ObserveEvicted(removed)
		j.logger.Debug("conversation: sessions evicted", "count", removed)
	}
	if count, err := j.store.Count(ctx); err == nil {
		j.metrics.SetActiveSessions(count)
	}
	return removed
}
