package gateway

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/soyeahso/brainquest/internal/hooks"
)

// Stats counts gateway traffic from hook events.
type Stats struct {
	requests     atomic.Int64
	replies      atomic.Int64
	failures     atomic.Int64
	toolCalls    atomic.Int64
	toolFailures atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Requests     int64 `json:"requests"`
	Replies      int64 `json:"replies"`
	Failures     int64 `json:"failures"`
	ToolCalls    int64 `json:"toolCalls"`
	ToolFailures int64 `json:"toolFailures"`
	Clients      int   `json:"clients"`
	UptimeMs     int64 `json:"uptimeMs"`
}

const statsHookName = "gateway.stats"

// attach subscribes the counters to h.
func (st *Stats) attach(h *hooks.Manager) {
	count := func(c *atomic.Int64) hooks.Handler {
		return func(context.Context, hooks.Payload) error {
			c.Add(1)
			return nil
		}
	}
	h.On(hooks.EventRequestReceived, statsHookName, count(&st.requests))
	h.On(hooks.EventRelayDone, statsHookName, count(&st.replies))
	h.On(hooks.EventRelayFailed, statsHookName, count(&st.failures))
	h.On(hooks.EventToolExecuted, statsHookName, func(_ context.Context, p hooks.Payload) error {
		st.toolCalls.Add(1)
		if failed, _ := p.Data["failed"].(bool); failed {
			st.toolFailures.Add(1)
		}
		return nil
	})
}

// Snapshot returns the current counter values.
func (st *Stats) Snapshot(clients int, startedAt time.Time) StatsSnapshot {
	snap := StatsSnapshot{
		Requests:     st.requests.Load(),
		Replies:      st.replies.Load(),
		Failures:     st.failures.Load(),
		ToolCalls:    st.toolCalls.Load(),
		ToolFailures: st.toolFailures.Load(),
		Clients:      clients,
	}
	if !startedAt.IsZero() {
		snap.UptimeMs = time.Since(startedAt).Milliseconds()
	}
	return snap
}
