package engine

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// ConnectivitySource reports whether the remote store is believed
// reachable and signals transitions.
type ConnectivitySource interface {
	Online() bool
	// Changes delivers the new online state after each transition.
	Changes() <-chan bool
}

// Monitor is a ConnectivitySource that probes a URL periodically with
// a cheap HEAD request. Any HTTP response at all counts as online; only
// transport errors count as offline.
type Monitor struct {
	url      string
	client   *http.Client
	clock    Clock
	interval time.Duration
	online   atomic.Bool
	changes  chan bool
}

// NewMonitor creates a Monitor probing probeURL every interval. The
// initial state is offline until the first probe succeeds.
func NewMonitor(probeURL string, interval time.Duration, clock Clock) *Monitor {
	return &Monitor{
		url:      probeURL,
		client:   &http.Client{Timeout: 5 * time.Second},
		clock:    clock,
		interval: interval,
		changes:  make(chan bool, 1),
	}
}

// Online reports the most recently probed state.
func (m *Monitor) Online() bool { return m.online.Load() }

// Changes delivers the new state after each online/offline transition.
func (m *Monitor) Changes() <-chan bool { return m.changes }

// Run probes until ctx is cancelled. It probes once immediately so the
// scheduler can start with a fresh answer.
func (m *Monitor) Run(ctx context.Context) {
	m.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.clock.After(m.interval):
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.url, nil)
	if err != nil {
		slog.Error("connectivity probe misconfigured", "url", m.url, "error", err)
		return
	}

	resp, err := m.client.Do(req)
	online := err == nil
	if resp != nil {
		resp.Body.Close()
	}

	if m.online.Swap(online) != online {
		slog.Info("connectivity changed", "online", online)
		select {
		case m.changes <- online:
		default:
			// A slow reader still holds the previous transition. Replace
			// it: delivering a stale state after a flap would leave the
			// scheduler suspended while Online() reports true.
			select {
			case <-m.changes:
			default:
			}
			select {
			case m.changes <- online:
			default:
			}
		}
	}
}
