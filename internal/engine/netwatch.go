package engine

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ProbeFunc reports whether the network is currently reachable.
type ProbeFunc func(ctx context.Context) bool

// HTTPProbe builds a probe that issues a GET against url and treats any
// completed response as connectivity.
func HTTPProbe(url string, timeout time.Duration) ProbeFunc {
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}
}

// Monitor polls connectivity and emits an event on every offline-to-online
// transition. Consumers drain Events and typically run a queue sweep per
// event.
type Monitor struct {
	log      *slog.Logger
	probe    ProbeFunc
	interval time.Duration

	mu     sync.Mutex
	online bool

	events chan struct{}
}

// NewMonitor creates a connectivity monitor. The monitor starts in the
// offline state until the first probe says otherwise.
func NewMonitor(logger *slog.Logger, probe ProbeFunc, interval time.Duration) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		log:      logger.With("component", "netwatch"),
		probe:    probe,
		interval: interval,
		events:   make(chan struct{}, 1),
	}
}

// Events returns the channel that carries offline-to-online transitions.
// The channel has capacity one; an edge observed while a previous event is
// still unconsumed is coalesced into it.
func (m *Monitor) Events() <-chan struct{} {
	return m.events
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Run probes immediately and then on every tick until the context is
// cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.observe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.observe(ctx)
		}
	}
}

func (m *Monitor) observe(ctx context.Context) {
	current := m.probe(ctx)

	m.mu.Lock()
	previous := m.online
	m.online = current
	m.mu.Unlock()

	if current == previous {
		return
	}

	if current {
		m.log.InfoContext(ctx, "Connectivity restored")
		select {
		case m.events <- struct{}{}:
		default:
		}
	} else {
		m.log.WarnContext(ctx, "Connectivity lost")
	}
}
