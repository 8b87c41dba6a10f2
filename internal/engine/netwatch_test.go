package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/moirai-app/moirai/internal/engine"
)

// channelProbe feeds scripted connectivity results to the monitor, one per
// observation. An unbuffered channel doubles as a sync point: once the next
// result is accepted, the previous observation has fully completed.
func channelProbe(script chan bool) engine.ProbeFunc {
	return func(ctx context.Context) bool {
		select {
		case v := <-script:
			return v
		case <-ctx.Done():
			return false
		}
	}
}

func feed(t *testing.T, script chan bool, v bool) {
	t.Helper()
	select {
	case script <- v:
	case <-time.After(time.Second):
		t.Fatal("monitor stopped consuming probe results")
	}
}

func waitEvent(t *testing.T, m *engine.Monitor) {
	t.Helper()
	select {
	case <-m.Events():
	case <-time.After(time.Second):
		t.Fatal("expected a connectivity event")
	}
}

func requireNoEvent(t *testing.T, m *engine.Monitor) {
	t.Helper()
	select {
	case <-m.Events():
		t.Fatal("unexpected connectivity event")
	default:
	}
}

func startMonitor(t *testing.T, script chan bool) (*engine.Monitor, context.CancelFunc, chan error) {
	t.Helper()
	m := engine.NewMonitor(nil, channelProbe(script), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	return m, cancel, done
}

func stopMonitor(t *testing.T, cancel context.CancelFunc, done chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on context cancellation")
	}
}

func TestMonitorEmitsEventOnlyOnOfflineOnlineEdge(t *testing.T) {
	script := make(chan bool)
	m, cancel, done := startMonitor(t, script)
	defer stopMonitor(t, cancel, done)

	// Starts offline; an offline probe is not an edge.
	feed(t, script, false)
	feed(t, script, true)
	waitEvent(t, m)
	require.True(t, m.Online())

	// Staying online produces nothing.
	feed(t, script, true)
	feed(t, script, true)
	requireNoEvent(t, m)

	// A full offline/online round trip is a second edge.
	feed(t, script, false)
	feed(t, script, true)
	waitEvent(t, m)

	// Going offline alone is not an event.
	feed(t, script, false)
	feed(t, script, false)
	require.False(t, m.Online())
	requireNoEvent(t, m)
}

func TestMonitorCoalescesUnconsumedEvents(t *testing.T) {
	script := make(chan bool)
	m, cancel, done := startMonitor(t, script)
	defer stopMonitor(t, cancel, done)

	// Two edges with nobody draining; the second folds into the buffered
	// event.
	feed(t, script, false)
	feed(t, script, true)
	feed(t, script, false)
	feed(t, script, true)
	feed(t, script, true)

	waitEvent(t, m)
	requireNoEvent(t, m)
}
