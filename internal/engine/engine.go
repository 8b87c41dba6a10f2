// Package engine implements the offline-capable send pipeline: foreground
// sends with retry and a circuit breaker, the connectivity-restoration sweep
// over queued messages, and manual retry of the last failed message.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/moirai-app/moirai/internal/gemini"
	"github.com/moirai-app/moirai/internal/retry"
	"github.com/moirai-app/moirai/internal/store"
)

// ErrNoFailedMessage is returned by RetryLastFailed when no user message is
// in the failed state.
var ErrNoFailedMessage = errors.New("no failed message to retry")

// readingMarkers are the labels the tarot interpretation prompt puts in
// front of each spread position. Their presence in a reply means a reading
// was delivered.
var readingMarkers = []string{"past:", "presente:", "futuro:"}

// Responder generates the oracle's reply to one seeker message. It is
// satisfied by gemini.Client.
type Responder interface {
	GenerateResponse(ctx context.Context, input gemini.ResponseInput) (string, error)
}

// Config tunes the engine's retry schedule and circuit breaker.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration

	BreakerMaxFailures uint32
	BreakerCooldown    time.Duration

	HistoryLimit int
}

// Engine coordinates the store and the responder for message delivery.
type Engine struct {
	log          *slog.Logger
	store        *store.Store
	responder    Responder
	breaker      *gobreaker.CircuitBreaker
	maxRetries   int
	initialDelay time.Duration
	historyLimit int
}

// New creates an engine around the given store and responder.
func New(logger *slog.Logger, st *store.Store, responder Responder, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = retry.DefaultMaxRetries
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = retry.DefaultInitialDelay
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 60 * time.Second
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = store.DefaultHistoryLimit
	}

	log := logger.With("component", "engine")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "oracle_responder",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Engine{
		log:          log,
		store:        st,
		responder:    responder,
		breaker:      breaker,
		maxRetries:   cfg.MaxRetries,
		initialDelay: cfg.InitialDelay,
		historyLimit: cfg.HistoryLimit,
	}
}

// Send appends the seeker's message as pending and attempts foreground
// delivery. On success the message is marked sent and the oracle's reply is
// appended and returned. On final failure the message is marked failed and
// no reply is recorded.
func (e *Engine) Send(ctx context.Context, content string) (string, error) {
	id := e.store.AddMessage(store.RoleUser, content, store.StatusPending)
	return e.deliver(ctx, id, content)
}

// RetryLastFailed moves the most recent failed user message back to pending
// and runs the foreground delivery path with its original id and content.
func (e *Engine) RetryLastFailed(ctx context.Context) (string, error) {
	m, ok := e.store.LastFailedMessage()
	if !ok {
		return "", ErrNoFailedMessage
	}

	e.log.InfoContext(ctx, "Retrying failed message", "message_id", m.ID)
	e.store.SetMessageStatus(m.ID, store.StatusPending)
	return e.deliver(ctx, m.ID, m.Content)
}

// Sweep attempts delivery of every currently pending message, sequentially
// in log order. Each message gets a single delivery attempt (the attempt
// itself still carries the retry schedule); one failure does not stop the
// sweep. A message stays pending only until its outcome is known.
func (e *Engine) Sweep(ctx context.Context) error {
	pending := e.store.PendingMessages()
	if len(pending) == 0 {
		return nil
	}

	e.log.InfoContext(ctx, "Processing offline queue", "pending_count", len(pending))

	delivered := 0
	for _, m := range pending {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sweep aborted: %w", err)
		}

		if _, err := e.deliver(ctx, m.ID, m.Content); err != nil {
			e.log.WarnContext(ctx, "Failed to deliver queued message", "message_id", m.ID, "error", err)
			continue
		}
		delivered++
	}

	e.log.InfoContext(ctx, "Offline queue processed", "delivered", delivered, "failed", len(pending)-delivered)
	return nil
}

func (e *Engine) deliver(ctx context.Context, id, content string) (string, error) {
	input := e.buildInput(content)

	reply, err := retry.Do(ctx, func(ctx context.Context) (string, error) {
		out, err := e.breaker.Execute(func() (any, error) {
			return e.responder.GenerateResponse(ctx, input)
		})
		if err != nil {
			return "", err
		}
		return out.(string), nil
	}, e.maxRetries, e.initialDelay)
	if err != nil {
		e.store.SetMessageStatus(id, store.StatusFailed)
		e.log.WarnContext(ctx, "Message delivery failed", "message_id", id, "error", err)
		return "", fmt.Errorf("message delivery failed: %w", err)
	}

	e.store.SetMessageStatus(id, store.StatusSent)
	e.store.AddMessage(store.RoleAssistant, reply, store.StatusSent)
	e.noteReadingMarkers(reply)

	return reply, nil
}

func (e *Engine) buildInput(content string) gemini.ResponseInput {
	state := e.store.Snapshot()

	facts := make([]string, 0, len(state.UserFacts))
	for _, f := range state.UserFacts {
		facts = append(facts, f.Fact)
	}

	return gemini.ResponseInput{
		Message:             content,
		ConversationHistory: e.store.ConversationHistory(e.historyLimit),
		UserFacts:           facts,
		Language:            state.Language,
		TarotReadingDone:    e.store.HasDoneTarotReadingToday(),
		UserName:            state.UserName,
		UserGender:          state.UserGender,
		Personality:         state.Personality,
	}
}

// noteReadingMarkers records today's tarot reading when the reply carries a
// spread. Only the first reading of a day counts.
func (e *Engine) noteReadingMarkers(reply string) {
	if e.store.HasDoneTarotReadingToday() {
		return
	}

	lower := strings.ToLower(reply)
	for _, marker := range readingMarkers {
		if strings.Contains(lower, marker) {
			e.store.RecordTarotReadingNow()
			return
		}
	}
}
