// Package store holds the oracle's device-local application state: the
// message log, extracted user facts, daily summaries, and personalization
// fields. All mutation goes through the action methods; derived views are
// recomputed from the raw collections on every call (see queries.go).
package store

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Snapshotter mirrors the whole aggregate to durable storage. A failed Save
// degrades to a logged warning; it never surfaces to the action caller.
type Snapshotter interface {
	Save(state State) error
}

// Store owns the State aggregate. Actions are serialized by an internal
// mutex, so every mutation is atomic from the perspective of concurrent
// callers (the engine's sweep and a foreground send may overlap).
type Store struct {
	mu    sync.Mutex
	log   *slog.Logger
	snap  Snapshotter
	now   func() time.Time
	newID func() string
	loc   *time.Location

	state State
}

// Option customizes a Store, mostly for tests.
type Option func(*Store)

// WithClock replaces the wall clock used for timestamps and "today" checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc replaces the id generator.
func WithIDFunc(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithLocation sets the location used to derive calendar-day keys.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// New creates a Store seeded with initial (typically the restored snapshot,
// or DefaultState). snap may be nil, in which case the store runs
// in-memory only.
func New(initial State, snap Snapshotter, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{
		log:   logger.With("component", "store"),
		snap:  snap,
		now:   time.Now,
		newID: uuid.NewString,
		loc:   time.Local,
		state: initial.clone(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// persist mirrors the current aggregate to the snapshotter. Callers hold mu.
func (s *Store) persist() {
	if s.snap == nil {
		return
	}
	if err := s.snap.Save(s.state.clone()); err != nil {
		s.log.Warn("Failed to persist state snapshot", "error", err)
	}
}

// Snapshot returns a deep copy of the current aggregate.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// AddMessage appends a new message with a fresh id and the current
// timestamp and returns the id. An empty status defaults to sent.
func (s *Store) AddMessage(role Role, content string, status Status) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status == "" {
		status = StatusSent
	}
	msg := Message{
		ID:        s.newID(),
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
		Status:    status,
	}
	s.state.Messages = append(s.state.Messages, msg)
	s.persist()
	s.log.Debug("Message appended", "message_id", msg.ID, "role", role, "status", status)
	return msg.ID
}

// SetMessageStatus mutates a message's status in place. An unknown id is a
// no-op, not an error: the caller's view may lag behind a log reset.
func (s *Store) SetMessageStatus(id string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Messages {
		if s.state.Messages[i].ID == id {
			s.state.Messages[i].Status = status
			s.persist()
			s.log.Debug("Message status updated", "message_id", id, "status", status)
			return
		}
	}
	s.log.Debug("Status update for unknown message, ignoring", "message_id", id)
}

// Message returns the message with the given id, if present.
func (s *Store) Message(id string) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.state.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// EnsureInitialGreeting seeds an empty log with the sentinel greeting.
// Idempotent: a non-empty log is left untouched.
func (s *Store) EnsureInitialGreeting(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Messages) > 0 {
		return
	}
	s.state.Messages = []Message{s.greeting(text)}
	s.persist()
	s.log.Debug("Log seeded with initial greeting")
}

// RewriteInitialGreeting overwrites the sentinel greeting's content only.
// No-op when the log is empty or the first message is not the sentinel.
func (s *Store) RewriteInitialGreeting(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Messages) == 0 || s.state.Messages[0].ID != InitialMessageID {
		return
	}
	s.state.Messages[0].Content = text
	s.persist()
}

// ResetToGreeting replaces the entire log with a single fresh greeting.
func (s *Store) ResetToGreeting(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Messages = []Message{s.greeting(text)}
	s.persist()
	s.log.Info("Message log reset")
}

// ClearAllData resets the whole aggregate: the log becomes a single fresh
// greeting and facts, summaries, tarot date, name and gender return to
// their defaults. Language and personality survive a reset.
func (s *Store) ClearAllData(greetingText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Messages = []Message{s.greeting(greetingText)}
	s.state.UserFacts = nil
	s.state.DailySummaries = nil
	s.state.LastTarotReadingDate = time.Time{}
	s.state.UserName = ""
	s.state.UserGender = GenderNonBinary
	s.persist()
	s.log.Info("All data cleared")
}

func (s *Store) greeting(text string) Message {
	return Message{
		ID:        InitialMessageID,
		Role:      RoleAssistant,
		Content:   text,
		Timestamp: s.now(),
		Status:    StatusSent,
	}
}

// AddFact inserts a fact. Facts are keyed by id; content dedup is the
// extraction capability's concern.
func (s *Store) AddFact(fact UserFact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fact.ID == "" {
		fact.ID = s.newID()
	}
	s.state.UserFacts = append(s.state.UserFacts, fact)
	s.persist()
}

// UpdateFact rewrites the text of a fact. Unknown id is a no-op.
func (s *Store) UpdateFact(id, newText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.UserFacts {
		if s.state.UserFacts[i].ID == id {
			s.state.UserFacts[i].Fact = newText
			s.persist()
			return
		}
	}
}

// DeleteFact removes a fact. Unknown id is a no-op.
func (s *Store) DeleteFact(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.UserFacts {
		if s.state.UserFacts[i].ID == id {
			s.state.UserFacts = append(s.state.UserFacts[:i], s.state.UserFacts[i+1:]...)
			s.persist()
			return
		}
	}
}

// Facts returns the fact texts in insertion order.
func (s *Store) Facts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.state.UserFacts))
	for i, f := range s.state.UserFacts {
		out[i] = f.Fact
	}
	return out
}

// AddSummary inserts a daily summary. A summary already present for the
// same date is replaced (last write wins).
func (s *Store) AddSummary(summary DailySummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if summary.ID == "" {
		summary.ID = s.newID()
	}
	kept := s.state.DailySummaries[:0]
	for _, existing := range s.state.DailySummaries {
		if existing.Date != summary.Date {
			kept = append(kept, existing)
		}
	}
	s.state.DailySummaries = append(kept, summary)
	s.persist()
	s.log.Debug("Daily summary recorded", "date", summary.Date, "emotion", summary.OverallEmotion)
}

// Summaries returns all daily summaries.
func (s *Store) Summaries() []DailySummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DailySummary(nil), s.state.DailySummaries...)
}

// SetUserName records the seeker's name.
func (s *Store) SetUserName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UserName = name
	s.persist()
}

// SetUserGender records the seeker's gender.
func (s *Store) SetUserGender(gender Gender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UserGender = gender
	s.persist()
}

// SetPersonality selects the oracle's tone.
func (s *Store) SetPersonality(p Personality) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Personality = p
	s.persist()
}

// SetLanguage records an explicit language choice.
func (s *Store) SetLanguage(lang Language) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Language = lang
	s.persist()
}

// Language returns the current language tag; empty means never chosen.
func (s *Store) Language() Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Language
}

// SetLastTarotReadingDate records that a tarot reading happened at t.
func (s *Store) SetLastTarotReadingDate(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastTarotReadingDate = t
	s.persist()
}

// RecordTarotReadingNow stamps the last tarot reading with the store's
// clock.
func (s *Store) RecordTarotReadingNow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastTarotReadingDate = s.now()
	s.persist()
}
