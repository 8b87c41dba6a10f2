package store_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moirai-app/moirai/internal/store"
)

// fakeClock hands out a fixed instant that tests can advance.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// recordingSnap records every mirrored aggregate.
type recordingSnap struct {
	mu     sync.Mutex
	states []store.State
}

func (r *recordingSnap) Save(st store.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st)
	return nil
}

func (r *recordingSnap) last() (store.State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return store.State{}, false
	}
	return r.states[len(r.states)-1], true
}

var baseTime = time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*store.Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock(baseTime)
	s := store.New(store.DefaultState(), nil, nil,
		store.WithClock(clock.Now),
		store.WithIDFunc(sequentialIDs()),
		store.WithLocation(time.UTC),
	)
	return s, clock
}

func TestAddMessagePreservesOrderAndUniqueIDs(t *testing.T) {
	s, _ := newTestStore(t)

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, s.AddMessage(store.RoleUser, fmt.Sprintf("message %d", i), ""))
	}

	msgs := s.Snapshot().Messages
	require.Len(t, msgs, 5)
	seen := make(map[string]struct{})
	for i, m := range msgs {
		assert.Equal(t, ids[i], m.ID)
		assert.Equal(t, fmt.Sprintf("message %d", i), m.Content)
		_, dup := seen[m.ID]
		assert.False(t, dup, "duplicate id %q", m.ID)
		seen[m.ID] = struct{}{}
	}
}

func TestAddMessageDefaultsToSent(t *testing.T) {
	s, _ := newTestStore(t)

	sentID := s.AddMessage(store.RoleAssistant, "a reply", "")
	pendingID := s.AddMessage(store.RoleUser, "queued", store.StatusPending)

	m, ok := s.Message(sentID)
	require.True(t, ok)
	assert.Equal(t, store.StatusSent, m.Status)

	m, ok = s.Message(pendingID)
	require.True(t, ok)
	assert.Equal(t, store.StatusPending, m.Status)
	assert.False(t, m.Timestamp.IsZero())
}

func TestSetMessageStatusUnknownIDIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.AddMessage(store.RoleUser, "hello", "")

	s.SetMessageStatus("no-such-id", store.StatusFailed)

	m, ok := s.Message(id)
	require.True(t, ok)
	assert.Equal(t, store.StatusSent, m.Status)
}

func TestEnsureInitialGreetingIdempotent(t *testing.T) {
	s, _ := newTestStore(t)

	s.EnsureInitialGreeting("Welcome, seeker.")
	s.EnsureInitialGreeting("Welcome again.")

	msgs := s.Snapshot().Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, store.InitialMessageID, msgs[0].ID)
	assert.Equal(t, "Welcome, seeker.", msgs[0].Content)
	assert.Equal(t, store.StatusSent, msgs[0].Status)
}

func TestEnsureInitialGreetingNoOpOnNonEmptyLog(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddMessage(store.RoleUser, "already talking", "")

	s.EnsureInitialGreeting("Welcome, seeker.")

	msgs := s.Snapshot().Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, "already talking", msgs[0].Content)
}

func TestRewriteInitialGreetingContentOnly(t *testing.T) {
	s, _ := newTestStore(t)
	s.EnsureInitialGreeting("Hello")
	s.AddMessage(store.RoleUser, "hi", "")

	s.RewriteInitialGreeting("Bienvenida, buscadora.")

	msgs := s.Snapshot().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, store.InitialMessageID, msgs[0].ID)
	assert.Equal(t, "Bienvenida, buscadora.", msgs[0].Content)
}

func TestRewriteInitialGreetingNoSentinelIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddMessage(store.RoleUser, "first", "")

	s.RewriteInitialGreeting("new greeting")

	assert.Equal(t, "first", s.Snapshot().Messages[0].Content)
}

func TestResetToGreetingReplacesLogWithFreshTimestamp(t *testing.T) {
	s, clock := newTestStore(t)
	s.EnsureInitialGreeting("Hello")
	s.AddMessage(store.RoleUser, "hi", "")

	later := baseTime.Add(48 * time.Hour)
	clock.Set(later)
	s.ResetToGreeting("A fresh start.")

	msgs := s.Snapshot().Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, store.InitialMessageID, msgs[0].ID)
	assert.Equal(t, "A fresh start.", msgs[0].Content)
	assert.True(t, msgs[0].Timestamp.Equal(later))
}

func TestAddSummaryReplacesSameDate(t *testing.T) {
	s, _ := newTestStore(t)

	s.AddSummary(store.DailySummary{Date: "2026-08-25", Summary: "first", OverallEmotion: store.EmotionNeutral, ConversationTime: 5})
	s.AddSummary(store.DailySummary{Date: "2026-08-26", Summary: "other day", OverallEmotion: store.EmotionAuspicious, ConversationTime: 3})
	s.AddSummary(store.DailySummary{Date: "2026-08-25", Summary: "second", OverallEmotion: store.EmotionChallenging, ConversationTime: 9})

	sums := s.Summaries()
	require.Len(t, sums, 2)

	byDate := make(map[string]store.DailySummary)
	for _, sum := range sums {
		byDate[sum.Date] = sum
	}
	assert.Equal(t, "second", byDate["2026-08-25"].Summary)
	assert.Equal(t, store.EmotionChallenging, byDate["2026-08-25"].OverallEmotion)
	assert.Equal(t, "other day", byDate["2026-08-26"].Summary)
}

func TestFactLifecycle(t *testing.T) {
	s, _ := newTestStore(t)

	s.AddFact(store.UserFact{ID: "f1", Fact: "Has a spirit animal, a wolf named Luna"})
	s.AddFact(store.UserFact{Fact: "Believes in karmic connections"}) // id assigned

	facts := s.Facts()
	require.Len(t, facts, 2)

	s.UpdateFact("f1", "Has two spirit animals")
	assert.Equal(t, "Has two spirit animals", s.Facts()[0])

	s.UpdateFact("missing", "ignored") // no-op
	s.DeleteFact("missing")            // no-op
	require.Len(t, s.Facts(), 2)

	s.DeleteFact("f1")
	facts = s.Facts()
	require.Len(t, facts, 1)
	assert.Equal(t, "Believes in karmic connections", facts[0])
}

func TestClearAllData(t *testing.T) {
	s, clock := newTestStore(t)
	s.EnsureInitialGreeting("Hello")
	s.AddMessage(store.RoleUser, "hi", "")
	s.AddFact(store.UserFact{Fact: "a fact"})
	s.AddSummary(store.DailySummary{Date: "2026-08-20", Summary: "s", OverallEmotion: store.EmotionNeutral})
	s.SetUserName("Elena")
	s.SetUserGender(store.GenderFemale)
	s.SetLanguage(store.LanguageSpanish)
	s.SetLastTarotReadingDate(clock.Now())

	s.ClearAllData("The slate is clean.")

	st := s.Snapshot()
	require.Len(t, st.Messages, 1)
	assert.Equal(t, store.InitialMessageID, st.Messages[0].ID)
	assert.Equal(t, "The slate is clean.", st.Messages[0].Content)
	assert.Empty(t, st.UserFacts)
	assert.Empty(t, st.DailySummaries)
	assert.True(t, st.LastTarotReadingDate.IsZero())
	assert.Empty(t, st.UserName)
	assert.Equal(t, store.GenderNonBinary, st.UserGender)
	// Language survives a data reset.
	assert.Equal(t, store.LanguageSpanish, st.Language)
}

func TestEveryMutationIsMirroredToSnapshotter(t *testing.T) {
	snap := &recordingSnap{}
	clock := newFakeClock(baseTime)
	s := store.New(store.DefaultState(), snap, nil,
		store.WithClock(clock.Now),
		store.WithIDFunc(sequentialIDs()),
		store.WithLocation(time.UTC),
	)

	s.EnsureInitialGreeting("Hello")
	id := s.AddMessage(store.RoleUser, "hi", store.StatusPending)
	s.SetMessageStatus(id, store.StatusSent)
	s.SetUserName("Elena")

	last, ok := snap.last()
	require.True(t, ok)
	assert.Len(t, snap.states, 4)
	assert.Equal(t, "Elena", last.UserName)
	require.Len(t, last.Messages, 2)
	assert.Equal(t, store.StatusSent, last.Messages[1].Status)
}

func TestSnapshotDoesNotAliasInternalState(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddMessage(store.RoleUser, "hi", "")

	snap := s.Snapshot()
	snap.Messages[0].Content = "tampered"

	fresh := s.Snapshot()
	assert.Equal(t, "hi", fresh.Messages[0].Content)
}

func TestParseChoices(t *testing.T) {
	tests := []struct {
		name  string
		parse func(string) (string, bool)
		input string
		want  string
		ok    bool
	}{
		{"gender exact", wrapGender, "female", "female", true},
		{"gender mixed case padded", wrapGender, "  Non-Binary ", "non-binary", true},
		{"gender unknown", wrapGender, "dragon", "", false},
		{"personality exact", wrapPersonality, "poetic", "poetic", true},
		{"personality unknown", wrapPersonality, "sarcastic", "", false},
		{"language tag", wrapLanguage, "es", "es", true},
		{"language english name", wrapLanguage, "Spanish", "es", true},
		{"language native name", wrapLanguage, "español", "es", true},
		{"language unknown", wrapLanguage, "fr", "", false},
		{"language empty", wrapLanguage, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.parse(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func wrapGender(s string) (string, bool) {
	g, ok := store.ParseGender(s)
	return string(g), ok
}

func wrapPersonality(s string) (string, bool) {
	p, ok := store.ParsePersonality(s)
	return string(p), ok
}

func wrapLanguage(s string) (string, bool) {
	l, ok := store.ParseLanguage(s)
	return string(l), ok
}

// Switching language rewrites the greeting content in place: the sentinel
// keeps its id and position, and the rest of the log is untouched.
func TestLanguageChangeRewritesGreetingInPlace(t *testing.T) {
	s, _ := newTestStore(t)
	s.EnsureInitialGreeting("Welcome, seeker.")
	s.AddMessage(store.RoleUser, "hola", "")

	s.SetLanguage(store.LanguageSpanish)
	s.RewriteInitialGreeting("Bienvenide, alma buscadora.")

	snap := s.Snapshot()
	assert.Equal(t, store.LanguageSpanish, snap.Language)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, store.InitialMessageID, snap.Messages[0].ID)
	assert.Equal(t, "Bienvenide, alma buscadora.", snap.Messages[0].Content)
	assert.Equal(t, "hola", snap.Messages[1].Content)
}

func TestPersonalizationSetters(t *testing.T) {
	s, _ := newTestStore(t)

	s.SetUserName("Elena")
	s.SetUserGender(store.GenderFemale)
	s.SetPersonality(store.PersonalityDirect)

	snap := s.Snapshot()
	assert.Equal(t, "Elena", snap.UserName)
	assert.Equal(t, store.GenderFemale, snap.UserGender)
	assert.Equal(t, store.PersonalityDirect, snap.Personality)
}
