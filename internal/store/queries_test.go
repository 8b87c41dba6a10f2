package store_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moirai-app/moirai/internal/store"
)

// addMessageAt appends a message timestamped at the given instant by
// temporarily moving the clock.
func addMessageAt(s *store.Store, clock *fakeClock, at time.Time, role store.Role, content string) string {
	prev := clock.Now()
	clock.Set(at)
	id := s.AddMessage(role, content, "")
	clock.Set(prev)
	return id
}

func TestConversationHistoryFormatting(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddMessage(store.RoleSystem, "internal note", "")
	s.AddMessage(store.RoleUser, "What do the stars hold?", "")
	s.AddMessage(store.RoleAssistant, "The stars speak softly tonight.", "")

	history := s.ConversationHistory(10)

	expected := "Seeker: What do the stars hold?\nOracle: The stars speak softly tonight."
	assert.Equal(t, expected, history)
}

func TestConversationHistoryLimitKeepsNewestOldestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 0; i < 6; i++ {
		s.AddMessage(store.RoleUser, fmt.Sprintf("turn %d", i), "")
	}

	history := s.ConversationHistory(3)

	lines := strings.Split(history, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Seeker: turn 3", lines[0])
	assert.Equal(t, "Seeker: turn 5", lines[2])
}

func TestConversationHistoryDefaultLimit(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 0; i < 15; i++ {
		s.AddMessage(store.RoleUser, fmt.Sprintf("turn %d", i), "")
	}

	lines := strings.Split(s.ConversationHistory(0), "\n")
	assert.Len(t, lines, store.DefaultHistoryLimit)
}

func TestTodaysUserMessageCount(t *testing.T) {
	s, clock := newTestStore(t)
	yesterday := baseTime.Add(-24 * time.Hour)

	addMessageAt(s, clock, yesterday, store.RoleUser, "old")
	s.AddMessage(store.RoleUser, "today 1", "")
	s.AddMessage(store.RoleAssistant, "a reply", "")
	s.AddMessage(store.RoleUser, "today 2", "")

	assert.Equal(t, 2, s.TodaysUserMessageCount())
}

// The log never enforces a daily cap itself; after 20 messages a 21st
// append must succeed and be counted.
func TestDailyLimitIsCallerPolicyNotLogInvariant(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 0; i < 20; i++ {
		s.AddMessage(store.RoleUser, fmt.Sprintf("turn %d", i), "")
	}

	s.AddMessage(store.RoleUser, "turn 20", "")

	assert.Equal(t, 21, s.TodaysUserMessageCount())
}

func TestDatePartition(t *testing.T) {
	s, clock := newTestStore(t)
	day1 := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 25, 23, 59, 0, 0, time.UTC)

	addMessageAt(s, clock, day1, store.RoleUser, "first day")
	addMessageAt(s, clock, day1.Add(time.Hour), store.RoleAssistant, "reply")
	addMessageAt(s, clock, day2, store.RoleUser, "second day")

	assert.Equal(t, []string{"2026-08-24", "2026-08-25"}, s.DatesWithConversations())

	transcript, ok := s.ConversationForDate("2026-08-24")
	require.True(t, ok)
	assert.Equal(t, "Seeker: first day\nOracle: reply", transcript)

	_, ok = s.ConversationForDate("2026-08-23")
	assert.False(t, ok, "day without conversation must be absent, not empty")
}

func TestDatesNeedingSummaryExclusions(t *testing.T) {
	s, clock := newTestStore(t)
	pastUnsummarized := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	pastSummarized := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	addMessageAt(s, clock, pastUnsummarized, store.RoleUser, "a")
	addMessageAt(s, clock, pastSummarized, store.RoleUser, "b")
	s.AddMessage(store.RoleUser, "today", "")

	s.AddSummary(store.DailySummary{Date: "2026-08-25", Summary: "done", OverallEmotion: store.EmotionNeutral})

	// Today has conversation and no summary but is still in progress;
	// summarized days are excluded; past unsummarized days are included.
	assert.Equal(t, []string{"2026-08-24"}, s.DatesNeedingSummary())
}

func TestDatesNeedingSummaryRecomputedPerCall(t *testing.T) {
	s, clock := newTestStore(t)
	past := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	addMessageAt(s, clock, past, store.RoleUser, "a")

	require.Equal(t, []string{"2026-08-24"}, s.DatesNeedingSummary())

	s.AddSummary(store.DailySummary{Date: "2026-08-24", Summary: "done", OverallEmotion: store.EmotionAuspicious})
	assert.Empty(t, s.DatesNeedingSummary())
}

func TestHasDoneTarotReadingToday(t *testing.T) {
	s, clock := newTestStore(t)
	assert.False(t, s.HasDoneTarotReadingToday())

	s.SetLastTarotReadingDate(baseTime.Add(-24 * time.Hour))
	assert.False(t, s.HasDoneTarotReadingToday())

	s.SetLastTarotReadingDate(clock.Now())
	assert.True(t, s.HasDoneTarotReadingToday())

	// Crossing midnight makes yesterday's reading stale.
	clock.Set(baseTime.Add(24 * time.Hour))
	assert.False(t, s.HasDoneTarotReadingToday())
}

func TestPendingMessagesInLogOrder(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddMessage(store.RoleUser, "sent", "")
	p1 := s.AddMessage(store.RoleUser, "queued 1", store.StatusPending)
	s.AddMessage(store.RoleAssistant, "reply", "")
	p2 := s.AddMessage(store.RoleUser, "queued 2", store.StatusPending)

	pending := s.PendingMessages()
	require.Len(t, pending, 2)
	assert.Equal(t, p1, pending[0].ID)
	assert.Equal(t, p2, pending[1].ID)
}

func TestLastFailedMessage(t *testing.T) {
	s, _ := newTestStore(t)
	_, ok := s.LastFailedMessage()
	assert.False(t, ok)

	f1 := s.AddMessage(store.RoleUser, "first failure", store.StatusFailed)
	f2 := s.AddMessage(store.RoleUser, "second failure", store.StatusFailed)
	_ = f1

	m, ok := s.LastFailedMessage()
	require.True(t, ok)
	assert.Equal(t, f2, m.ID)
}

// FactAt resolves the 1-based positions shown by the facts listing, so a
// seeker can edit or delete a remembered fact by its number.
func TestFactAtMatchesListingOrder(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddFact(store.UserFact{Fact: "Collects moonstones"})
	s.AddFact(store.UserFact{Fact: "Was born under a waning moon"})

	first, ok := s.FactAt(1)
	require.True(t, ok)
	assert.Equal(t, "Collects moonstones", first.Fact)

	second, ok := s.FactAt(2)
	require.True(t, ok)
	assert.Equal(t, "Was born under a waning moon", second.Fact)

	for _, n := range []int{0, -1, 3} {
		_, ok := s.FactAt(n)
		assert.False(t, ok, "ordinal %d", n)
	}

	s.DeleteFact(first.ID)
	remaining, ok := s.FactAt(1)
	require.True(t, ok)
	assert.Equal(t, second.ID, remaining.ID)
}
