package store

import (
	"sort"
	"strings"
	"time"
)

// DefaultHistoryLimit bounds ConversationHistory when the caller passes a
// non-positive limit.
const DefaultHistoryLimit = 10

const dayKeyLayout = "2006-01-02"

// speakerLabel maps a role to its transcript label. System turns carry the
// oracle's voice (greetings, notices), matching the chat surface.
func speakerLabel(role Role) string {
	if role == RoleUser {
		return "Seeker"
	}
	return "Oracle"
}

func (s *Store) dayKey(t time.Time) string {
	return t.In(s.loc).Format(dayKeyLayout)
}

// ConversationHistory formats the last limit user/assistant turns as
// "Seeker: ..." / "Oracle: ..." lines, oldest first.
func (s *Store) ConversationHistory(limit int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var turns []Message
	for _, m := range s.state.Messages {
		if m.Role == RoleUser || m.Role == RoleAssistant {
			turns = append(turns, m)
		}
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	lines := make([]string, len(turns))
	for i, m := range turns {
		lines[i] = speakerLabel(m.Role) + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

// TodaysUserMessageCount counts user messages timestamped on the current
// calendar day. The log itself never limits appends; any daily cap is
// caller policy.
func (s *Store) TodaysUserMessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.dayKey(s.now())
	count := 0
	for _, m := range s.state.Messages {
		if m.Role == RoleUser && !m.Timestamp.IsZero() && s.dayKey(m.Timestamp) == today {
			count++
		}
	}
	return count
}

// ConversationForDate returns the formatted transcript of every message on
// the given YYYY-MM-DD day. The second result is false when no message
// falls on that day, distinguishing "no conversation" from an empty string.
func (s *Store) ConversationForDate(day string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lines []string
	for _, m := range s.state.Messages {
		if m.Timestamp.IsZero() || s.dayKey(m.Timestamp) != day {
			continue
		}
		lines = append(lines, speakerLabel(m.Role)+": "+m.Content)
	}
	if lines == nil {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

// DatesWithConversations returns the distinct day keys present in the log,
// sorted for determinism. Messages without timestamps are excluded.
func (s *Store) DatesWithConversations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationDates()
}

func (s *Store) conversationDates() []string {
	seen := make(map[string]struct{})
	for _, m := range s.state.Messages {
		if m.Timestamp.IsZero() {
			continue
		}
		seen[s.dayKey(m.Timestamp)] = struct{}{}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// DatesNeedingSummary returns past days that have conversation but no
// summary yet. Today is always excluded: it is still in progress. The
// result is recomputed from current state on every call, never cached.
func (s *Store) DatesNeedingSummary() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	summarized := make(map[string]struct{}, len(s.state.DailySummaries))
	for _, sum := range s.state.DailySummaries {
		summarized[sum.Date] = struct{}{}
	}
	today := s.dayKey(s.now())

	var out []string
	for _, d := range s.conversationDates() {
		if d == today {
			continue
		}
		if _, ok := summarized[d]; ok {
			continue
		}
		out = append(out, d)
	}
	return out
}

// HasDoneTarotReadingToday reports whether the recorded last reading falls
// on the current calendar day.
func (s *Store) HasDoneTarotReadingToday() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.LastTarotReadingDate.IsZero() {
		return false
	}
	return s.dayKey(s.state.LastTarotReadingDate) == s.dayKey(s.now())
}

// PendingMessages returns the messages currently pending, in log order.
func (s *Store) PendingMessages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Message
	for _, m := range s.state.Messages {
		if m.Status == StatusPending {
			out = append(out, m)
		}
	}
	return out
}

// FactAt returns the fact at the given 1-based position of the listing
// order (insertion order, the same order Facts returns).
func (s *Store) FactAt(ordinal int) (UserFact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ordinal < 1 || ordinal > len(s.state.UserFacts) {
		return UserFact{}, false
	}
	return s.state.UserFacts[ordinal-1], true
}

// LastFailedMessage returns the most recent failed user message, if any.
func (s *Store) LastFailedMessage() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.state.Messages) - 1; i >= 0; i-- {
		m := s.state.Messages[i]
		if m.Role == RoleUser && m.Status == StatusFailed {
			return m, true
		}
	}
	return Message{}, false
}
