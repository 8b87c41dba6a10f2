package store

import (
	"strings"
	"time"
)

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Status tracks the delivery state of a message. A user message starts as
// pending when the conversational capability has not yet confirmed a reply,
// and resolves to sent or failed.
type Status string

const (
	StatusSent    Status = "sent"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// Gender is the seeker's self-declared gender, used by the oracle to
// gender its responses correctly.
type Gender string

const (
	GenderMale      Gender = "male"
	GenderFemale    Gender = "female"
	GenderNonBinary Gender = "non-binary"
)

// ParseGender maps user input to a Gender; false when unrecognized.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male":
		return GenderMale, true
	case "female":
		return GenderFemale, true
	case "non-binary", "nonbinary":
		return GenderNonBinary, true
	}
	return "", false
}

// Personality selects the oracle's tone of voice.
type Personality string

const (
	PersonalityWise   Personality = "wise"
	PersonalityDirect Personality = "direct"
	PersonalityPoetic Personality = "poetic"
)

// ParsePersonality maps user input to a Personality; false when
// unrecognized.
func ParsePersonality(s string) (Personality, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wise":
		return PersonalityWise, true
	case "direct":
		return PersonalityDirect, true
	case "poetic":
		return PersonalityPoetic, true
	}
	return "", false
}

// Language is the conversation language tag.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"
)

// ParseLanguage maps user input (a tag or an English/native language name)
// to a Language; false when unrecognized.
func ParseLanguage(s string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en", "english":
		return LanguageEnglish, true
	case "es", "spanish", "español", "espanol":
		return LanguageSpanish, true
	}
	return "", false
}

// Emotion classifies the dominant energy of a day's conversation.
type Emotion string

const (
	EmotionAuspicious  Emotion = "Auspicious"
	EmotionNeutral     Emotion = "Neutral"
	EmotionChallenging Emotion = "Challenging"
)

// InitialMessageID is the reserved id of the greeting message that seeds an
// empty log. It is always the first entry and its id and position never
// change; only its content may be rewritten (e.g. on language change).
const InitialMessageID = "initial-message"

// Message is one conversational turn. Timestamp is set once at creation;
// a zero Timestamp is tolerated only on the sentinel greeting and excludes
// the message from all date-based derivations.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Status    Status    `json:"status"`
}

// UserFact is one durable, non-trivial fact about the seeker. Facts are a
// set keyed by id; content-level dedup is advisory and enforced by the
// extraction capability, not the store.
type UserFact struct {
	ID   string `json:"id"`
	Fact string `json:"fact"`
}

// DailySummary is the oracle's reading of one past calendar day. At most one
// summary exists per date; inserting for an existing date replaces it.
type DailySummary struct {
	ID               string  `json:"id"`
	Date             string  `json:"date"` // YYYY-MM-DD
	Summary          string  `json:"summary"`
	OverallEmotion   Emotion `json:"overallEmotion"`
	ConversationTime int     `json:"conversationTime"` // minutes, non-negative
}

// State is the aggregate root owned by the Store. It is mirrored to the
// persistence gateway as a unit on every change and restored wholesale at
// startup. An empty Language means the seeker never explicitly chose one.
type State struct {
	UserName            string         `json:"userName"`
	UserGender          Gender         `json:"userGender"`
	Personality         Personality    `json:"oraclePersonality"`
	Language            Language       `json:"language,omitempty"`
	Messages            []Message      `json:"messages"`
	UserFacts           []UserFact     `json:"userFacts"`
	DailySummaries      []DailySummary `json:"dailySummaries"`
	LastTarotReadingDate time.Time     `json:"lastTarotReadingDate,omitzero"`
}

// DefaultState returns the documented startup defaults used when no
// persisted snapshot exists.
func DefaultState() State {
	return State{
		UserGender:  GenderNonBinary,
		Personality: PersonalityWise,
	}
}

// clone returns a deep copy so snapshots handed outside the store never
// alias its internal slices.
func (s State) clone() State {
	out := s
	out.Messages = append([]Message(nil), s.Messages...)
	out.UserFacts = append([]UserFact(nil), s.UserFacts...)
	out.DailySummaries = append([]DailySummary(nil), s.DailySummaries...)
	return out
}
