// Package persist is the persistence gateway: it mirrors the whole State
// aggregate to durable local storage as a single versioned snapshot and
// restores it wholesale at startup. Backends degrade gracefully — a
// missing snapshot or unavailable storage yields the documented defaults
// and (for the no-op backend) silent writes, never a hard failure.
package persist

import (
	"encoding/json"
	"fmt"

	"github.com/moirai-app/moirai/internal/store"
)

// SnapshotVersion is the current envelope schema version. Older versions
// are upgraded on load through an explicit upgrade chain; a newer version
// than this is an error rather than a guess.
const SnapshotVersion = 2

type envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// stateV1 is the pre-personality snapshot shape. It lacked the oracle
// personality and the seeker's gender.
type stateV1 struct {
	UserName             string               `json:"userName"`
	Language             store.Language       `json:"language,omitempty"`
	Messages             []store.Message      `json:"messages"`
	UserFacts            []store.UserFact     `json:"userFacts"`
	DailySummaries       []store.DailySummary `json:"dailySummaries"`
	LastTarotReadingDate string               `json:"lastTarotReadingDate,omitempty"`
}

// Encode wraps the state in the current envelope version.
func Encode(st store.State) ([]byte, error) {
	payload, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	data, err := json.Marshal(envelope{Version: SnapshotVersion, State: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot envelope: %w", err)
	}
	return data, nil
}

// Decode unwraps a snapshot envelope, upgrading older versions in place.
func Decode(data []byte) (store.State, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return store.State{}, fmt.Errorf("failed to parse snapshot envelope: %w", err)
	}

	switch env.Version {
	case SnapshotVersion:
		st := store.DefaultState()
		if err := json.Unmarshal(env.State, &st); err != nil {
			return store.State{}, fmt.Errorf("failed to parse v%d state: %w", SnapshotVersion, err)
		}
		return st, nil

	case 1:
		var old stateV1
		if err := json.Unmarshal(env.State, &old); err != nil {
			return store.State{}, fmt.Errorf("failed to parse v1 state: %w", err)
		}
		return upgradeV1(old), nil

	default:
		return store.State{}, fmt.Errorf("unsupported snapshot version %d (newest known is %d)", env.Version, SnapshotVersion)
	}
}

// upgradeV1 fills in the fields v1 snapshots never carried. The v1 tarot
// date was a bare day key; an unparseable value is dropped rather than
// poisoning the restore.
func upgradeV1(old stateV1) store.State {
	st := store.DefaultState()
	st.UserName = old.UserName
	st.Language = old.Language
	st.Messages = old.Messages
	st.UserFacts = old.UserFacts
	st.DailySummaries = old.DailySummaries
	if old.LastTarotReadingDate != "" {
		if t, err := parseDayKey(old.LastTarotReadingDate); err == nil {
			st.LastTarotReadingDate = t
		}
	}
	return st
}
