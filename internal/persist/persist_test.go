package persist_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moirai-app/moirai/internal/persist"
	"github.com/moirai-app/moirai/internal/store"
)

func sampleState() store.State {
	st := store.DefaultState()
	st.UserName = "Elena"
	st.UserGender = store.GenderFemale
	st.Personality = store.PersonalityPoetic
	st.Language = store.LanguageSpanish
	st.Messages = []store.Message{
		{ID: store.InitialMessageID, Role: store.RoleAssistant, Content: "Welcome, seeker.", Timestamp: time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC), Status: store.StatusSent},
		{ID: "m1", Role: store.RoleUser, Content: "What do the cards say?", Timestamp: time.Date(2026, 8, 20, 9, 1, 0, 0, time.UTC), Status: store.StatusSent},
	}
	st.UserFacts = []store.UserFact{{ID: "f1", Fact: "Believes in karmic connections"}}
	st.DailySummaries = []store.DailySummary{{ID: "s1", Date: "2026-08-19", Summary: "A day of quiet reflection.", OverallEmotion: store.EmotionNeutral, ConversationTime: 12}}
	return st
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "moirai.json")
	f := persist.NewFile(path, nil)

	st := sampleState()
	require.NoError(t, f.Save(st))

	restored, found, err := f.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, st.UserName, restored.UserName)
	assert.Equal(t, st.Language, restored.Language)
	assert.Equal(t, st.Personality, restored.Personality)
	require.Len(t, restored.Messages, 2)
	assert.Equal(t, store.InitialMessageID, restored.Messages[0].ID)
	assert.Equal(t, st.UserFacts, restored.UserFacts)
	assert.Equal(t, st.DailySummaries, restored.DailySummaries)
}

func TestFileLoadMissingSnapshot(t *testing.T) {
	f := persist.NewFile(filepath.Join(t.TempDir(), "absent.json"), nil)

	_, found, err := f.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileSaveReplacesPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moirai.json")
	f := persist.NewFile(path, nil)

	first := sampleState()
	require.NoError(t, f.Save(first))

	second := first
	second.UserName = "Marta"
	require.NoError(t, f.Save(second))

	restored, found, err := f.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Marta", restored.UserName)
}

func TestDecodeUpgradesV1Envelope(t *testing.T) {
	v1 := map[string]any{
		"version": 1,
		"state": map[string]any{
			"userName":             "Ana",
			"language":             "es",
			"messages":             []map[string]any{{"id": "m1", "role": "user", "content": "hola", "status": "sent"}},
			"userFacts":            []map[string]any{{"id": "f1", "fact": "Seeks to align their chakras"}},
			"dailySummaries":       []any{},
			"lastTarotReadingDate": "2026-08-10",
		},
	}
	data, err := json.Marshal(v1)
	require.NoError(t, err)

	st, err := persist.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Ana", st.UserName)
	assert.Equal(t, store.LanguageSpanish, st.Language)
	// v1 snapshots predate personality and gender; upgrades seed defaults.
	assert.Equal(t, store.PersonalityWise, st.Personality)
	assert.Equal(t, store.GenderNonBinary, st.UserGender)
	assert.False(t, st.LastTarotReadingDate.IsZero())
	require.Len(t, st.Messages, 1)
	assert.Equal(t, "hola", st.Messages[0].Content)
}

func TestDecodeRejectsUnknownNewerVersion(t *testing.T) {
	data, err := json.Marshal(map[string]any{"version": persist.SnapshotVersion + 1, "state": map[string]any{}})
	require.NoError(t, err)

	_, err = persist.Decode(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("version %d", persist.SnapshotVersion+1))
}

func TestDecodePreservesEmptyLanguageAsUnset(t *testing.T) {
	st := store.DefaultState()
	st.Messages = []store.Message{}
	data, err := persist.Encode(st)
	require.NoError(t, err)

	// The serialized form omits the language key entirely, which is the
	// signal that the seeker never explicitly chose one.
	assert.NotContains(t, string(data), `"language"`)

	restored, err := persist.Decode(data)
	require.NoError(t, err)
	assert.Empty(t, restored.Language)
}

func TestNoopBackend(t *testing.T) {
	var n persist.Noop
	require.NoError(t, n.Save(sampleState()))

	_, found, err := n.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

// The application wires backends through the Gateway interface (save at
// runtime, restore once at startup), and the store only sees the Save half.
func TestGatewayCoversSaveAndRestore(t *testing.T) {
	var gw persist.Gateway = persist.NewFile(filepath.Join(t.TempDir(), "moirai.json"), nil)

	var _ store.Snapshotter = gw

	require.NoError(t, gw.Save(sampleState()))
	restored, found, err := gw.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Elena", restored.UserName)

	gw = persist.Noop{}
	_, found, err = gw.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileLoadCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moirai.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	f := persist.NewFile(path, nil)
	_, _, err := f.Load()
	require.Error(t, err)
}
