package tarot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moirai-app/moirai/internal/tarot"
)

func TestDeckHasTwentyTwoDistinctCards(t *testing.T) {
	require.Len(t, tarot.MajorArcana, 22)

	seen := make(map[string]struct{})
	for _, card := range tarot.MajorArcana {
		seen[card] = struct{}{}
	}
	assert.Len(t, seen, 22)
}

func TestDrawReturnsThreeDistinctDeckCards(t *testing.T) {
	deck := make(map[string]struct{})
	for _, card := range tarot.MajorArcana {
		deck[card] = struct{}{}
	}

	for i := 0; i < 200; i++ {
		spread := tarot.Draw()
		cards := spread.Cards()

		assert.NotEqual(t, cards[0], cards[1])
		assert.NotEqual(t, cards[0], cards[2])
		assert.NotEqual(t, cards[1], cards[2])
		for _, card := range cards {
			_, ok := deck[card]
			assert.True(t, ok, "card %q not in deck", card)
		}
	}
}

// Over many draws every card should land in the past slot roughly equally
// often. A loose bound keeps the test stable while still catching a biased
// shuffle.
func TestDrawIsApproximatelyUniform(t *testing.T) {
	const draws = 22000
	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		counts[tarot.Draw().Past]++
	}

	expected := draws / len(tarot.MajorArcana) // 1000
	for _, card := range tarot.MajorArcana {
		n := counts[card]
		assert.Greater(t, n, expected/2, "card %q drawn too rarely: %d", card, n)
		assert.Less(t, n, expected*2, "card %q drawn too often: %d", card, n)
	}
}
