// Package tarot implements the fixed major-arcana deck and the three-card
// past/present/future draw used by the oracle's reading capability.
package tarot

import "math/rand/v2"

// MajorArcana is the fixed 22-card deck. Order is the traditional numbering
// and must not change: interpretations reference cards by name.
var MajorArcana = []string{
	"The Fool", "The Magician", "The High Priestess", "The Empress", "The Emperor",
	"The Hierophant", "The Lovers", "The Chariot", "Strength", "The Hermit",
	"Wheel of Fortune", "Justice", "The Hanged Man", "Death", "Temperance",
	"The Devil", "The Tower", "The Star", "The Moon", "The Sun", "Judgement", "The World",
}

// Spread is a three-card past/present/future draw.
type Spread struct {
	Past    string
	Present string
	Future  string
}

// Draw samples three distinct cards uniformly without replacement.
func Draw() Spread {
	perm := rand.Perm(len(MajorArcana))
	return Spread{
		Past:    MajorArcana[perm[0]],
		Present: MajorArcana[perm[1]],
		Future:  MajorArcana[perm[2]],
	}
}

// Cards returns the spread in past, present, future order.
func (s Spread) Cards() [3]string {
	return [3]string{s.Past, s.Present, s.Future}
}
