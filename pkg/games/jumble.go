package games

import (
	"math/rand"
	"strings"
)

// JumbleFallback is used when no fact could be loaded.
const JumbleFallback = "Cats are mysterious creatures."

// Jumble splits fact into words and shuffles them.
func Jumble(fact string, rnd *rand.Rand) []string {
	words := strings.Split(fact, " ")
	rnd.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})
	return words
}

// Solved reports whether the arranged words rebuild fact.
func Solved(fact string, sequence []string) bool {
	return strings.Join(sequence, " ") == fact
}
