package card

import "math/rand"

// Shuffle permutes cards in place with a Fisher-Yates shuffle driven by rng.
// Every permutation is equally likely for a uniform rng. Slices of length
// zero or one are left untouched.
func Shuffle(rng *rand.Rand, cards []Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
