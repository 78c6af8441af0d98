// Package rules holds the pure card-game predicates. Nothing here touches
// room state; every function is a total function over card values.
package rules

import "github.com/wfunc/durak/card"

var rankWeight = func() map[card.Rank]int {
	w := make(map[card.Rank]int, len(card.Ranks))
	for i, r := range card.Ranks {
		w[r] = i
	}
	return w
}()

// CompareRank orders two ranks: positive if a is higher, negative if b is
// higher, zero if equal.
func CompareRank(a, b card.Rank) int {
	return rankWeight[a] - rankWeight[b]
}

// CanBeat reports whether defense beats attack under the given trump suit.
// A trump beats any non-trump; within a suit only a strictly higher rank
// beats. Off-suit non-trump cards never beat anything.
func CanBeat(attack, defense card.Card, trump card.Suit) bool {
	if defense.Suit == trump && attack.Suit != trump {
		return true
	}
	if defense.Suit == attack.Suit {
		return CompareRank(defense.Rank, attack.Rank) > 0
	}
	return false
}

// CanAddToTable reports whether c may extend the current trick. An empty
// table accepts any card; otherwise the card's rank must already be present
// among the table cards, suit irrelevant.
func CanAddToTable(c card.Card, table []card.Card) bool {
	if len(table) == 0 {
		return true
	}
	for _, t := range table {
		if t.Rank == c.Rank {
			return true
		}
	}
	return false
}
