// Package card models the fixed 36-card Durak deck and its wire format.
package card

import (
	"errors"
	"fmt"
)

// Suit is one of the four suits, identified by its wire character.
type Suit byte

const (
	Clubs    Suit = 'C'
	Diamonds Suit = 'D'
	Hearts   Suit = 'H'
	Spades   Suit = 'P'
)

// Suits lists all four suits in wire order.
var Suits = [4]Suit{Clubs, Diamonds, Hearts, Spades}

// Rank is a card rank, identified by its wire character ('X' is 10).
type Rank byte

const (
	Six   Rank = '6'
	Seven Rank = '7'
	Eight Rank = '8'
	Nine  Rank = '9'
	Ten   Rank = 'X'
	Jack  Rank = 'J'
	Queen Rank = 'Q'
	King  Rank = 'K'
	Ace   Rank = 'A'
)

// Ranks lists all nine ranks from lowest to highest.
var Ranks = [9]Rank{Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// Card is an immutable (rank, suit) value.
type Card struct {
	Rank Rank
	Suit Suit
}

var ErrInvalidToken = errors.New("invalid card token")

// Token returns the 2-character wire form: rank character then suit character.
func (c Card) Token() string {
	return string([]byte{byte(c.Rank), byte(c.Suit)})
}

func (c Card) String() string {
	return c.Token()
}

// Parse decodes a 2-character wire token into a Card.
func Parse(token string) (Card, error) {
	if len(token) != 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	c := Card{Rank: Rank(token[0]), Suit: Suit(token[1])}
	if !validRank(c.Rank) || !validSuit(c.Suit) {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	return c, nil
}

// ParseSuit decodes a 1-character suit token.
func ParseSuit(token string) (Suit, error) {
	if len(token) != 1 || !validSuit(Suit(token[0])) {
		return 0, fmt.Errorf("%w: suit %q", ErrInvalidToken, token)
	}
	return Suit(token[0]), nil
}

func validRank(r Rank) bool {
	for _, known := range Ranks {
		if r == known {
			return true
		}
	}
	return false
}

func validSuit(s Suit) bool {
	for _, known := range Suits {
		if s == known {
			return true
		}
	}
	return false
}

// Deck returns a fresh, unshuffled 36-card deck in wire order
// (suit-major, ranks descending within each suit).
func Deck() []Card {
	deck := make([]Card, 0, len(Suits)*len(Ranks))
	for _, s := range Suits {
		for i := len(Ranks) - 1; i >= 0; i-- {
			deck = append(deck, Card{Rank: Ranks[i], Suit: s})
		}
	}
	return deck
}

// Tokens encodes a sequence of cards into wire tokens, preserving order.
func Tokens(cards []Card) []string {
	tokens := make([]string, len(cards))
	for i, c := range cards {
		tokens[i] = c.Token()
	}
	return tokens
}

// FromTokens decodes a sequence of wire tokens, preserving order.
func FromTokens(tokens []string) ([]Card, error) {
	cards := make([]Card, len(tokens))
	for i, token := range tokens {
		c, err := Parse(token)
		if err != nil {
			return nil, err
		}
		cards[i] = c
	}
	return cards, nil
}
