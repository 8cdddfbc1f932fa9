// Package cards interprets the card strings the server sends, such as "A♥"
// or "10♦". Hand evaluation stays on the server.
package cards

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Back is drawn in place of a card the viewer cannot see
const Back = "🂠"

// Suit represents a card suit
type Suit int

const (
	UnknownSuit Suit = iota
	Spades
	Hearts
	Diamonds
	Clubs
)

func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Card is a parsed card label
type Card struct {
	Rank string
	Suit Suit
}

func (c Card) String() string {
	return c.Rank + c.Suit.String()
}

// Parse reads the suit from the last rune of s. Both the symbol form and the
// ASCII letters s/h/d/c are accepted.
func Parse(s string) (Card, error) {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeLastRuneInString(s)
	if size == 0 || len(s) == size {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	var suit Suit
	switch r {
	case '♠', 's', 'S':
		suit = Spades
	case '♥', 'h', 'H':
		suit = Hearts
	case '♦', 'd', 'D':
		suit = Diamonds
	case '♣', 'c', 'C':
		suit = Clubs
	default:
		return Card{}, fmt.Errorf("invalid suit in card %q", s)
	}
	return Card{Rank: s[:len(s)-size], Suit: suit}, nil
}

// IsRed reports whether the card label is hearts or diamonds. Unparseable
// labels are treated as black.
func IsRed(s string) bool {
	c, err := Parse(s)
	return err == nil && c.Suit.IsRed()
}

// Backs returns n card backs
func Backs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = Back
	}
	return out
}
