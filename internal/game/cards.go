// Package game implements the table itself: the seat registry, the betting
// state machine, and the visibility-filtered views of shared state that are
// pushed to clients.
package game

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/paulhankin/poker"
)

// Total orders over the card alphabets. Z is the joker; B and R are the black
// and red joker suits.
const (
	RankOrder = "23456789TJQKAZ"
	SuitOrder = "DCHSBR"
)

// Card is one playing card, encoded on the wire as a two-character code
// (rank followed by suit, e.g. "AS").
type Card struct {
	Rank byte
	Suit byte
}

// ParseCard decodes a two-character card code.
func ParseCard(code string) (Card, error) {
	if len(code) != 2 {
		return Card{}, fmt.Errorf("invalid card code %q", code)
	}
	rank, suit := code[0], code[1]
	if !strings.ContainsRune(RankOrder, rune(rank)) || !strings.ContainsRune(SuitOrder, rune(suit)) {
		return Card{}, fmt.Errorf("invalid card code %q", code)
	}
	return Card{Rank: rank, Suit: suit}, nil
}

func (c Card) String() string {
	return string([]byte{c.Rank, c.Suit})
}

// Compare orders two cards by rank, then by suit.
func (c Card) Compare(other Card) int {
	r1, r2 := strings.IndexByte(RankOrder, c.Rank), strings.IndexByte(RankOrder, other.Rank)
	if r1 != r2 {
		return r1 - r2
	}
	return strings.IndexByte(SuitOrder, c.Suit) - strings.IndexByte(SuitOrder, other.Suit)
}

// Pile is the draw pile cards are dealt from.
type Pile struct {
	cards []Card
	rng   *rand.Rand
}

// NewPile builds an ordered pile. Jokers only exist in the B and R suits and
// are excluded unless requested.
func NewPile(rng *rand.Rand, withJokers bool) *Pile {
	p := &Pile{rng: rng}
	for _, suit := range []byte(SuitOrder) {
		for _, rank := range []byte(RankOrder) {
			isJoker := rank == 'Z'
			isJokerSuit := suit == 'B' || suit == 'R'
			if isJoker != isJokerSuit {
				continue
			}
			if isJoker && !withJokers {
				continue
			}
			p.cards = append(p.cards, Card{Rank: rank, Suit: suit})
		}
	}
	return p
}

func (p *Pile) Count() int {
	return len(p.cards)
}

func (p *Pile) Shuffle() {
	p.rng.Shuffle(len(p.cards), func(i, j int) {
		p.cards[i], p.cards[j] = p.cards[j], p.cards[i]
	})
}

// Draw removes and returns the top card, reporting false when the pile is
// empty.
func (p *Pile) Draw() (Card, bool) {
	if len(p.cards) == 0 {
		return Card{}, false
	}
	card := p.cards[0]
	p.cards = p.cards[1:]
	return card, true
}

// HandComparator ranks two hands, returning >0 if a beats b, <0 if b beats a
// and 0 on a tie. The showdown resolution is pluggable over this.
type HandComparator func(a, b []string) (int, error)

// EvaluateHand scores a hand of card codes with the poker evaluator. A higher
// score is a stronger hand. Only 3, 5, and 7 card hands are rankable.
func EvaluateHand(codes []string) (int16, error) {
	cards := make([]poker.Card, len(codes))
	for i, code := range codes {
		c, err := ParseCard(code)
		if err != nil {
			return 0, err
		}
		pc, err := toPokerCard(c)
		if err != nil {
			return 0, err
		}
		cards[i] = pc
	}

	switch len(cards) {
	case 3:
		var a3 [3]poker.Card
		copy(a3[:], cards)
		return poker.Eval3(&a3), nil
	case 5:
		var a5 [5]poker.Card
		copy(a5[:], cards)
		return poker.Eval5(&a5), nil
	case 7:
		var a7 [7]poker.Card
		copy(a7[:], cards)
		return poker.Eval7(&a7), nil
	default:
		return 0, fmt.Errorf("cannot rank a hand of %d cards", len(cards))
	}
}

// CompareHands is the default HandComparator used at showdown.
func CompareHands(a, b []string) (int, error) {
	scoreA, err := EvaluateHand(a)
	if err != nil {
		return 0, err
	}
	scoreB, err := EvaluateHand(b)
	if err != nil {
		return 0, err
	}
	return int(scoreA) - int(scoreB), nil
}

func toPokerCard(c Card) (poker.Card, error) {
	var zero poker.Card

	var suit poker.Suit
	switch c.Suit {
	case 'D':
		suit = poker.Diamond
	case 'C':
		suit = poker.Club
	case 'H':
		suit = poker.Heart
	case 'S':
		suit = poker.Spade
	default:
		return zero, fmt.Errorf("suit %q is not rankable", c.Suit)
	}

	// Evaluator ranks run 1..13 with Ace = 1.
	var rank poker.Rank
	switch {
	case c.Rank == 'A':
		rank = poker.Rank(1)
	case c.Rank >= '2' && c.Rank <= '9':
		rank = poker.Rank(c.Rank - '0')
	case c.Rank == 'T':
		rank = poker.Rank(10)
	case c.Rank == 'J':
		rank = poker.Rank(11)
	case c.Rank == 'Q':
		rank = poker.Rank(12)
	case c.Rank == 'K':
		rank = poker.Rank(13)
	default:
		return zero, fmt.Errorf("rank %q is not rankable", c.Rank)
	}

	return poker.MakeCard(suit, rank)
}
