package poker

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrDeckExhausted is returned when the deck and muck together cannot cover a deal.
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck is the undealt stock plus the muck of discarded cards. Cards are dealt
// from the head of Cards. Both slices serialize with the table document.
type Deck struct {
	Cards []Card `json:"cards"`
	Muck  []Card `json:"muck"`
}

// NewDeck creates a full deck shuffled with rng.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{Cards: FullDeck()}
	d.Shuffle(rng)
	return d
}

// Shuffle shuffles the undealt cards using Fisher-Yates.
func (d *Deck) Shuffle(rng *rand.Rand) {
	shuffle(d.Cards, rng)
}

func shuffle(cards []Card, rng *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Deal removes n cards from the head of the deck.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("deal %d cards", n)
	}
	if n > len(d.Cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrDeckExhausted, n, len(d.Cards))
	}
	out := make([]Card, n)
	copy(out, d.Cards[:n])
	d.Cards = d.Cards[n:]
	return out, nil
}

// Discard puts discarded cards aside.
func (d *Deck) Discard(cards ...Card) {
	d.Muck = append(d.Muck, cards...)
}

// ReshuffleMuckIfNeeded shuffles the muck and appends it to the deck when the
// deck holds fewer than n cards. It leaves the deck untouched and returns
// ErrDeckExhausted if deck and muck together hold fewer than n.
func (d *Deck) ReshuffleMuckIfNeeded(n int, rng *rand.Rand) error {
	if len(d.Cards) >= n {
		return nil
	}
	if len(d.Cards)+len(d.Muck) < n {
		return fmt.Errorf("%w: want %d, deck %d, muck %d", ErrDeckExhausted, n, len(d.Cards), len(d.Muck))
	}
	muck := d.Muck
	d.Muck = nil
	shuffle(muck, rng)
	d.Cards = append(d.Cards, muck...)
	return nil
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.Cards)
}
