package game

import (
	"fmt"
	"slices"

	"github.com/lox/pokertable/poker"
)

func (t *Table) drawPending(p *Player) bool {
	return p.Live() && !p.HasActed
}

func (t *Table) startDraw(env Env, phase Phase) {
	t.Phase = phase
	for _, p := range t.Players {
		p.HasActed = false
	}
	t.ActiveSeat = t.nextSeat(t.DealerSeat, t.drawPending)
	t.setDeadline(env)
}

// Draw exchanges the cards at the given hand indices. An empty set stands pat.
// All-in players draw like everyone else.
func (t *Table) Draw(env Env, uid string, discards []int) error {
	if !t.Phase.IsDraw() {
		return fmt.Errorf("%w: %s is not a draw phase", ErrPhaseMismatch, t.Phase)
	}
	seat := t.SeatOf(uid)
	if seat < 0 {
		return ErrPlayerNotFound
	}
	if seat != t.ActiveSeat {
		return ErrNotYourTurn
	}
	p := t.Players[seat]
	if len(discards) > len(p.Hand) {
		return fmt.Errorf("%w: %d discards", ErrIllegalAction, len(discards))
	}
	idx := slices.Clone(discards)
	slices.Sort(idx)
	for i, d := range idx {
		if d < 0 || d >= len(p.Hand) || (i > 0 && idx[i-1] == d) {
			return fmt.Errorf("%w: bad discard index %d", ErrIllegalAction, d)
		}
	}

	if err := t.exchange(env, p, idx); err != nil {
		return err
	}
	p.HasActed = true
	p.LastDiscard = len(idx)
	rec := t.record(env, seat, LogDraw, 0)
	rec.Discards = len(idx)
	if len(idx) == 0 {
		t.playerEvent(env, KindAction, "draw", p, "%s stands pat", p.Name)
	} else {
		t.playerEvent(env, KindAction, "draw", p, "%s draws %d", p.Name, len(idx))
	}
	t.LastActivity = env.Now
	t.advanceDraw(env)
	return nil
}

// exchange replaces the cards at idx. The player's own discards only go back
// into the deck when the deck and the earlier muck cannot cover the draw.
func (t *Table) exchange(env Env, p *Player, idx []int) error {
	n := len(idx)
	if n == 0 {
		return nil
	}
	discarded := make([]poker.Card, n)
	for k, i := range idx {
		discarded[k] = p.Hand[i]
	}
	mucked := false
	if err := t.Deck.ReshuffleMuckIfNeeded(n, env.Rand); err != nil {
		t.Deck.Discard(discarded...)
		mucked = true
		if err := t.Deck.ReshuffleMuckIfNeeded(n, env.Rand); err != nil {
			return err
		}
	}
	replacements, err := t.Deck.Deal(n)
	if err != nil {
		return err
	}
	for k, i := range idx {
		p.Hand[i] = replacements[k]
	}
	if !mucked {
		t.Deck.Discard(discarded...)
	}
	return nil
}

func (t *Table) advanceDraw(env Env) {
	if t.count((*Player).Live) == 1 {
		t.finishUncontested(env)
		return
	}
	next := t.nextSeat(t.ActiveSeat, t.drawPending)
	if next >= 0 {
		t.ActiveSeat = next
		t.setDeadline(env)
		return
	}
	for _, p := range t.Players {
		p.HasActed = false
	}
	t.advancePhase(env)
}
