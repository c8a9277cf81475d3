package game

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lox/pokertable/poker"
)

// CheckInvariants verifies the table after a transition. Any violation is
// reported as ErrInternalState and the transition must be discarded.
func (t *Table) CheckInvariants() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	for i, p := range t.Players {
		if p.Chips < 0 || p.CurrentRoundBet < 0 || p.TotalContribution < 0 {
			fail("seat %d has negative chips", i)
		}
		if p.InHand && t.Phase.InHand() && p.Status == StatusActive && p.Chips == 0 {
			fail("seat %d is active with no chips", i)
		}
	}

	switch {
	case t.Phase.InHand():
		if t.ActiveSeat < 0 || t.ActiveSeat >= len(t.Players) {
			fail("no active seat in %s", t.Phase)
		} else if p := t.Players[t.ActiveSeat]; (t.Phase.IsBetting() && !p.CanAct()) || (t.Phase.IsDraw() && !p.Live()) {
			fail("active seat %d cannot act in %s", t.ActiveSeat, t.Phase)
		}
		if t.TurnDeadline.IsZero() {
			fail("no turn deadline in %s", t.Phase)
		}
	default:
		if t.ActiveSeat != -1 {
			fail("active seat %d set in %s", t.ActiveSeat, t.Phase)
		}
		if !t.TurnDeadline.IsZero() {
			fail("turn deadline set in %s", t.Phase)
		}
	}

	if t.Phase != PhaseIdle {
		t.checkPartition(fail)
		t.checkConservation(fail)
	}
	if t.Phase.IsBetting() {
		t.checkBets(fail)
	}
	if t.Phase.InHand() {
		t.checkPots(fail)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInternalState, errors.Join(errs...))
	}
	return nil
}

func (t *Table) checkPartition(fail func(string, ...any)) {
	var seen poker.Hand
	n := 0
	add := func(cards []poker.Card) {
		for _, c := range cards {
			if seen.HasCard(c) {
				fail("card %s appears twice", c)
			}
			seen.AddCard(c)
			n++
		}
	}
	add(t.Deck.Cards)
	add(t.Deck.Muck)
	add(t.Community)
	for _, p := range t.Players {
		add(p.Hand)
	}
	if n != 52 {
		fail("deck partition holds %d cards", n)
	}
}

func (t *Table) checkConservation(fail func(string, ...any)) {
	total := 0
	for _, p := range t.Players {
		if !p.InHand {
			continue
		}
		total += p.Chips
		if t.Phase.InHand() {
			total += p.TotalContribution
		}
	}
	if total != t.HandTotal {
		fail("chips in play %d, hand started with %d", total, t.HandTotal)
	}
	if t.Phase.InHand() {
		committed := 0
		for _, p := range t.Players {
			committed += p.TotalContribution
		}
		if t.PotTotal() != committed {
			fail("pots hold %d, players committed %d", t.PotTotal(), committed)
		}
	}
}

func (t *Table) checkBets(fail func(string, ...any)) {
	for i, p := range t.Players {
		if p.CurrentRoundBet > t.CurrentBet {
			fail("seat %d bet %d above current bet %d", i, p.CurrentRoundBet, t.CurrentBet)
		}
		if p.CanAct() && p.HasActed && p.CurrentRoundBet != t.CurrentBet {
			fail("seat %d acted but owes %d", i, t.CurrentBet-p.CurrentRoundBet)
		}
	}
}

func (t *Table) checkPots(fail func(string, ...any)) {
	frozen := t.frozenContributions()
	for i, pot := range t.Pots {
		if pot.Level == 0 {
			continue
		}
		var want []string
		for _, c := range frozen {
			if !c.Folded && c.Amount >= pot.Level {
				want = append(want, c.UID)
			}
		}
		got := slices.Clone(pot.Eligible)
		slices.Sort(got)
		slices.Sort(want)
		if !slices.Equal(got, want) {
			fail("pot %d eligible %v, want %v", i, got, want)
		}
	}
}
