package game

import (
	"fmt"
	"time"

	"github.com/lox/pokertable/poker"
)

// HandResult is the outcome of a finished hand, kept on the table for display
// and handed to the history emitter.
type HandResult struct {
	HandNumber   int            `json:"handNumber"`
	Uncontested  bool           `json:"uncontested"`
	DealerSeat   int            `json:"dealerSeat"`
	SmallBlind   int            `json:"smallBlind"`
	BigBlind     int            `json:"bigBlind"`
	Ante         int            `json:"ante,omitempty"`
	Board        []poker.Card   `json:"board,omitempty"`
	Pots         []Pot          `json:"pots"`
	Awards       []PotAward     `json:"awards"`
	Participants []Participant  `json:"participants"`
	Actions      []ActionRecord `json:"actions"`
	EndedAt      time.Time      `json:"endedAt"`
}

// Participant is a seat dealt into a finished hand.
type Participant struct {
	Seat              int          `json:"seat"`
	UID               string       `json:"uid"`
	Name              string       `json:"displayName"`
	IsBot             bool         `json:"isBot,omitempty"`
	StartChips        int          `json:"startChips"`
	EndChips          int          `json:"endChips"`
	TotalContribution int          `json:"totalContribution"`
	Status            PlayerStatus `json:"status"`
	Hand              []poker.Card `json:"hand,omitempty"`
	Showed            bool         `json:"showed"`
	Description       string       `json:"description,omitempty"`
}

// Won returns the total uid collected across all pots.
func (r *HandResult) Won(uid string) int {
	total := 0
	for _, a := range r.Awards {
		if a.UID == uid {
			total += a.Amount
		}
	}
	return total
}

func (t *Table) readyCount() int {
	return t.count((*Player).readyForDeal)
}

// Deal starts a hand. It is only legal in IDLE with at least two seats
// holding chips.
func (t *Table) Deal(env Env) error {
	if t.Phase != PhaseIdle {
		return fmt.Errorf("%w: deal in %s", ErrPhaseMismatch, t.Phase)
	}
	if t.Tournament != nil {
		if t.Tournament.State != TournamentRunning {
			return fmt.Errorf("%w: tournament is %s", ErrPhaseMismatch, t.Tournament.State)
		}
		t.applyBlindLevel(env)
	}
	if t.readyCount() < 2 {
		return fmt.Errorf("%w: need two players with chips", ErrIllegalAction)
	}

	t.HandNumber++
	t.Deck = *poker.NewDeck(env.Rand)
	t.Community = nil
	t.CutCards = nil
	t.Pots = nil
	t.HandLog = nil
	t.HandTotal = 0
	for _, p := range t.Players {
		ready := p.readyForDeal()
		p.resetForHand()
		if ready {
			p.InHand = true
			p.Status = StatusActive
			t.HandTotal += p.Chips
		}
	}
	inHand := func(p *Player) bool { return p.InHand }

	if t.DealerSeat < 0 {
		t.cutForDealer(env)
	} else {
		t.DealerSeat = t.nextSeat(t.DealerSeat, inHand)
	}

	if t.Ante > 0 {
		for i, p := range t.Players {
			if p.InHand {
				amount := min(t.Ante, p.Chips)
				p.commit(amount)
				p.CurrentRoundBet = 0
				t.record(env, i, LogPostAnte, amount)
			}
		}
		t.rebuildPots()
	}

	headsUp := t.count(inHand) == 2
	if headsUp {
		t.SmallBlindSeat = t.DealerSeat
	} else {
		t.SmallBlindSeat = t.nextSeat(t.DealerSeat, inHand)
	}
	t.BigBlindSeat = t.nextSeat(t.SmallBlindSeat, inHand)
	t.postBlind(env, t.SmallBlindSeat, t.SmallBlind, LogPostSmallBlind)
	t.postBlind(env, t.BigBlindSeat, t.MinBet, LogPostBigBlind)

	cards := t.Config.GameType.HandCards()
	for range cards {
		seat := t.DealerSeat
		for range t.count(inHand) {
			seat = t.nextSeat(seat, inHand)
			dealt, err := t.Deck.Deal(1)
			if err != nil {
				return err
			}
			t.Players[seat].Hand = append(t.Players[seat].Hand, dealt[0])
		}
	}

	t.CurrentBet = t.MinBet
	t.LastRaiseAmount = t.MinBet
	t.RaisesThisStreet = 1
	if t.Config.GameType == poker.Holdem {
		t.Phase = PhasePreflop
	} else {
		t.Phase = PhaseBetting1
	}
	t.LastActivity = env.Now
	t.event(env, "hand_start", "Hand #%d: %s has the button", t.HandNumber, t.Players[t.DealerSeat].Name)

	t.ActiveSeat = t.nextSeat(t.BigBlindSeat, t.needsToAct)
	if t.ActiveSeat < 0 {
		t.endStreet(env)
		return nil
	}
	t.setDeadline(env)
	return nil
}

func (t *Table) postBlind(env Env, seat, blind int, label string) {
	p := t.Players[seat]
	amount := min(blind, p.Chips)
	p.commit(amount)
	t.record(env, seat, label, amount)
}

// cutForDealer deals each seat one face-up card; the highest rank wins,
// suits break ties s>h>d>c. The cut cards go to the muck.
func (t *Table) cutForDealer(env Env) {
	t.Phase = PhaseCutForDealer
	best := -1
	var bestCard poker.Card
	for i, p := range t.Players {
		if !p.InHand {
			continue
		}
		dealt, _ := t.Deck.Deal(1)
		c := dealt[0]
		t.CutCards = append(t.CutCards, CutCard{UID: p.UID, Card: c})
		if best < 0 || c.Rank() > bestCard.Rank() || (c.Rank() == bestCard.Rank() && c.Suit() > bestCard.Suit()) {
			best, bestCard = i, c
		}
	}
	for _, cc := range t.CutCards {
		t.Deck.Discard(cc.Card)
	}
	t.DealerSeat = best
	t.event(env, "cut_for_dealer", "%s wins the cut with %s", t.Players[best].Name, bestCard)
}

// nextPhase is the phase graph of each game.
func nextPhase(game poker.GameType, p Phase) Phase {
	switch game {
	case poker.Holdem:
		switch p {
		case PhasePreflop:
			return PhaseFlop
		case PhaseFlop:
			return PhaseTurn
		case PhaseTurn:
			return PhaseRiver
		}
	case poker.SingleDraw:
		switch p {
		case PhaseBetting1:
			return PhaseDraw1
		case PhaseDraw1:
			return PhaseBetting2
		}
	default:
		switch p {
		case PhaseBetting1:
			return PhaseDraw1
		case PhaseDraw1:
			return PhaseBetting2
		case PhaseBetting2:
			return PhaseDraw2
		case PhaseDraw2:
			return PhaseBetting3
		case PhaseBetting3:
			return PhaseDraw3
		case PhaseDraw3:
			return PhaseBetting4
		}
	}
	return PhaseShowdown
}

// advancePhase enters the next phase, skipping betting streets in which
// fewer than two players can still bet.
func (t *Table) advancePhase(env Env) {
	next := nextPhase(t.Config.GameType, t.Phase)
	for {
		switch {
		case next == PhaseShowdown:
			t.showdown(env)
			return
		case next.IsDraw():
			t.startDraw(env, next)
			return
		}

		t.Phase = next
		if t.Config.GameType == poker.Holdem {
			t.dealCommunity(env)
		}
		if t.count((*Player).CanAct) >= 2 {
			t.ActiveSeat = t.nextSeat(t.DealerSeat, t.needsToAct)
			t.setDeadline(env)
			return
		}
		next = nextPhase(t.Config.GameType, next)
	}
}

func (t *Table) dealCommunity(env Env) {
	n := 1
	if t.Phase == PhaseFlop {
		n = 3
	}
	burn, err := t.Deck.Deal(1)
	if err == nil {
		t.Deck.Discard(burn...)
	}
	cards, err := t.Deck.Deal(n)
	if err != nil {
		// Unreachable with six seats; the invariant check rejects the short board.
		return
	}
	t.Community = append(t.Community, cards...)
	t.event(env, "board", "%s: %s", t.Phase, poker.FormatCards(t.Community))
}

// showdown evaluates every live hand and pays the frozen pots.
func (t *Table) showdown(env Env) {
	t.Phase = PhaseShowdown
	t.clearTurn()

	values := make(map[string]poker.HandValue)
	for _, p := range t.Players {
		if !p.Live() {
			continue
		}
		cards := p.Hand
		if t.Config.GameType == poker.Holdem {
			cards = append(append([]poker.Card(nil), p.Hand...), t.Community...)
		}
		v, err := poker.Evaluate(cards, t.Config.GameType)
		if err != nil {
			continue
		}
		values[p.UID] = v
	}
	awards := t.distributePots(values)
	t.finishHand(env, awards, values, false)
}

// finishUncontested awards everything in the middle to the last live seat.
func (t *Table) finishUncontested(env Env) {
	t.Phase = PhaseShowdown
	t.clearTurn()
	for _, p := range t.Players {
		p.CurrentRoundBet = 0
	}
	t.rebuildPots()

	var awards []PotAward
	seat := t.nextSeat(t.DealerSeat, (*Player).Live)
	winner := t.Players[seat]
	for i, pot := range t.Pots {
		winner.Chips += pot.Amount
		awards = append(awards, PotAward{PotIndex: i, UID: winner.UID, Seat: seat, Amount: pot.Amount})
	}
	t.finishHand(env, awards, nil, true)
}

func (t *Table) finishHand(env Env, awards []PotAward, values map[string]poker.HandValue, uncontested bool) {
	t.CurrentBet = 0
	t.LastRaiseAmount = 0
	result := &HandResult{
		HandNumber:  t.HandNumber,
		Uncontested: uncontested,
		DealerSeat:  t.DealerSeat,
		SmallBlind:  t.SmallBlind,
		BigBlind:    t.MinBet,
		Ante:        t.Ante,
		Board:       append([]poker.Card(nil), t.Community...),
		Pots:        append([]Pot(nil), t.Pots...),
		Awards:      awards,
		Actions:     append([]ActionRecord(nil), t.HandLog...),
		EndedAt:     env.Now,
	}
	for i, p := range t.Players {
		if !p.InHand {
			continue
		}
		part := Participant{
			Seat:              i,
			UID:               p.UID,
			Name:              p.Name,
			IsBot:             p.IsBot,
			StartChips:        p.StartChips,
			EndChips:          p.Chips,
			TotalContribution: p.TotalContribution,
			Status:            p.Status,
			Hand:              append([]poker.Card(nil), p.Hand...),
		}
		if v, ok := values[p.UID]; ok {
			part.Showed = true
			part.Description = v.String()
		}
		result.Participants = append(result.Participants, part)
	}
	t.LastResult = result
	t.effects.HandFinished = result
	t.LastActivity = env.Now

	for _, a := range awards {
		p := t.Players[a.Seat]
		if a.Description != "" {
			t.playerEvent(env, KindEvent, "pot_awarded", p, "%s wins %d with %s", p.Name, a.Amount, a.Description)
		} else {
			t.playerEvent(env, KindEvent, "pot_awarded", p, "%s wins %d", p.Name, a.Amount)
		}
	}

	t.settleSeats(env)
}

// settleSeats applies end-of-hand seat changes: busted stacks, eliminations,
// pending sit-outs and leaves.
func (t *Table) settleSeats(env Env) {
	if t.Tournament != nil {
		t.eliminateBusted(env)
		return
	}
	for i := len(t.Players) - 1; i >= 0; i-- {
		p := t.Players[i]
		switch {
		case p.PendingLeave:
			if p.InHand {
				t.HandTotal -= p.Chips
			}
			t.credit(p, p.Chips, "cash_out")
			t.removeSeat(i)
			t.playerEvent(env, KindEvent, "leave", p, "%s left the table", p.Name)
		case p.PendingSitOut:
			if p.InHand {
				t.HandTotal -= p.Chips
			}
			t.credit(p, p.Chips, "sit_out")
			t.removeSeat(i)
			t.Railbirds = append(t.Railbirds, &Railbird{UID: p.UID, Name: p.Name, JoinedAt: env.Now})
			t.playerEvent(env, KindEvent, "sit_out", p, "%s is sitting out", p.Name)
		case p.InHand && p.Chips == 0:
			p.Status = StatusSittingOut
		}
	}
}

// StartNextHand clears a finished hand and deals the next one when at least
// two seats are ready. The creator or any seated player may call it.
func (t *Table) StartNextHand(env Env, uid string) error {
	if uid != t.CreatedBy && t.SeatOf(uid) < 0 {
		return fmt.Errorf("%w: only the creator or a seated player may start a hand", ErrForbidden)
	}
	switch t.Phase {
	case PhaseShowdown:
		t.resetToIdle()
		if t.readyCount() < 2 || (t.Tournament != nil && t.Tournament.State != TournamentRunning) {
			t.LastActivity = env.Now
			return nil
		}
	case PhaseIdle:
	default:
		return fmt.Errorf("%w: hand in progress", ErrPhaseMismatch)
	}
	return t.Deal(env)
}

func (t *Table) resetToIdle() {
	t.Phase = PhaseIdle
	t.clearTurn()
	t.Deck = poker.Deck{}
	t.Community = nil
	t.Pots = nil
	t.CurrentBet = 0
	t.LastRaiseAmount = 0
	t.RaisesThisStreet = 0
	t.HandTotal = 0
	for _, p := range t.Players {
		p.Hand = nil
		p.CurrentRoundBet = 0
		p.TotalContribution = 0
		p.HasActed = false
		p.InHand = false
		p.Revealed = false
		switch {
		case p.Status == StatusEliminated:
		case p.Chips == 0:
			p.Status = StatusSittingOut
		case p.Status == StatusFolded || p.Status == StatusAllIn:
			p.Status = StatusActive
		}
	}
}

// RevealHand shows a live hand that was not already shown at showdown.
func (t *Table) RevealHand(env Env, uid string) error {
	if t.Phase != PhaseShowdown || t.LastResult == nil {
		return fmt.Errorf("%w: nothing to reveal", ErrPhaseMismatch)
	}
	p := t.Player(uid)
	if p == nil {
		return ErrPlayerNotFound
	}
	idx := -1
	for i, part := range t.LastResult.Participants {
		if part.UID == uid {
			idx = i
		}
	}
	if idx < 0 || !p.Live() {
		return fmt.Errorf("%w: no live hand to reveal", ErrIllegalAction)
	}
	part := &t.LastResult.Participants[idx]
	if part.Showed || p.Revealed {
		return nil
	}
	p.Revealed = true
	part.Showed = true
	t.playerEvent(env, KindEvent, "reveal", p, "%s shows %s", p.Name, poker.FormatCards(p.Hand))
	t.LastActivity = env.Now
	return nil
}
