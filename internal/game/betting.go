package game

import (
	"fmt"
	"time"
)

// LegalAction is one action the active seat may take. Min and Max are the
// street total ("raise to") the seat would have committed afterwards.
type LegalAction struct {
	Type ActionType `json:"type"`
	Min  int        `json:"min,omitempty"`
	Max  int        `json:"max,omitempty"`
}

// ActionRecord is one entry of the hand's action log.
type ActionRecord struct {
	Phase    Phase     `json:"phase"`
	Seat     int       `json:"seat"`
	UID      string    `json:"uid"`
	Action   string    `json:"action"`
	Amount   int       `json:"amount,omitempty"`
	Discards int       `json:"discards,omitempty"`
	Timeout  bool      `json:"timeout,omitempty"`
	At       time.Time `json:"at"`
}

func (t *Table) record(env Env, seat int, action string, amount int) *ActionRecord {
	t.HandLog = append(t.HandLog, ActionRecord{
		Phase:  t.Phase,
		Seat:   seat,
		UID:    t.Players[seat].UID,
		Action: action,
		Amount: amount,
		At:     env.Now,
	})
	return &t.HandLog[len(t.HandLog)-1]
}

// needsToAct reports whether p still owes a decision this street.
func (t *Table) needsToAct(p *Player) bool {
	return p.CanAct() && (!p.HasActed || p.CurrentRoundBet < t.CurrentBet)
}

// potLimitMax is the largest street total allowed under pot-limit: the
// current bet plus the pot after calling.
func (t *Table) potLimitMax(p *Player) int {
	toCall := t.CurrentBet - p.CurrentRoundBet
	return t.CurrentBet + t.PotTotal() + toCall
}

func (t *Table) raiseCapped() bool {
	return t.Config.BettingType == FixedLimit &&
		t.Config.MaxRaisesPerStreet > 0 &&
		t.RaisesThisStreet >= t.Config.MaxRaisesPerStreet
}

// LegalActions returns the actions available to the seat right now. It is
// empty unless the seat is the active seat of a betting phase.
func (t *Table) LegalActions(seat int) []LegalAction {
	if !t.Phase.IsBetting() || seat != t.ActiveSeat || seat < 0 || seat >= len(t.Players) {
		return nil
	}
	p := t.Players[seat]
	if !p.CanAct() {
		return nil
	}

	stack := p.CurrentRoundBet + p.Chips
	toCall := t.CurrentBet - p.CurrentRoundBet
	capped := t.raiseCapped()

	actions := []LegalAction{{Type: ActionFold}}
	if toCall <= 0 {
		actions = append(actions, LegalAction{Type: ActionCheck})
	} else {
		total := p.CurrentRoundBet + min(toCall, p.Chips)
		actions = append(actions, LegalAction{Type: ActionCall, Min: total, Max: total})
	}

	maxTotal := stack
	switch t.Config.BettingType {
	case PotLimit:
		maxTotal = min(stack, t.potLimitMax(p))
	case FixedLimit:
		maxTotal = min(stack, t.CurrentBet+t.MinBet)
	}

	if !capped {
		if t.CurrentBet == 0 {
			if minTotal := t.MinBet; stack >= minTotal {
				if t.Config.BettingType == FixedLimit {
					actions = append(actions, LegalAction{Type: ActionBet, Min: minTotal, Max: minTotal})
				} else {
					actions = append(actions, LegalAction{Type: ActionBet, Min: minTotal, Max: max(minTotal, maxTotal)})
				}
			}
		} else if minTotal := t.CurrentBet + max(t.MinBet, t.LastRaiseAmount); stack > t.CurrentBet {
			if t.Config.BettingType == FixedLimit {
				minTotal = t.CurrentBet + t.MinBet
				if stack >= minTotal {
					actions = append(actions, LegalAction{Type: ActionRaise, Min: minTotal, Max: minTotal})
				}
			} else if stack >= minTotal && maxTotal >= minTotal {
				actions = append(actions, LegalAction{Type: ActionRaise, Min: minTotal, Max: maxTotal})
			}
		}
	}

	// Shoving is always allowed when it fits the structure's ceiling.
	ceiling := maxTotal
	if capped {
		ceiling = t.CurrentBet
	}
	if p.Chips > 0 && (stack <= ceiling || stack <= t.CurrentBet) {
		actions = append(actions, LegalAction{Type: ActionAllIn, Min: stack, Max: stack})
	}
	return actions
}

func findLegal(actions []LegalAction, typ ActionType) (LegalAction, bool) {
	for _, a := range actions {
		if a.Type == typ {
			return a, true
		}
	}
	return LegalAction{}, false
}

// Act applies a betting action by uid. For BET and RAISE amount is the street
// total to bet to; it is ignored for the other actions.
func (t *Table) Act(env Env, uid string, action ActionType, amount int) error {
	if !t.Phase.IsBetting() {
		return fmt.Errorf("%w: %s is not a betting phase", ErrPhaseMismatch, t.Phase)
	}
	seat := t.SeatOf(uid)
	if seat < 0 {
		return ErrPlayerNotFound
	}
	if seat != t.ActiveSeat {
		return ErrNotYourTurn
	}
	if err := t.applyAction(env, seat, action, amount); err != nil {
		return err
	}
	t.LastActivity = env.Now
	t.advanceAfterAction(env)
	return nil
}

func (t *Table) applyAction(env Env, seat int, action ActionType, amount int) error {
	p := t.Players[seat]
	legal, ok := findLegal(t.LegalActions(seat), action)
	if !ok {
		return fmt.Errorf("%w: %s not allowed", ErrIllegalAction, action)
	}

	target := p.CurrentRoundBet
	switch action {
	case ActionFold:
		p.Status = StatusFolded
		p.HasActed = true
		t.record(env, seat, string(action), 0)
		t.playerEvent(env, KindAction, "fold", p, "%s folds", p.Name)
		t.rebuildPots()
		return nil
	case ActionCheck:
		p.HasActed = true
		t.record(env, seat, string(action), 0)
		t.playerEvent(env, KindAction, "check", p, "%s checks", p.Name)
		return nil
	case ActionCall, ActionAllIn:
		target = legal.Max
	case ActionBet, ActionRaise:
		if amount < legal.Min || amount > legal.Max {
			return fmt.Errorf("%w: %s to %d outside %d-%d", ErrIllegalAction, action, amount, legal.Min, legal.Max)
		}
		target = amount
	}

	p.commit(target - p.CurrentRoundBet)
	p.HasActed = true
	if p.CurrentRoundBet > t.CurrentBet {
		t.LastRaiseAmount = p.CurrentRoundBet - t.CurrentBet
		t.CurrentBet = p.CurrentRoundBet
		t.RaisesThisStreet++
		for i, other := range t.Players {
			if i != seat && other.CanAct() {
				other.HasActed = false
			}
		}
	}
	t.record(env, seat, string(action), p.CurrentRoundBet)
	t.playerEvent(env, KindAction, string(action), p, "%s %s %d", p.Name, verb(action), p.CurrentRoundBet)
	return nil
}

func verb(a ActionType) string {
	switch a {
	case ActionCall:
		return "calls to"
	case ActionBet:
		return "bets"
	case ActionRaise:
		return "raises to"
	case ActionAllIn:
		return "is all-in for"
	}
	return string(a)
}

func (t *Table) roundComplete() bool {
	for _, p := range t.Players {
		if !p.Live() || p.Status == StatusAllIn {
			continue
		}
		if !p.HasActed || p.CurrentRoundBet != t.CurrentBet {
			return false
		}
	}
	return true
}

// advanceAfterAction ends the hand, ends the street or passes the turn.
func (t *Table) advanceAfterAction(env Env) {
	if t.count((*Player).Live) == 1 {
		t.finishUncontested(env)
		return
	}
	if t.roundComplete() {
		t.endStreet(env)
		return
	}
	next := t.nextSeat(t.ActiveSeat, t.needsToAct)
	if next < 0 {
		t.endStreet(env)
		return
	}
	t.ActiveSeat = next
	t.setDeadline(env)
}

// endStreet freezes the street's bets into pots and moves to the next phase.
func (t *Table) endStreet(env Env) {
	for _, p := range t.Players {
		p.CurrentRoundBet = 0
		p.HasActed = false
	}
	t.CurrentBet = 0
	t.LastRaiseAmount = 0
	t.RaisesThisStreet = 0
	t.rebuildPots()
	t.advancePhase(env)
}
