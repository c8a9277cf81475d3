package game

import (
	"fmt"
)

// Join seats uid when the table is between hands and has room, otherwise
// adds them as a railbird. Joining again is a no-op. It reports whether uid
// holds a seat afterwards.
func (t *Table) Join(env Env, uid, name string) (bool, error) {
	name, err := ValidateName(name)
	if err != nil {
		return false, err
	}
	if t.SeatOf(uid) >= 0 {
		return true, nil
	}
	if t.railbirdIndex(uid) >= 0 {
		return false, nil
	}
	t.LastActivity = env.Now
	if t.canSeat() {
		p := &Player{
			UID:         uid,
			Name:        name,
			Status:      StatusSittingOut,
			LastDiscard: -1,
			JoinedAt:    env.Now,
		}
		t.Players = append(t.Players, p)
		t.playerEvent(env, KindEvent, "join", p, "%s sat down", name)
		return true, nil
	}
	t.Railbirds = append(t.Railbirds, &Railbird{UID: uid, Name: name, JoinedAt: env.Now})
	t.appendActivity(ActivityEntry{
		Kind: KindEvent, EventType: "railbird", Text: name + " is watching",
		PlayerUID: uid, PlayerName: name, Timestamp: env.Now,
	})
	return false, nil
}

func (t *Table) canSeat() bool {
	if len(t.Players) >= t.Config.MaxPlayers {
		return false
	}
	if t.Tournament != nil {
		return t.Tournament.State == TournamentRegistering
	}
	return t.betweenHands()
}

// betweenHands reports whether seats may change. A settled showdown counts:
// StartNextHand moves straight from SHOWDOWN to the next deal.
func (t *Table) betweenHands() bool {
	return t.Phase == PhaseIdle || t.Phase == PhaseShowdown
}

// JoinAsPlayer promotes a railbird to a seat. Only legal between hands with a free seat.
func (t *Table) JoinAsPlayer(env Env, uid string) error {
	ri := t.railbirdIndex(uid)
	if ri < 0 {
		return ErrRailbirdNotFound
	}
	if !t.betweenHands() {
		return fmt.Errorf("%w: seats open between hands", ErrPhaseMismatch)
	}
	if t.Tournament != nil && t.Tournament.State != TournamentRegistering {
		return fmt.Errorf("%w: registration closed", ErrPhaseMismatch)
	}
	if len(t.Players) >= t.Config.MaxPlayers {
		return ErrTableFull
	}
	r := t.Railbirds[ri]
	t.Railbirds = append(t.Railbirds[:ri], t.Railbirds[ri+1:]...)
	p := &Player{UID: r.UID, Name: r.Name, Status: StatusSittingOut, LastDiscard: -1, JoinedAt: env.Now}
	t.Players = append(t.Players, p)
	t.playerEvent(env, KindEvent, "join", p, "%s sat down", p.Name)
	t.LastActivity = env.Now
	return nil
}

// BuyIn adds chips to a seat and returns the amount to debit from the
// player's wallet. For a Sit-and-Go, amount must equal the buy-in and
// registers the seat with the starting stack; the last registration starts
// the tournament and deals the first hand.
func (t *Table) BuyIn(env Env, uid string, amount int) (int, error) {
	p := t.Player(uid)
	if p == nil {
		return 0, ErrPlayerNotFound
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: buy-in must be positive", ErrIllegalAction)
	}
	if t.Tournament != nil {
		return t.register(env, p, amount)
	}
	if p.InHand && t.Phase.InHand() {
		return 0, fmt.Errorf("%w: cannot add chips during a hand", ErrPhaseMismatch)
	}
	if p.Chips == 0 && amount < t.Config.BuyInMin {
		return 0, fmt.Errorf("%w: minimum buy-in is %d", ErrIllegalAction, t.Config.BuyInMin)
	}
	if t.Config.BuyInMax > 0 && p.Chips+amount > t.Config.BuyInMax {
		return 0, fmt.Errorf("%w: maximum stack is %d", ErrIllegalAction, t.Config.BuyInMax)
	}
	p.Chips += amount
	if p.InHand {
		// Topping up while the last hand is still on display.
		t.HandTotal += amount
	}
	if p.Status == StatusSittingOut && !p.PendingSitOut {
		p.Status = StatusActive
	}
	t.playerEvent(env, KindEvent, "buy_in", p, "%s bought in for %d", p.Name, amount)
	t.LastActivity = env.Now
	return amount, nil
}

// CashOut removes a seat that is not in a live hand and returns the stack to
// credit back to the wallet.
func (t *Table) CashOut(env Env, uid string) (int, error) {
	seat := t.SeatOf(uid)
	if seat < 0 {
		return 0, ErrPlayerNotFound
	}
	p := t.Players[seat]
	if t.Phase.InHand() {
		// Seat indices are fixed until the hand ends.
		return 0, fmt.Errorf("%w: hand in progress", ErrPhaseMismatch)
	}
	credit := p.Chips
	if tour := t.Tournament; tour != nil {
		switch {
		case tour.State == TournamentRegistering:
			credit = 0
			if p.Chips > 0 && !p.IsBot {
				credit = t.Config.Tournament.BuyIn
				tour.PrizePool -= credit
			}
		case tour.State == TournamentCompleted || p.Status == StatusEliminated:
			// Prizes were paid at completion.
			credit = 0
		default:
			return 0, fmt.Errorf("%w: tournament in progress", ErrPhaseMismatch)
		}
	}
	if p.InHand {
		// Finished hand still on display: the chips leave the baseline too.
		t.HandTotal -= p.Chips
	}
	t.removeSeat(seat)
	t.playerEvent(env, KindEvent, "leave", p, "%s left the table", p.Name)
	t.LastActivity = env.Now
	return credit, nil
}

// Leave removes uid from the table. During a hand the seat is folded if it
// is live and cashed out when the hand ends; the returned credit is then zero.
func (t *Table) Leave(env Env, uid string) (int, error) {
	if ri := t.railbirdIndex(uid); ri >= 0 {
		t.Railbirds = append(t.Railbirds[:ri], t.Railbirds[ri+1:]...)
		t.LastActivity = env.Now
		return 0, nil
	}
	seat := t.SeatOf(uid)
	if seat < 0 {
		return 0, ErrPlayerNotFound
	}
	p := t.Players[seat]
	if !t.Phase.InHand() {
		return t.CashOut(env, uid)
	}
	if t.Tournament != nil {
		return 0, fmt.Errorf("%w: tournament in progress", ErrPhaseMismatch)
	}
	p.PendingLeave = true
	t.forceFold(env, seat)
	t.LastActivity = env.Now
	return 0, nil
}

// forceFold folds a live seat out of turn and keeps the hand moving.
func (t *Table) forceFold(env Env, seat int) {
	p := t.Players[seat]
	if !p.Live() {
		return
	}
	wasActive := seat == t.ActiveSeat
	p.Status = StatusFolded
	p.HasActed = true
	t.record(env, seat, string(ActionFold), 0)
	t.playerEvent(env, KindAction, "fold", p, "%s folds", p.Name)
	t.rebuildPots()

	switch {
	case t.count((*Player).Live) == 1:
		t.finishUncontested(env)
	case !wasActive:
	case t.Phase.IsDraw():
		t.advanceDraw(env)
	default:
		t.advanceAfterAction(env)
	}
}

// RequestSitOut moves a cash-game seat to the rail. Between hands it happens
// now and the returned stack is credited to the wallet; during a hand the
// seat is marked and demoted when the hand ends.
func (t *Table) RequestSitOut(env Env, uid string) (int, error) {
	seat := t.SeatOf(uid)
	if seat < 0 {
		return 0, ErrPlayerNotFound
	}
	if t.Tournament != nil {
		return 0, fmt.Errorf("%w: tournament seats play until eliminated", ErrIllegalAction)
	}
	p := t.Players[seat]
	t.LastActivity = env.Now
	if t.Phase.InHand() {
		p.PendingSitOut = true
		t.playerEvent(env, KindEvent, "sit_out_pending", p, "%s will sit out after this hand", p.Name)
		return 0, nil
	}
	credit, err := t.CashOut(env, uid)
	if err != nil {
		return 0, err
	}
	t.Railbirds = append(t.Railbirds, &Railbird{UID: p.UID, Name: p.Name, JoinedAt: env.Now})
	return credit, nil
}

// CancelSitOut withdraws a pending sit-out request.
func (t *Table) CancelSitOut(env Env, uid string) error {
	p := t.Player(uid)
	if p == nil {
		return ErrPlayerNotFound
	}
	if !p.PendingSitOut {
		return fmt.Errorf("%w: no sit-out pending", ErrIllegalAction)
	}
	p.PendingSitOut = false
	t.playerEvent(env, KindEvent, "sit_out_cancelled", p, "%s will stay in", p.Name)
	t.LastActivity = env.Now
	return nil
}

// AddBot seats a house-funded bot. Only the creator may add bots, and only
// between hands.
func (t *Table) AddBot(env Env, caller, uid, name string, difficulty Difficulty) error {
	if caller != t.CreatedBy {
		return fmt.Errorf("%w: only the table creator can add bots", ErrForbidden)
	}
	if !difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrIllegalAction, difficulty)
	}
	if !t.betweenHands() {
		return fmt.Errorf("%w: bots join between hands", ErrPhaseMismatch)
	}
	if !t.canSeat() {
		return ErrTableFull
	}
	name, err := ValidateName(name)
	if err != nil {
		return err
	}
	p := &Player{
		UID:         uid,
		Name:        name,
		Status:      StatusActive,
		IsBot:       true,
		Difficulty:  difficulty,
		LastDiscard: -1,
		JoinedAt:    env.Now,
	}
	t.Players = append(t.Players, p)
	t.playerEvent(env, KindEvent, "bot_join", p, "%s (%s bot) sat down", name, difficulty)
	t.LastActivity = env.Now
	if t.Tournament != nil {
		p.Chips = t.Config.Tournament.StartingStack
		return t.maybeStartTournament(env)
	}
	p.Chips = t.Config.BotBuyIn
	return nil
}

// KickBot removes a bot. Only the creator may kick, and only between hands.
func (t *Table) KickBot(env Env, caller, botUID string) error {
	if caller != t.CreatedBy {
		return fmt.Errorf("%w: only the table creator can kick bots", ErrForbidden)
	}
	if !t.betweenHands() {
		return fmt.Errorf("%w: bots can only be kicked between hands", ErrPhaseMismatch)
	}
	seat := t.SeatOf(botUID)
	if seat < 0 || !t.Players[seat].IsBot {
		return ErrPlayerNotFound
	}
	if t.Tournament != nil && t.Tournament.State != TournamentRegistering {
		return fmt.Errorf("%w: tournament in progress", ErrPhaseMismatch)
	}
	if t.Players[seat].InHand {
		t.HandTotal -= t.Players[seat].Chips
	}
	p := t.removeSeat(seat)
	t.playerEvent(env, KindEvent, "bot_kicked", p, "%s was removed", p.Name)
	t.LastActivity = env.Now
	return nil
}

// Teardown empties a stale table and returns what every human is owed:
// their stack plus anything committed to an unfinished hand, or their
// tournament buy-in. Bot chips are dropped.
func (t *Table) Teardown(env Env) []WalletCredit {
	var credits []WalletCredit
	if t.Tournament != nil {
		if t.Tournament.State != TournamentCompleted && t.Tournament.PrizePool > 0 {
			var humans []*Player
			for _, p := range t.Players {
				if !p.IsBot && (p.Chips > 0 || p.InHand || p.Status == StatusEliminated) {
					humans = append(humans, p)
				}
			}
			if len(humans) > 0 {
				share := t.Tournament.PrizePool / len(humans)
				extra := t.Tournament.PrizePool % len(humans)
				for i, p := range humans {
					amount := share
					if i == 0 {
						amount += extra
					}
					credits = append(credits, WalletCredit{UID: p.UID, Amount: amount, Reason: "refund"})
				}
			}
			t.Tournament.PrizePool = 0
		}
	} else {
		for _, p := range t.Players {
			owed := p.Chips
			if t.Phase.InHand() || t.Phase == PhaseCutForDealer {
				owed += p.TotalContribution
			}
			if !p.IsBot && owed > 0 {
				credits = append(credits, WalletCredit{UID: p.UID, Amount: owed, Reason: "refund"})
			}
		}
	}
	t.Players = nil
	t.Railbirds = nil
	t.Pots = nil
	t.Phase = PhaseIdle
	t.clearTurn()
	t.event(env, "teardown", "Table closed after inactivity")
	return credits
}
