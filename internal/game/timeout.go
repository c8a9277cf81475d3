package game

import (
	"fmt"
	"time"
)

// TimeoutKey identifies one pending turn. A timeout request only applies if
// the table still carries the same key when it is processed.
type TimeoutKey struct {
	Phase      Phase     `json:"phase"`
	ActiveSeat int       `json:"activeSeat"`
	Deadline   time.Time `json:"turnDeadline"`
}

// TimeoutKey returns the key of the turn in progress.
func (t *Table) TimeoutKey() TimeoutKey {
	return TimeoutKey{Phase: t.Phase, ActiveSeat: t.ActiveSeat, Deadline: t.TurnDeadline}
}

// TimeoutDue reports whether the active seat's deadline has passed.
func (t *Table) TimeoutDue(now time.Time) bool {
	return t.Phase.InHand() && t.ActiveSeat >= 0 &&
		!t.TurnDeadline.IsZero() && now.After(t.TurnDeadline)
}

// ApplyTimeout performs the active seat's default action: stand pat in a
// draw, otherwise check when free and fold when not. It returns ErrNotDue
// when nothing has expired, which makes repeated requests no-ops.
func (t *Table) ApplyTimeout(env Env) error {
	if !t.TimeoutDue(env.Now) {
		return ErrNotDue
	}
	seat := t.ActiveSeat
	p := t.Players[seat]
	t.playerEvent(env, KindEvent, "timeout", p, "%s timed out", p.Name)
	t.LastActivity = env.Now

	if t.Phase.IsDraw() {
		p.HasActed = true
		p.LastDiscard = 0
		t.record(env, seat, LogDraw, 0).Timeout = true
		t.playerEvent(env, KindAction, "draw", p, "%s stands pat", p.Name)
		t.advanceDraw(env)
		return nil
	}

	action := ActionFold
	if _, ok := findLegal(t.LegalActions(seat), ActionCheck); ok {
		action = ActionCheck
	}
	if err := t.applyAction(env, seat, action, 0); err != nil {
		return fmt.Errorf("timeout %s: %w", action, err)
	}
	t.HandLog[len(t.HandLog)-1].Timeout = true
	t.advanceAfterAction(env)
	return nil
}
