package game

import (
	"math/rand/v2"
	"time"
)

// Env is the context of a single transition.
type Env struct {
	Now  time.Time
	Rand *rand.Rand
}

// Phase is the table's position in the hand cycle.
type Phase string

const (
	PhaseIdle         Phase = "IDLE"
	PhaseCutForDealer Phase = "CUT_FOR_DEALER"
	PhaseBetting1     Phase = "BETTING_1"
	PhaseBetting2     Phase = "BETTING_2"
	PhaseBetting3     Phase = "BETTING_3"
	PhaseBetting4     Phase = "BETTING_4"
	PhaseDraw1        Phase = "DRAW_1"
	PhaseDraw2        Phase = "DRAW_2"
	PhaseDraw3        Phase = "DRAW_3"
	PhasePreflop      Phase = "PREFLOP"
	PhaseFlop         Phase = "FLOP"
	PhaseTurn         Phase = "TURN"
	PhaseRiver        Phase = "RIVER"
	PhaseShowdown     Phase = "SHOWDOWN"
)

// IsBetting reports whether players bet in this phase.
func (p Phase) IsBetting() bool {
	switch p {
	case PhaseBetting1, PhaseBetting2, PhaseBetting3, PhaseBetting4,
		PhasePreflop, PhaseFlop, PhaseTurn, PhaseRiver:
		return true
	}
	return false
}

// IsDraw reports whether players exchange cards in this phase.
func (p Phase) IsDraw() bool {
	return p == PhaseDraw1 || p == PhaseDraw2 || p == PhaseDraw3
}

// InHand reports whether a seat is expected to act, i.e. the phase is non-terminal.
func (p Phase) InHand() bool {
	return p.IsBetting() || p.IsDraw()
}

// BettingType controls bet sizing.
type BettingType string

const (
	NoLimit    BettingType = "no_limit"
	PotLimit   BettingType = "pot_limit"
	FixedLimit BettingType = "fixed_limit"
)

// Valid reports whether b is a known betting structure.
func (b BettingType) Valid() bool {
	return b == NoLimit || b == PotLimit || b == FixedLimit
}

// Mode distinguishes cash tables from Sit-and-Go tournaments.
type Mode string

const (
	ModeCash       Mode = "cash"
	ModeTournament Mode = "tournament"
)

// PlayerStatus is the seat's standing in the current hand.
type PlayerStatus string

const (
	StatusActive     PlayerStatus = "active"
	StatusFolded     PlayerStatus = "folded"
	StatusAllIn      PlayerStatus = "all-in"
	StatusSittingOut PlayerStatus = "sitting_out"
	StatusEliminated PlayerStatus = "eliminated"
)

// ActionType is a betting action.
type ActionType string

const (
	ActionFold  ActionType = "FOLD"
	ActionCheck ActionType = "CHECK"
	ActionCall  ActionType = "CALL"
	ActionBet   ActionType = "BET"
	ActionRaise ActionType = "RAISE"
	ActionAllIn ActionType = "ALL_IN"
)

// Valid reports whether a is one of the six action codes.
func (a ActionType) Valid() bool {
	switch a {
	case ActionFold, ActionCheck, ActionCall, ActionBet, ActionRaise, ActionAllIn:
		return true
	}
	return false
}

// Hand log entries that are not player decisions.
const (
	LogPostAnte       = "POST_ANTE"
	LogPostSmallBlind = "POST_SB"
	LogPostBigBlind   = "POST_BB"
	LogDraw           = "DRAW"
)

// Difficulty selects a bot policy.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}
