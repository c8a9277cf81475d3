// Package bot implements the house bot policies. A policy is a pure function
// of what the bot can see: the redacted table view and its own hole cards.
package bot

import (
	"fmt"
	"math/rand/v2"

	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/poker"
)

// Decision is a bot's choice for its turn. In a draw phase only Discards is
// used; otherwise Action and Amount are passed to Table.Act.
type Decision struct {
	Action    game.ActionType
	Amount    int
	Discards  []int
	Reasoning string
	Memo      game.BotMemo
}

// Situation is everything a policy may look at.
type Situation struct {
	Game       poker.GameType
	Betting    game.BettingType
	Phase      game.Phase
	HandNumber int

	Hand  []poker.Card
	Board []poker.Card

	Legal      []game.LegalAction
	Pot        int
	ToCall     int
	Stack      int
	CurrentBet int
	MyBet      int
	BigBlind   int

	// Late is true on the button and the seat before it.
	Late      bool
	Opponents int
	// OpponentDraws holds how many cards each live opponent took on the last
	// draw, -1 when they have not drawn yet.
	OpponentDraws []int
	DrawsLeft     int

	Memo game.BotMemo
}

// Policy chooses an action or a draw.
type Policy interface {
	Decide(s *Situation, rng *rand.Rand) Decision
}

// For returns the policy for a difficulty and game. Hard lowball bots use the
// draw equity policy; hard Hold'em bots use Monte Carlo equity.
func For(d game.Difficulty, g poker.GameType) Policy {
	switch {
	case d == game.DifficultyEasy:
		return EasyBot{}
	case d == game.DifficultyMedium:
		return MediumBot{}
	case g == poker.Holdem:
		return HoldemBot{Samples: DefaultSamples}
	default:
		return DrawBot{}
	}
}

// drawsLeft counts the draw phases still to come, including the current one.
func drawsLeft(g poker.GameType, phase game.Phase) int {
	if g == poker.Holdem {
		return 0
	}
	order := []game.Phase{game.PhaseBetting1, game.PhaseDraw1, game.PhaseBetting2,
		game.PhaseDraw2, game.PhaseBetting3, game.PhaseDraw3, game.PhaseBetting4}
	total := 3
	if g == poker.SingleDraw {
		total = 1
	}
	passed := 0
	for _, p := range order {
		if p == phase {
			break
		}
		if p.IsDraw() {
			passed++
		}
	}
	return max(total-passed, 0)
}

// NewSituation builds the situation for the viewer of v. The memo is reset
// when it belongs to an earlier hand.
func NewSituation(v *game.View, memo *game.BotMemo) (*Situation, error) {
	if v.ViewerSeat < 0 {
		return nil, fmt.Errorf("%w: %s is not seated", game.ErrPlayerNotFound, v.Viewer)
	}
	me := v.Players[v.ViewerSeat]
	s := &Situation{
		Game:       v.Config.GameType,
		Betting:    v.Config.BettingType,
		Phase:      v.Phase,
		HandNumber: v.HandNumber,
		Hand:       me.Hand,
		Board:      v.Community,
		Legal:      v.LegalActions,
		Pot:        v.Pot,
		ToCall:     max(v.CurrentBet-me.CurrentRoundBet, 0),
		Stack:      me.Chips,
		CurrentBet: v.CurrentBet,
		MyBet:      me.CurrentRoundBet,
		BigBlind:   v.MinBet,
		DrawsLeft:  drawsLeft(v.Config.GameType, v.Phase),
	}
	if memo != nil && memo.HandNumber == v.HandNumber {
		s.Memo = *memo
	} else {
		s.Memo = game.BotMemo{HandNumber: v.HandNumber}
	}

	n := len(v.Players)
	live := 0
	for i, p := range v.Players {
		if !p.InHand || (p.Status != game.StatusActive && p.Status != game.StatusAllIn) {
			continue
		}
		live++
		if i != v.ViewerSeat {
			s.Opponents++
			s.OpponentDraws = append(s.OpponentDraws, p.LastDiscard)
		}
	}
	// Live seats between us and the button, which acts last after the first street.
	behind := 0
	for i := v.ViewerSeat; i != v.DealerSeat && v.DealerSeat >= 0 && v.DealerSeat < n; {
		i = (i + 1) % n
		if p := v.Players[i]; p.InHand && (p.Status == game.StatusActive || p.Status == game.StatusAllIn) {
			behind++
		}
	}
	s.Late = behind == 0 || (behind == 1 && live > 2)
	return s, nil
}

func (s *Situation) legal(t game.ActionType) (game.LegalAction, bool) {
	for _, a := range s.Legal {
		if a.Type == t {
			return a, true
		}
	}
	return game.LegalAction{}, false
}

func (s *Situation) can(t game.ActionType) bool {
	_, ok := s.legal(t)
	return ok
}

// potOdds is the share of the final pot the call would be.
func (s *Situation) potOdds() float64 {
	if s.ToCall == 0 {
		return 0
	}
	return float64(s.ToCall) / float64(s.Pot+s.ToCall)
}

func (s *Situation) decide(action game.ActionType, amount int, why string) Decision {
	return Decision{Action: action, Amount: amount, Reasoning: why, Memo: s.Memo}
}

// passive checks when free and folds otherwise.
func (s *Situation) passive(why string) Decision {
	if s.can(game.ActionCheck) {
		return s.decide(game.ActionCheck, 0, why)
	}
	return s.decide(game.ActionFold, 0, why)
}

// callOrCheck calls, or checks when there is nothing to call.
func (s *Situation) callOrCheck(why string) Decision {
	if s.can(game.ActionCheck) {
		return s.decide(game.ActionCheck, 0, why)
	}
	if s.can(game.ActionCall) {
		return s.decide(game.ActionCall, 0, why)
	}
	if s.can(game.ActionAllIn) {
		return s.decide(game.ActionAllIn, 0, why)
	}
	return s.decide(game.ActionFold, 0, why)
}

// betTo bets or raises to a street total of target, clamped to what is legal.
// It falls back to calling when neither is allowed.
func (s *Situation) betTo(target int, why string) Decision {
	for _, t := range []game.ActionType{game.ActionBet, game.ActionRaise} {
		if a, ok := s.legal(t); ok {
			return s.decide(t, min(max(target, a.Min), a.Max), why)
		}
	}
	if a, ok := s.legal(game.ActionAllIn); ok && a.Max > s.CurrentBet {
		return s.decide(game.ActionAllIn, 0, why)
	}
	return s.callOrCheck(why)
}

// potSizedTo is the street total for a bet of frac times the pot after calling.
func (s *Situation) potSizedTo(frac float64) int {
	return s.CurrentBet + int(float64(s.Pot+s.ToCall)*frac)
}

// Fallback is used when a policy cannot decide: stand pat or check, else fold.
func Fallback(s *Situation) Decision {
	if s.Phase.IsDraw() {
		return Decision{Reasoning: "fallback stand pat", Memo: s.Memo}
	}
	return s.passive("fallback")
}
