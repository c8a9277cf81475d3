package bot

import (
	"math/rand/v2"
	"slices"

	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/poker"
)

// MediumBot plays its made hand straightforwardly: it never bluffs or snows,
// bets half the pot with strong hands and calls cheap bets with fair ones.
type MediumBot struct{}

// Decide implements Policy.
func (MediumBot) Decide(s *Situation, rng *rand.Rand) Decision {
	if s.Phase.IsDraw() {
		discards := pairDiscards(s.Hand)
		for i, c := range s.Hand {
			if c.Value() > 8 && !slices.Contains(discards, i) {
				discards = append(discards, i)
			}
		}
		slices.Sort(discards)
		return Decision{Discards: discards, Reasoning: "medium: keep eight or better", Memo: s.Memo}
	}

	st := mediumStrength(s) + rng.IntN(11) - 5
	switch {
	case st >= 80:
		return s.betTo(s.potSizedTo(0.5), "medium: strong hand")
	case st >= 50:
		if s.can(game.ActionCheck) || float64(s.ToCall) <= 0.3*float64(s.Pot) {
			return s.callOrCheck("medium: fair hand")
		}
		return s.decide(game.ActionFold, 0, "medium: too expensive")
	default:
		return s.passive("medium: weak hand")
	}
}

func mediumStrength(s *Situation) int {
	if s.Game == poker.Holdem {
		if len(s.Board) == 0 {
			return poker.PreflopStrength(poker.CategorizeHoleCards(s.Hand))
		}
		v, err := poker.EvaluateHoldem(append(slices.Clone(s.Hand), s.Board...))
		if err != nil {
			return 0
		}
		switch {
		case v.Type >= poker.Straight:
			return 90
		case v.Type == poker.ThreeOfAKind:
			return 80
		case v.Type == poker.TwoPair:
			return 70
		case v.Type == poker.Pair:
			return 50
		}
		return 25
	}

	r := readLowball(s.Hand)
	switch {
	case r.pat:
		return patStrength(r)
	case s.DrawsLeft > 0:
		return 45 - 5*len(pairDiscards(s.Hand))
	}
	return 10
}
