package bot

import (
	"math/rand/v2"

	"github.com/lox/pokertable/internal/game"
)

// EasyBot is a loose, passive random player. It mostly checks and calls,
// folds a quarter of the time when facing a bet and rarely raises the minimum.
type EasyBot struct{}

// Decide implements Policy.
func (EasyBot) Decide(s *Situation, rng *rand.Rand) Decision {
	if s.Phase.IsDraw() {
		var discards []int
		for i, c := range s.Hand {
			if c.Value() > 9 {
				discards = append(discards, i)
			}
		}
		return Decision{Discards: discards, Reasoning: "easy: throw high cards", Memo: s.Memo}
	}

	roll := rng.Float64()
	if s.can(game.ActionCheck) {
		if roll < 0.15 {
			return s.betTo(0, "easy: random min bet")
		}
		return s.decide(game.ActionCheck, 0, "easy: check")
	}
	switch {
	case roll < 0.25:
		return s.decide(game.ActionFold, 0, "easy: random fold")
	case roll < 0.95:
		return s.callOrCheck("easy: call")
	default:
		return s.betTo(0, "easy: random min raise")
	}
}
