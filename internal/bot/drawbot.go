package bot

import (
	"fmt"
	"math/rand/v2"

	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/poker"
)

// Snow frequencies by position.
const (
	snowEarly = 0.08
	snowLate  = 0.15
	bluffRate = 0.08
)

// DrawBot plays 2-7 lowball from draw equity: the discard decision weighs
// the smoothness of the kept cards against the chance of making a low, and
// bets are sized from a single strength score.
type DrawBot struct{}

// Decide implements Policy.
func (b DrawBot) Decide(s *Situation, rng *rand.Rand) Decision {
	if len(s.Hand) != 5 {
		return Fallback(s)
	}
	if s.Phase.IsDraw() {
		return b.discard(s, rng)
	}
	return b.bet(s, rng)
}

// plan is a chosen discard with the reasoning behind it.
type plan struct {
	discards []int
	snow     bool
	why      string
}

func (b DrawBot) discard(s *Situation, rng *rand.Rand) Decision {
	p := planDiscard(s.Hand, s.Late, rng)
	memo := s.Memo
	if p.snow {
		memo.Snowing = true
	}
	return Decision{Discards: p.discards, Reasoning: p.why, Memo: memo}
}

// planDiscard picks the cards to throw from a five-card lowball hand.
func planDiscard(hand []poker.Card, late bool, rng *rand.Rand) plan {
	r := readLowball(hand)

	snowRate := snowEarly
	if late {
		snowRate = snowLate
	}
	if (!r.pat || r.high >= 12) && rng.Float64() < snowRate {
		return plan{snow: true, why: "snow"}
	}
	return bestDiscard(hand, late)
}

// bestDiscard is the discard plan without snowing.
func bestDiscard(hand []poker.Card, late bool) plan {
	r := readLowball(hand)
	if r.pat {
		top := topIndex(hand)
		kept := without(hand, top)
		switch {
		case r.high <= 9:
			return plan{why: fmt.Sprintf("pat %d", r.high)}
		case r.high == 10:
			sm := smoothness(kept)
			eq := oneCardEquity(kept, hand, 9)
			if (sm <= 7 && eq > 0.45) || (sm <= 8 && eq > 0.35 && late) {
				return plan{discards: []int{top}, why: fmt.Sprintf("break ten, smoothness %d equity %.2f", sm, eq)}
			}
			return plan{why: "pat ten"}
		case r.high == 11:
			low := true
			for _, c := range kept {
				if c.Value() > 8 {
					low = false
				}
			}
			if eq := oneCardEquity(kept, hand, 10); low || eq > 0.25 {
				return plan{discards: []int{top}, why: fmt.Sprintf("break jack, equity %.2f", eq)}
			}
			return plan{why: "pat jack"}
		default:
			return plan{discards: []int{top}, why: "break top card"}
		}
	}

	// Rough hands: the best single discard that leaves no pair.
	best, bestScore := -1, 0.0
	for i := range hand {
		kept := without(hand, i)
		if hasPair(kept) {
			continue
		}
		score := oneCardEquity(kept, hand, 9)*100 - float64(smoothness(kept))
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return plan{discards: []int{best}, why: fmt.Sprintf("draw one, score %.1f", bestScore)}
	}
	d := pairDiscards(hand)
	return plan{discards: d, why: fmt.Sprintf("break pairs, draw %d", len(d))}
}

// patStrength maps a made low onto the strength scale.
func patStrength(r lowballRead) int {
	var base int
	switch {
	case r.high <= 7:
		base = 95
	case r.high == 8:
		base = 85
	case r.high == 9:
		base = 72
	case r.high == 10:
		base = 58
	case r.high == 11:
		base = 45
	default:
		base = 35
	}
	switch {
	case r.second <= 6:
		base += 3
	case r.second >= r.high-1:
		base -= 3
	}
	return min(base, 100)
}

// strength scores the hand for betting. Before the last draw it scores the
// draw the bot intends to make; afterwards the made hand, adjusted by what
// the opponents drew.
func (s *Situation) drawStrength(rng *rand.Rand) int {
	r := readLowball(s.Hand)
	if s.DrawsLeft == 0 {
		if !r.pat {
			return 10
		}
		st := patStrength(r)
		weak, pat := 0, 0
		for _, d := range s.OpponentDraws {
			switch {
			case d >= 2:
				weak++
			case d == 0:
				pat++
			}
		}
		if len(s.OpponentDraws) > 0 && weak == len(s.OpponentDraws) {
			st += 10
		}
		if len(s.OpponentDraws) > 0 && pat == len(s.OpponentDraws) {
			st -= 10
		}
		return min(max(st, 0), 100)
	}

	if r.pat && r.high <= 11 {
		return patStrength(r)
	}
	p := bestDiscard(s.Hand, s.Late)
	switch len(p.discards) {
	case 1:
	case 2:
		eq := twoCardEquity(without(s.Hand, p.discards...), s.Hand, 9, rng)
		return 15 + int(10*eq+0.5)
	default:
		return 15 + rng.IntN(11)
	}
	kept := without(s.Hand, p.discards[0])
	top := values(kept)[0]
	switch {
	case top <= 7:
		st := 60 + int(30*oneCardEquity(kept, s.Hand, 7))
		if smoothness(kept) <= 7 {
			st += 5
		}
		return st
	case top == 8:
		return 50 + int(25*oneCardEquity(kept, s.Hand, 8))
	case top == 9:
		return 40 + rng.IntN(11)
	}
	return 15 + rng.IntN(11)
}

func (b DrawBot) bet(s *Situation, rng *rand.Rand) Decision {
	if s.Memo.Snowing {
		return s.snowBet(rng)
	}
	st := s.drawStrength(rng)
	return s.betByStrength(st, rng)
}

func (s *Situation) snowBet(rng *rand.Rand) Decision {
	if s.can(game.ActionCheck) {
		return s.betTo(s.potSizedTo(2.0/3), "snow bet")
	}
	if float64(s.ToCall) >= float64(s.Pot)/3 {
		if rng.Float64() < 0.25 {
			return s.betTo(s.potSizedTo(1), "snow re-raise")
		}
		return s.decide(game.ActionFold, 0, "snow gives up")
	}
	return s.callOrCheck("snow calls a small bet")
}

// betByStrength applies the shared thresholds for a 0-100 strength.
func (s *Situation) betByStrength(st int, rng *rand.Rand) Decision {
	odds := s.potOdds()
	why := func(msg string) string { return fmt.Sprintf("%s (strength %d)", msg, st) }
	switch {
	case st >= 85:
		frac := 0.7 + 0.3*rng.Float64()
		return s.betTo(s.potSizedTo(frac), why("value"))
	case st >= 65:
		if s.can(game.ActionCheck) {
			return s.betTo(s.potSizedTo(0.5), why("half pot"))
		}
		if float64(s.ToCall) <= 0.4*float64(s.Pot) {
			return s.callOrCheck(why("call"))
		}
		return s.decide(game.ActionFold, 0, why("too expensive"))
	case st >= 45:
		if s.can(game.ActionCheck) {
			return s.decide(game.ActionCheck, 0, why("check"))
		}
		if float64(st) > 100*odds+10 || float64(s.ToCall) <= 0.15*float64(s.Stack) {
			return s.callOrCheck(why("priced in"))
		}
		return s.decide(game.ActionFold, 0, why("fold"))
	default:
		if s.can(game.ActionCheck) {
			if !s.Late && rng.Float64() < bluffRate {
				return s.betTo(s.potSizedTo(0.5), why("bluff"))
			}
			return s.decide(game.ActionCheck, 0, why("check"))
		}
		return s.decide(game.ActionFold, 0, why("fold"))
	}
}
