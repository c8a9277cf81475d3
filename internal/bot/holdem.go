package bot

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"slices"

	hpoker "github.com/paulhankin/poker"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokertable/poker"
)

// DefaultSamples is the Monte Carlo sample count for a Hold'em decision.
const DefaultSamples = 600

// evalCards maps a card index onto the seven-card evaluator's encoding.
var evalCards = func() (out [52]hpoker.Card) {
	suits := [4]hpoker.Suit{hpoker.Club, hpoker.Diamond, hpoker.Heart, hpoker.Spade}
	for suit := range 4 {
		for rank := range 13 {
			c := poker.NewCard(uint8(rank), uint8(suit))
			r := hpoker.Rank(c.Value())
			if c.Rank() == poker.Ace {
				r = 1 // the library counts the ace as rank 1
			}
			ec, err := hpoker.MakeCard(suits[suit], r)
			if err != nil {
				panic(fmt.Sprintf("bot: map %s: %v", c, err))
			}
			out[c.Index()] = ec
		}
	}
	return out
}()

// HoldemBot plays Hold'em from preflop hand categories and, after the flop,
// Monte Carlo equity against random hands.
type HoldemBot struct {
	Samples int
}

// Decide implements Policy.
func (b HoldemBot) Decide(s *Situation, rng *rand.Rand) Decision {
	if len(s.Hand) != 2 || s.Phase.IsDraw() {
		return Fallback(s)
	}
	var st int
	if len(s.Board) == 0 {
		st = poker.PreflopStrength(poker.CategorizeHoleCards(s.Hand))
		if s.Late {
			st += 5
		}
	} else {
		opponents := max(s.Opponents, 1)
		eq, err := Equity(context.Background(), s.Hand, s.Board, opponents, b.Samples, rng)
		if err != nil {
			return Fallback(s)
		}
		// 50 is a fair share of the pot against this many opponents.
		st = min(int(eq*float64(opponents+1)*50), 100)
	}
	return s.betByStrength(st, rng)
}

// Equity estimates the share of the pot hole wins against the given number
// of random hands, running the samples across parallel workers.
func Equity(ctx context.Context, hole, board []poker.Card, opponents, samples int, rng *rand.Rand) (float64, error) {
	if len(hole) != 2 || len(board) > 5 || opponents < 1 || samples < 1 {
		return 0, fmt.Errorf("equity: %d hole cards, %d board cards, %d opponents", len(hole), len(board), opponents)
	}
	unseen := poker.Remaining(hole, board)
	need := 5 - len(board) + 2*opponents
	if need > len(unseen) {
		return 0, fmt.Errorf("equity: %d opponents need more cards than remain", opponents)
	}

	workers := min(runtime.NumCPU(), 8)
	if samples < 200 {
		workers = 1
	}
	shares := make([]float64, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		n := samples / workers
		if w < samples%workers {
			n++
		}
		seed1, seed2 := rng.Uint64(), rng.Uint64()
		g.Go(func() error {
			wr := rand.New(rand.NewPCG(seed1, seed2))
			deck := slices.Clone(unseen)
			var hand [7]hpoker.Card
			for i, c := range board {
				hand[i] = evalCards[c.Index()]
			}
			for i := range n {
				if i%64 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				for k := range need {
					j := k + wr.IntN(len(deck)-k)
					deck[k], deck[j] = deck[j], deck[k]
				}
				for k, c := range deck[:5-len(board)] {
					hand[len(board)+k] = evalCards[c.Index()]
				}
				rest := deck[5-len(board) : need]

				hand[5], hand[6] = evalCards[hole[0].Index()], evalCards[hole[1].Index()]
				hero := hpoker.Eval7(&hand)
				best, ties := int16(-1<<15), 0
				for o := range opponents {
					hand[5], hand[6] = evalCards[rest[2*o].Index()], evalCards[rest[2*o+1].Index()]
					switch v := hpoker.Eval7(&hand); {
					case v > best:
						best, ties = v, 0
						if v == hero {
							ties = 1
						}
					case v == best && v == hero:
						ties++
					}
				}
				switch {
				case hero > best:
					shares[w]++
				case hero == best:
					shares[w] += 1 / float64(ties+1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	total := 0.0
	for _, s := range shares {
		total += s
	}
	return total / float64(samples), nil
}
