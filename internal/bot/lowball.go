package bot

import (
	"math/rand/v2"
	"slices"

	"github.com/lox/pokertable/poker"
)

// twoCardSamples is the sample size for two-card draws from a large deck.
const twoCardSamples = 200

// values returns face values (deuce=2, ace=14) sorted high to low.
func values(cards []poker.Card) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = c.Value()
	}
	slices.Sort(out)
	slices.Reverse(out)
	return out
}

// smoothness scores a kept base: its top card, plus 2 for every pair of
// adjacent ranks and 3 when three or more cards share a suit. Lower draws better.
func smoothness(kept []poker.Card) int {
	if len(kept) == 0 {
		return 0
	}
	v := values(kept)
	score := v[0]
	for i := 1; i < len(v); i++ {
		if v[i-1]-v[i] == 1 {
			score += 2
		}
	}
	var suits [4]int
	for _, c := range kept {
		suits[c.Suit()]++
		if suits[c.Suit()] >= 3 {
			score += 3
			break
		}
	}
	return score
}

func hasPair(cards []poker.Card) bool {
	seen := 0
	for _, c := range cards {
		bit := 1 << c.Rank()
		if seen&bit != 0 {
			return true
		}
		seen |= bit
	}
	return false
}

// without returns cards minus the given indices.
func without(cards []poker.Card, idx ...int) []poker.Card {
	out := make([]poker.Card, 0, len(cards))
	for i, c := range cards {
		if !slices.Contains(idx, i) {
			out = append(out, c)
		}
	}
	return out
}

// oneCardEquity is the share of unseen cards that complete kept (four cards)
// into a clean low no worse than targetHigh.
func oneCardEquity(kept, known []poker.Card, targetHigh int) float64 {
	unseen := poker.Remaining(known)
	if len(unseen) == 0 {
		return 0
	}
	hand := make([]poker.Card, len(kept)+1)
	copy(hand, kept)
	hits := 0
	for _, c := range unseen {
		hand[len(kept)] = c
		if poker.IsCleanLow(hand, targetHigh) {
			hits++
		}
	}
	return float64(hits) / float64(len(unseen))
}

// twoCardEquity is the same for a three-card base. Small decks are
// enumerated, larger ones sampled.
func twoCardEquity(kept, known []poker.Card, targetHigh int, rng *rand.Rand) float64 {
	unseen := poker.Remaining(known)
	n := len(unseen)
	if n < 2 {
		return 0
	}
	hand := make([]poker.Card, len(kept)+2)
	copy(hand, kept)
	hit := func(a, b poker.Card) bool {
		hand[len(kept)], hand[len(kept)+1] = a, b
		return poker.IsCleanLow(hand, targetHigh)
	}

	hits, total := 0, 0
	if n <= 20 {
		for i := range n {
			for j := i + 1; j < n; j++ {
				total++
				if hit(unseen[i], unseen[j]) {
					hits++
				}
			}
		}
	} else {
		for range twoCardSamples {
			i := rng.IntN(n)
			j := rng.IntN(n - 1)
			if j >= i {
				j++
			}
			total++
			if hit(unseen[i], unseen[j]) {
				hits++
			}
		}
	}
	return float64(hits) / float64(total)
}

// lowballRead is a five-card lowball hand taken apart for decisions.
type lowballRead struct {
	pat  bool
	high int
	// second is the next highest card, used for smooth/rough adjustments.
	second int
}

func readLowball(hand []poker.Card) lowballRead {
	v, err := poker.EvaluateLowball(hand, poker.SingleDraw)
	if err != nil {
		return lowballRead{}
	}
	r := lowballRead{pat: v.Type == poker.HighCard}
	if len(v.Ranks) > 0 {
		r.high = v.Ranks[0]
	}
	if len(v.Ranks) > 1 {
		r.second = v.Ranks[1]
	}
	return r
}

// topIndex is the index of the highest card in hand.
func topIndex(hand []poker.Card) int {
	best := 0
	for i, c := range hand {
		if c.Value() > hand[best].Value() {
			best = i
		}
	}
	return best
}

// pairDiscards returns the indices that break every pair and trips: all but
// one card of each repeated rank.
func pairDiscards(hand []poker.Card) []int {
	var out []int
	seen := make(map[uint8]bool)
	for i, c := range hand {
		if seen[c.Rank()] {
			out = append(out, i)
			continue
		}
		seen[c.Rank()] = true
	}
	return out
}
