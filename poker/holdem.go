package poker

import "fmt"

// EvaluateHoldem returns the best five-card high hand from five to seven
// cards by checking every five-card subset. A-2-3-4-5 is a five-high straight.
func EvaluateHoldem(cards []Card) (HandValue, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return HandValue{}, fmt.Errorf("%w: hold'em needs 5-7 cards, got %d", ErrInvalidHand, len(cards))
	}
	if err := checkDistinct(cards); err != nil {
		return HandValue{}, err
	}

	var best HandValue
	found := false
	five := make([]Card, 5)
	forEachSubset(len(cards), 5, func(idx []int) {
		for i, j := range idx {
			five[i] = cards[j]
		}
		t, ranks := classify(five, true)
		v := HandValue{Game: Holdem, Type: t, Ranks: ranks}
		if !found || Compare(v, best) > 0 {
			v.Cards = append([]Card(nil), five...)
			best = v
			found = true
		}
	})
	return best, nil
}

// forEachSubset calls fn with every k-combination of [0,n) in lexicographic order.
func forEachSubset(n, k int, fn func([]int)) {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(idx)
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
