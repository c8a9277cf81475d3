package poker

import "fmt"

// EvaluateLowball ranks exactly five cards under 2-7 rules: aces are high
// only, straights and flushes count against the hand, and the best possible
// hand is 7-5-4-3-2 offsuit.
func EvaluateLowball(cards []Card, game GameType) (HandValue, error) {
	if len(cards) != 5 {
		return HandValue{}, fmt.Errorf("%w: lowball needs 5 cards, got %d", ErrInvalidHand, len(cards))
	}
	if err := checkDistinct(cards); err != nil {
		return HandValue{}, err
	}
	if !game.IsLowball() {
		game = TripleDraw
	}
	t, ranks := classify(cards, false)
	return HandValue{
		Game:  game,
		Type:  t,
		Ranks: ranks,
		Cards: append([]Card(nil), cards...),
	}, nil
}

// IsCleanLow reports whether five cards make a no-pair, no-straight,
// no-flush hand whose top card is at most maxHigh (face value).
func IsCleanLow(cards []Card, maxHigh int) bool {
	v, err := EvaluateLowball(cards, SingleDraw)
	if err != nil || v.Type != HighCard {
		return false
	}
	return v.Ranks[0] <= maxHigh
}
