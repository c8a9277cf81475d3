package poker

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// GameType selects the rules used to rank a hand.
type GameType string

const (
	TripleDraw GameType = "lowball_27_triple_draw"
	SingleDraw GameType = "lowball_27_single_draw"
	Holdem     GameType = "texas_holdem"
)

// IsLowball reports whether hands are ranked 2-7 low.
func (g GameType) IsLowball() bool {
	return g == TripleDraw || g == SingleDraw
}

// Valid reports whether g names a supported game.
func (g GameType) Valid() bool {
	return g.IsLowball() || g == Holdem
}

// HandCards is the number of private cards dealt per player.
func (g GameType) HandCards() int {
	if g == Holdem {
		return 2
	}
	return 5
}

// HandType enumerates the categories of poker hands ordered from weakest to strongest.
// In 2-7 lowball the order is the same but lower is better.
type HandType uint8

const (
	HighCard HandType = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns the category name.
func (t HandType) String() string {
	switch t {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// ErrInvalidHand is returned for hands with the wrong card count or duplicates.
var ErrInvalidHand = errors.New("invalid hand")

// HandValue is an evaluated hand: a category plus a tiebreak vector of face
// values (deuce=2, ace=14) in significance order.
type HandValue struct {
	Game  GameType `json:"game"`
	Type  HandType `json:"type"`
	Ranks []int    `json:"ranks"`
	Cards []Card   `json:"cards"`
}

// Key is the category followed by every tiebreak rank as fixed two-digit
// numbers. Keys of the same game order lexicographically by strength.
func (v HandValue) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%02d", int(v.Type))
	for _, r := range v.Ranks {
		fmt.Fprintf(&b, "%02d", r)
	}
	return b.String()
}

// Score packs the category and up to five ranks into one integer. For
// Hold'em higher is better, for lowball lower is better.
func (v HandValue) Score() int {
	score := int(v.Type)
	for i := range 5 {
		r := 0
		if i < len(v.Ranks) {
			r = v.Ranks[i]
		}
		score = score<<4 | r
	}
	return score
}

// Evaluate ranks cards under the rules of game. Lowball takes exactly five
// cards; Hold'em takes five to seven and uses the best five.
func Evaluate(cards []Card, game GameType) (HandValue, error) {
	if err := checkDistinct(cards); err != nil {
		return HandValue{}, err
	}
	switch {
	case game.IsLowball():
		return EvaluateLowball(cards, game)
	case game == Holdem:
		return EvaluateHoldem(cards)
	default:
		return HandValue{}, fmt.Errorf("unknown game type %q", game)
	}
}

// Compare returns 1 if a beats b, -1 if b beats a and 0 for a tie. Both
// values must come from the same game.
func Compare(a, b HandValue) int {
	if a.Game.IsLowball() {
		ka, kb := a.Key(), b.Key()
		switch {
		case ka < kb:
			return 1
		case ka > kb:
			return -1
		}
		return 0
	}
	sa, sb := a.Score(), b.Score()
	switch {
	case sa > sb:
		return 1
	case sa < sb:
		return -1
	}
	return 0
}

func checkDistinct(cards []Card) error {
	var seen Hand
	for _, c := range cards {
		if !c.Valid() {
			return fmt.Errorf("%w: bad card", ErrInvalidHand)
		}
		if seen.HasCard(c) {
			return fmt.Errorf("%w: duplicate %s", ErrInvalidHand, c)
		}
		seen.AddCard(c)
	}
	return nil
}

// classify computes category and tiebreak for exactly five cards. When
// wheel is true A-2-3-4-5 counts as a five-high straight.
func classify(cards []Card, wheel bool) (HandType, []int) {
	counts := map[int]int{}
	values := make([]int, 0, 5)
	flush := true
	for i, c := range cards {
		v := c.Value()
		counts[v]++
		values = append(values, v)
		if i > 0 && c.Suit() != cards[0].Suit() {
			flush = false
		}
	}
	slices.SortFunc(values, func(a, b int) int { return b - a })

	// Group ranks by multiplicity, larger groups first, then higher rank.
	groups := make([]int, 0, len(counts))
	for v := range counts {
		groups = append(groups, v)
	}
	slices.SortFunc(groups, func(a, b int) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return b - a
	})

	straightHigh := 0
	if len(counts) == 5 {
		if values[0]-values[4] == 4 {
			straightHigh = values[0]
		} else if wheel && values[0] == 14 && values[1] == 5 {
			straightHigh = 5
		}
	}

	switch {
	case straightHigh > 0 && flush:
		return StraightFlush, []int{straightHigh}
	case counts[groups[0]] == 4:
		return FourOfAKind, groups
	case counts[groups[0]] == 3 && len(groups) == 2:
		return FullHouse, groups
	case flush:
		return Flush, values
	case straightHigh > 0:
		return Straight, []int{straightHigh}
	case counts[groups[0]] == 3:
		return ThreeOfAKind, groups
	case counts[groups[0]] == 2 && counts[groups[1]] == 2:
		return TwoPair, groups
	case counts[groups[0]] == 2:
		return Pair, groups
	default:
		return HighCard, values
	}
}

var rankWords = map[int][2]string{
	2: {"Two", "Twos"}, 3: {"Three", "Threes"}, 4: {"Four", "Fours"},
	5: {"Five", "Fives"}, 6: {"Six", "Sixes"}, 7: {"Seven", "Sevens"},
	8: {"Eight", "Eights"}, 9: {"Nine", "Nines"}, 10: {"Ten", "Tens"},
	11: {"Jack", "Jacks"}, 12: {"Queen", "Queens"}, 13: {"King", "Kings"},
	14: {"Ace", "Aces"},
}

func word(v int) string   { return rankWords[v][0] }
func plural(v int) string { return rankWords[v][1] }

func valueChar(v int) string {
	return string(rankChars[v-2])
}

// String describes the hand, e.g. "Seven low (7-5-4-3-2)" or "Full House, Kings full of Fives".
func (v HandValue) String() string {
	if len(v.Ranks) == 0 {
		return v.Type.String()
	}
	r := v.Ranks
	switch v.Type {
	case HighCard:
		if v.Game.IsLowball() {
			parts := make([]string, len(r))
			for i, x := range r {
				parts[i] = valueChar(x)
			}
			return fmt.Sprintf("%s low (%s)", word(r[0]), strings.Join(parts, "-"))
		}
		return "High Card, " + word(r[0])
	case Pair:
		return "Pair of " + plural(r[0])
	case TwoPair:
		return fmt.Sprintf("Two Pair, %s and %s", plural(r[0]), plural(r[1]))
	case ThreeOfAKind:
		return "Three " + plural(r[0])
	case Straight:
		return fmt.Sprintf("Straight, %s high", word(r[0]))
	case Flush:
		return fmt.Sprintf("Flush, %s high", word(r[0]))
	case FullHouse:
		return fmt.Sprintf("Full House, %s full of %s", plural(r[0]), plural(r[1]))
	case FourOfAKind:
		return "Four " + plural(r[0])
	case StraightFlush:
		return fmt.Sprintf("Straight Flush, %s high", word(r[0]))
	}
	return v.Type.String()
}
