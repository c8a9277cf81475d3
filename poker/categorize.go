package poker

// HoleCardCategory represents the strength category of Hold'em hole cards.
type HoleCardCategory string

const (
	CategoryPremium HoleCardCategory = "Premium"
	CategoryStrong  HoleCardCategory = "Strong"
	CategoryMedium  HoleCardCategory = "Medium"
	CategoryWeak    HoleCardCategory = "Weak"
	CategoryTrash   HoleCardCategory = "Trash"
	CategoryUnknown HoleCardCategory = "Unknown"
)

// CategorizeHoleCards buckets two hole cards: Premium (JJ+, AK), Strong
// (TT, AQ, AJ), Medium (77-99, suited broadway), Weak (small pairs, suited
// connectors), Trash (everything else).
func CategorizeHoleCards(hole []Card) HoleCardCategory {
	if len(hole) != 2 || !hole[0].Valid() || !hole[1].Valid() {
		return CategoryUnknown
	}
	small, big := hole[0].Value(), hole[1].Value()
	if small > big {
		small, big = big, small
	}
	suited := hole[0].Suit() == hole[1].Suit()
	pair := small == big

	switch {
	case pair && small >= 11, small == 13 && big == 14:
		return CategoryPremium
	case pair && small == 10, big == 14 && (small == 12 || small == 11):
		return CategoryStrong
	case pair && small >= 7, suited && small >= 10:
		return CategoryMedium
	case pair, suited && big-small <= 2:
		return CategoryWeak
	}
	return CategoryTrash
}

// PreflopStrength maps a category onto a 0-100 strength scale.
func PreflopStrength(c HoleCardCategory) int {
	switch c {
	case CategoryPremium:
		return 90
	case CategoryStrong:
		return 75
	case CategoryMedium:
		return 58
	case CategoryWeak:
		return 42
	}
	return 20
}
