package game

import (
	"slices"

	"github.com/lox/pokertable/poker"
)

// Pot represents a pot (main or side). Level is the cumulative contribution
// a player needs to be eligible for it.
type Pot struct {
	Amount   int      `json:"amount"`
	Level    int      `json:"level"`
	Eligible []string `json:"eligible"`
}

// Contribution is one player's chips committed to the hand.
type Contribution struct {
	UID    string
	Amount int
	Folded bool
}

// BuildPots tiers contributions into a main pot and side pots. Levels come
// from the non-folded players; folded chips are added to the pots they reach
// but folded players are never eligible. Chips above the highest live level
// land in the top pot.
func BuildPots(contribs []Contribution) []Pot {
	var levels []int
	total := 0
	for _, c := range contribs {
		total += c.Amount
		if !c.Folded && c.Amount > 0 && !slices.Contains(levels, c.Amount) {
			levels = append(levels, c.Amount)
		}
	}
	if total == 0 {
		return nil
	}
	slices.Sort(levels)

	if len(levels) == 0 {
		// Only dead money so far; everyone still live is eligible.
		pot := Pot{Amount: total}
		for _, c := range contribs {
			if !c.Folded {
				pot.Eligible = append(pot.Eligible, c.UID)
			}
		}
		return []Pot{pot}
	}

	pots := make([]Pot, 0, len(levels))
	prev := 0
	for _, level := range levels {
		pot := Pot{Level: level}
		for _, c := range contribs {
			pot.Amount += clamp(c.Amount, prev, level) - prev
			if !c.Folded && c.Amount >= level {
				pot.Eligible = append(pot.Eligible, c.UID)
			}
		}
		pots = append(pots, pot)
		prev = level
	}
	for _, c := range contribs {
		if c.Amount > prev {
			pots[len(pots)-1].Amount += c.Amount - prev
		}
	}
	return pots
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// frozenContributions are the hand's contributions excluding the street in progress.
func (t *Table) frozenContributions() []Contribution {
	var out []Contribution
	for _, p := range t.Players {
		if !p.InHand {
			continue
		}
		out = append(out, Contribution{
			UID:    p.UID,
			Amount: p.TotalContribution - p.CurrentRoundBet,
			Folded: p.Status == StatusFolded,
		})
	}
	return out
}

func (t *Table) rebuildPots() {
	t.Pots = BuildPots(t.frozenContributions())
}

// PotAward is what one player took from one pot.
type PotAward struct {
	PotIndex    int    `json:"potIndex"`
	UID         string `json:"uid"`
	Seat        int    `json:"seat"`
	Amount      int    `json:"amount"`
	Description string `json:"description,omitempty"`
}

// distributePots pays every frozen pot to the best live hand among its
// eligible players. Ties split with floor division and the remainder goes
// to the tied winner closest to the dealer's left.
func (t *Table) distributePots(values map[string]poker.HandValue) []PotAward {
	var awards []PotAward
	for pi, pot := range t.Pots {
		var contenders []int
		for _, uid := range pot.Eligible {
			seat := t.SeatOf(uid)
			if seat < 0 {
				continue
			}
			if _, ok := values[uid]; ok && t.Players[seat].Live() {
				contenders = append(contenders, seat)
			}
		}
		if len(contenders) == 0 {
			seat := t.refundSeat()
			if seat < 0 {
				continue
			}
			t.Players[seat].Chips += pot.Amount
			awards = append(awards, PotAward{PotIndex: pi, UID: t.Players[seat].UID, Seat: seat, Amount: pot.Amount})
			continue
		}

		winners := []int{contenders[0]}
		for _, seat := range contenders[1:] {
			switch cmp := poker.Compare(values[t.Players[seat].UID], values[t.Players[winners[0]].UID]); {
			case cmp > 0:
				winners = []int{seat}
			case cmp == 0:
				winners = append(winners, seat)
			}
		}
		slices.SortFunc(winners, func(a, b int) int {
			return t.distanceFromDealer(a) - t.distanceFromDealer(b)
		})

		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		for i, seat := range winners {
			amount := share
			if i == 0 {
				amount += remainder
			}
			p := t.Players[seat]
			p.Chips += amount
			awards = append(awards, PotAward{
				PotIndex:    pi,
				UID:         p.UID,
				Seat:        seat,
				Amount:      amount,
				Description: values[p.UID].String(),
			})
		}
	}
	return awards
}

// refundSeat picks the folded participant with the largest contribution for
// a pot nobody can win, breaking ties towards the dealer's left. Any seat in
// the hand qualifies only when nobody folded.
func (t *Table) refundSeat() int {
	if seat := t.largestContributor(func(p *Player) bool { return p.InHand && p.Status == StatusFolded }); seat >= 0 {
		return seat
	}
	return t.largestContributor(func(p *Player) bool { return p.InHand })
}

func (t *Table) largestContributor(ok func(*Player) bool) int {
	best := -1
	for i, p := range t.Players {
		if !ok(p) {
			continue
		}
		if best < 0 ||
			p.TotalContribution > t.Players[best].TotalContribution ||
			(p.TotalContribution == t.Players[best].TotalContribution && t.distanceFromDealer(i) < t.distanceFromDealer(best)) {
			best = i
		}
	}
	return best
}
