package game

import (
	"fmt"
	"slices"
	"time"
)

// TournamentState is the Sit-and-Go lifecycle.
type TournamentState string

const (
	TournamentRegistering TournamentState = "REGISTERING"
	TournamentRunning     TournamentState = "RUNNING"
	TournamentCompleted   TournamentState = "COMPLETED"
)

const (
	DefaultStartingStack = 1500
	DefaultLevelDuration = 5 * time.Minute
)

// BlindLevel is one step of the blind schedule.
type BlindLevel struct {
	SmallBlind int           `json:"smallBlind"`
	BigBlind   int           `json:"bigBlind"`
	Ante       int           `json:"ante,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// DefaultLevels is the schedule used when a tournament declares none.
func DefaultLevels() []BlindLevel {
	return []BlindLevel{
		{SmallBlind: 10, BigBlind: 20},
		{SmallBlind: 15, BigBlind: 30},
		{SmallBlind: 25, BigBlind: 50},
		{SmallBlind: 50, BigBlind: 100},
		{SmallBlind: 75, BigBlind: 150, Ante: 10},
		{SmallBlind: 100, BigBlind: 200, Ante: 25},
		{SmallBlind: 150, BigBlind: 300, Ante: 25},
		{SmallBlind: 200, BigBlind: 400, Ante: 50},
		{SmallBlind: 300, BigBlind: 600, Ante: 75},
		{SmallBlind: 500, BigBlind: 1000, Ante: 100},
	}
}

// DefaultPayouts returns the payout curve, in percent by finishing place,
// for a Sit-and-Go with the given number of seats.
func DefaultPayouts(seats int) []int {
	switch {
	case seats <= 3:
		return []int{100}
	case seats <= 5:
		return []int{65, 35}
	default:
		return []int{50, 30, 20}
	}
}

// TournamentConfig declares a Sit-and-Go.
type TournamentConfig struct {
	BuyIn         int          `json:"buyIn"`
	StartingStack int          `json:"startingStack"`
	Levels        []BlindLevel `json:"levels"`
	Payouts       []int        `json:"payouts"`
}

func (c *TournamentConfig) normalize(seats int) error {
	if c.BuyIn <= 0 {
		return fmt.Errorf("tournament buy-in must be positive")
	}
	if c.StartingStack == 0 {
		c.StartingStack = DefaultStartingStack
	}
	if len(c.Levels) == 0 {
		c.Levels = DefaultLevels()
	}
	for i := range c.Levels {
		l := &c.Levels[i]
		if l.Duration == 0 {
			l.Duration = DefaultLevelDuration
		}
		if l.BigBlind < 2 || l.SmallBlind < 1 || l.SmallBlind > l.BigBlind || l.Ante < 0 {
			return fmt.Errorf("blind level %d is invalid: %d/%d ante %d", i+1, l.SmallBlind, l.BigBlind, l.Ante)
		}
	}
	if c.StartingStack < c.Levels[0].BigBlind {
		return fmt.Errorf("starting stack %d below the first big blind", c.StartingStack)
	}
	if len(c.Payouts) == 0 {
		c.Payouts = DefaultPayouts(seats)
	}
	if len(c.Payouts) > seats {
		return fmt.Errorf("%d paid places for %d seats", len(c.Payouts), seats)
	}
	sum := 0
	for _, pct := range c.Payouts {
		if pct <= 0 {
			return fmt.Errorf("payout percentages must be positive")
		}
		sum += pct
	}
	if sum != 100 {
		return fmt.Errorf("payouts sum to %d%%, want 100%%", sum)
	}
	return nil
}

// Finish is one entry of the elimination order.
type Finish struct {
	UID      string    `json:"uid"`
	Name     string    `json:"displayName"`
	Position int       `json:"position"`
	IsBot    bool      `json:"isBot,omitempty"`
	At       time.Time `json:"at"`
}

// Payout is a prize paid at completion.
type Payout struct {
	UID      string `json:"uid"`
	Position int    `json:"position"`
	Amount   int    `json:"amount"`
}

// Tournament is the running state of a Sit-and-Go.
type Tournament struct {
	State            TournamentState `json:"state"`
	TotalSeats       int             `json:"totalSeats"`
	Level            int             `json:"level"`
	LevelEndsAt      time.Time       `json:"levelEndsAt"`
	PrizePool        int             `json:"prizePool"`
	EliminationOrder []Finish        `json:"eliminationOrder"`
	Payouts          []Payout        `json:"payouts,omitempty"`
	StartedAt        time.Time       `json:"startedAt"`
	CompletedAt      time.Time       `json:"completedAt"`
}

// register buys a seat into a registering tournament.
func (t *Table) register(env Env, p *Player, amount int) (int, error) {
	cfg := t.Config.Tournament
	if t.Tournament.State != TournamentRegistering {
		return 0, fmt.Errorf("%w: registration closed", ErrPhaseMismatch)
	}
	if p.Chips > 0 {
		return 0, fmt.Errorf("%w: already registered", ErrIllegalAction)
	}
	if amount != cfg.BuyIn {
		return 0, fmt.Errorf("%w: buy-in is exactly %d", ErrIllegalAction, cfg.BuyIn)
	}
	p.Chips = cfg.StartingStack
	p.Status = StatusActive
	t.Tournament.PrizePool += cfg.BuyIn
	t.playerEvent(env, KindEvent, "register", p, "%s registered", p.Name)
	t.LastActivity = env.Now
	if err := t.maybeStartTournament(env); err != nil {
		return 0, err
	}
	return cfg.BuyIn, nil
}

// maybeStartTournament starts play once every seat is taken and funded.
func (t *Table) maybeStartTournament(env Env) error {
	tour := t.Tournament
	if tour.State != TournamentRegistering || len(t.Players) < tour.TotalSeats {
		return nil
	}
	if t.count(func(p *Player) bool { return p.Chips > 0 }) < tour.TotalSeats {
		return nil
	}
	tour.State = TournamentRunning
	tour.StartedAt = env.Now
	tour.Level = 0
	tour.LevelEndsAt = env.Now.Add(t.Config.Tournament.Levels[0].Duration)
	t.event(env, "tournament_start", "Tournament started with %d players, prize pool %d", tour.TotalSeats, tour.PrizePool)
	return t.Deal(env)
}

// applyBlindLevel copies the current level's blinds onto the table.
func (t *Table) applyBlindLevel(env Env) {
	l := t.Config.Tournament.Levels[t.Tournament.Level]
	if t.MinBet == l.BigBlind && t.SmallBlind == l.SmallBlind && t.Ante == l.Ante {
		return
	}
	t.MinBet, t.SmallBlind, t.Ante = l.BigBlind, l.SmallBlind, l.Ante
	if l.Ante > 0 {
		t.event(env, "blinds", "Blinds are now %d/%d ante %d", l.SmallBlind, l.BigBlind, l.Ante)
	} else {
		t.event(env, "blinds", "Blinds are now %d/%d", l.SmallBlind, l.BigBlind)
	}
}

// LevelDue reports whether the running tournament's level has expired.
func (t *Table) LevelDue(now time.Time) bool {
	tour := t.Tournament
	return tour != nil && tour.State == TournamentRunning &&
		!tour.LevelEndsAt.IsZero() && !now.Before(tour.LevelEndsAt)
}

// AdvanceBlindLevel moves to the next level when the current one has
// expired. The new blinds take effect immediately between hands and from
// the next deal otherwise. It reports whether the level changed.
func (t *Table) AdvanceBlindLevel(env Env) bool {
	if !t.LevelDue(env.Now) {
		return false
	}
	tour := t.Tournament
	levels := t.Config.Tournament.Levels
	if tour.Level+1 >= len(levels) {
		tour.LevelEndsAt = time.Time{}
		return false
	}
	tour.Level++
	tour.LevelEndsAt = env.Now.Add(levels[tour.Level].Duration)
	t.LastActivity = env.Now
	if !t.Phase.InHand() {
		t.applyBlindLevel(env)
	} else {
		l := levels[tour.Level]
		t.event(env, "blinds_pending", "Blinds go up to %d/%d next hand", l.SmallBlind, l.BigBlind)
	}
	return true
}

// eliminateBusted records every seat that lost its last chip this hand and
// completes the tournament when one seat is left.
func (t *Table) eliminateBusted(env Env) {
	tour := t.Tournament
	if tour.State != TournamentRunning {
		return
	}
	var busted []*Player
	for _, p := range t.Players {
		if p.InHand && p.Chips == 0 && p.Status != StatusEliminated {
			busted = append(busted, p)
		}
	}
	// The shorter starting stack finishes lower.
	slices.SortStableFunc(busted, func(a, b *Player) int { return a.StartChips - b.StartChips })
	for _, p := range busted {
		t.finish(env, p)
		t.playerEvent(env, KindEvent, "eliminated", p, "%s finishes in place %d", p.Name, tour.EliminationOrder[len(tour.EliminationOrder)-1].Position)
	}

	var remaining []*Player
	for _, p := range t.Players {
		if p.Status != StatusEliminated && p.Chips > 0 {
			remaining = append(remaining, p)
		}
	}
	if len(remaining) != 1 {
		return
	}
	winner := remaining[0]
	t.finish(env, winner)
	tour.State = TournamentCompleted
	tour.CompletedAt = env.Now
	tour.LevelEndsAt = time.Time{}
	t.payPrizes()
	t.playerEvent(env, KindEvent, "tournament_complete", winner, "%s wins the tournament", winner.Name)
}

func (t *Table) finish(env Env, p *Player) {
	tour := t.Tournament
	tour.EliminationOrder = append(tour.EliminationOrder, Finish{
		UID:      p.UID,
		Name:     p.Name,
		Position: tour.TotalSeats - len(tour.EliminationOrder),
		IsBot:    p.IsBot,
		At:       env.Now,
	})
	if p.Chips == 0 {
		p.Status = StatusEliminated
	}
}

// payPrizes splits the prize pool by finishing place. Rounding leftovers go
// to the winner. Bots collect nothing.
func (t *Table) payPrizes() {
	tour := t.Tournament
	pcts := t.Config.Tournament.Payouts
	paid := 0
	for _, f := range tour.EliminationOrder {
		if f.Position > len(pcts) {
			continue
		}
		amount := tour.PrizePool * pcts[f.Position-1] / 100
		tour.Payouts = append(tour.Payouts, Payout{UID: f.UID, Position: f.Position, Amount: amount})
		paid += amount
	}
	for i := range tour.Payouts {
		if tour.Payouts[i].Position == 1 {
			tour.Payouts[i].Amount += tour.PrizePool - paid
		}
	}
	for _, pay := range tour.Payouts {
		if p := t.Player(pay.UID); p != nil && !p.IsBot {
			t.credit(p, pay.Amount, "prize")
		}
	}
	tour.PrizePool = 0
}

// Standings returns finishers from first place down.
func (tour *Tournament) Standings() []Finish {
	out := slices.Clone(tour.EliminationOrder)
	slices.SortFunc(out, func(a, b Finish) int { return a.Position - b.Position })
	return out
}
