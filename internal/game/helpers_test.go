package game

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/lox/pokertable/internal/randutil"
	"github.com/lox/pokertable/poker"
)

var testStart = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

// testClock hands out Envs with a controllable time and a seeded RNG.
type testClock struct {
	now time.Time
	rng *rand.Rand
}

func newTestClock(seed int64) *testClock {
	return &testClock{now: testStart, rng: randutil.New(seed)}
}

func (c *testClock) env() Env { return Env{Now: c.now, Rand: c.rng} }

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type tableOption func(*Config)

func withGame(g poker.GameType) tableOption {
	return func(c *Config) { c.GameType = g }
}

func withBetting(b BettingType) tableOption {
	return func(c *Config) { c.BettingType = b }
}

func withBlinds(small, big int) tableOption {
	return func(c *Config) { c.SmallBlind, c.MinBet = small, big }
}

func withMaxPlayers(n int) tableOption {
	return func(c *Config) { c.MaxPlayers = n }
}

func withRaiseCap(n int) tableOption {
	return func(c *Config) { c.MaxRaisesPerStreet = n }
}

func withBuyInMin(n int) tableOption {
	return func(c *Config) { c.BuyInMin = n }
}

func withTournament(tc TournamentConfig) tableOption {
	return func(c *Config) { c.Tournament = &tc }
}

// newTestTable creates a 10/20 no-limit Hold'em table owned by "p0".
func newTestTable(t *testing.T, opts ...tableOption) (*Table, *testClock) {
	t.Helper()
	cfg := Config{GameType: poker.Holdem, BettingType: NoLimit, SmallBlind: 10, MinBet: 20}
	for _, opt := range opts {
		opt(&cfg)
	}
	tbl, err := NewTable("TEST23", "p0", cfg, testStart)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl, newTestClock(42)
}

func uid(i int) string { return fmt.Sprintf("p%d", i) }

// seat joins one player per stack and buys them in. Players are p0, p1, ...
func seat(t *testing.T, tbl *Table, clk *testClock, stacks ...int) {
	t.Helper()
	for i, chips := range stacks {
		seated, err := tbl.Join(clk.env(), uid(i), fmt.Sprintf("Player %d", i))
		if err != nil || !seated {
			t.Fatalf("join %s: seated=%v err=%v", uid(i), seated, err)
		}
		if _, err := tbl.BuyIn(clk.env(), uid(i), chips); err != nil {
			t.Fatalf("buy in %s: %v", uid(i), err)
		}
	}
}

// dealWithButton deals the next hand with the button on the given seat.
func dealWithButton(t *testing.T, tbl *Table, clk *testClock, dealer int) {
	t.Helper()
	n := len(tbl.Players)
	tbl.DealerSeat = (dealer - 1 + n) % n
	if err := tbl.Deal(clk.env()); err != nil {
		t.Fatalf("deal: %v", err)
	}
	if tbl.DealerSeat != dealer {
		t.Fatalf("dealer is seat %d, want %d", tbl.DealerSeat, dealer)
	}
	mustHold(t, tbl)
}

// rig replaces the dealt hands and stacks the deck so that the next cards
// dealt are top, in order. Every seat in the hand must be given a hand.
func rig(t *testing.T, tbl *Table, hands map[string]string, top string) {
	t.Helper()
	var known [][]poker.Card
	for _, p := range tbl.Players {
		if !p.InHand {
			continue
		}
		spec, ok := hands[p.UID]
		if !ok {
			t.Fatalf("rig: no hand for %s", p.UID)
		}
		p.Hand = poker.MustParseCards(spec)
		known = append(known, p.Hand)
	}
	var stacked []poker.Card
	if top != "" {
		stacked = poker.MustParseCards(top)
	}
	known = append(known, stacked)
	tbl.Deck.Cards = append(stacked, poker.Remaining(known...)...)
	tbl.Deck.Muck = nil
	mustHold(t, tbl)
}

func mustHold(t *testing.T, tbl *Table) {
	t.Helper()
	if err := tbl.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func mustAct(t *testing.T, tbl *Table, clk *testClock, who string, action ActionType, amount int) {
	t.Helper()
	if err := tbl.Act(clk.env(), who, action, amount); err != nil {
		t.Fatalf("%s %s %d: %v", who, action, amount, err)
	}
	mustHold(t, tbl)
}

func mustDraw(t *testing.T, tbl *Table, clk *testClock, who string, discards ...int) {
	t.Helper()
	if err := tbl.Draw(clk.env(), who, discards); err != nil {
		t.Fatalf("%s draws %v: %v", who, discards, err)
	}
	mustHold(t, tbl)
}

// activeUID returns the uid of the seat to act.
func activeUID(t *testing.T, tbl *Table) string {
	t.Helper()
	p := tbl.Active()
	if p == nil {
		t.Fatalf("no active seat in %s", tbl.Phase)
	}
	return p.UID
}

// playPassively checks or calls and stands pat until the table reaches phase.
func playPassively(t *testing.T, tbl *Table, clk *testClock, until Phase) {
	t.Helper()
	for steps := 0; tbl.Phase != until; steps++ {
		if steps > 100 || !tbl.Phase.InHand() {
			t.Fatalf("never reached %s, stuck in %s", until, tbl.Phase)
		}
		who := activeUID(t, tbl)
		if tbl.Phase.IsDraw() {
			mustDraw(t, tbl, clk, who)
			continue
		}
		action := ActionCall
		if _, ok := findLegal(tbl.LegalActions(tbl.ActiveSeat), ActionCheck); ok {
			action = ActionCheck
		}
		mustAct(t, tbl, clk, who, action, 0)
	}
}

func totalChips(tbl *Table) int {
	total := 0
	for _, p := range tbl.Players {
		total += p.Chips + p.TotalContribution
	}
	return total
}
