package game

import (
	"errors"
	"testing"
	"time"
)

func sitAndGo(stack int) TournamentConfig {
	return TournamentConfig{
		BuyIn:         100,
		StartingStack: stack,
		Levels: []BlindLevel{
			{SmallBlind: 10, BigBlind: 20, Duration: 5 * time.Minute},
			{SmallBlind: 20, BigBlind: 40, Duration: 5 * time.Minute},
		},
	}
}

func register(t *testing.T, tbl *Table, clk *testClock, n int) {
	t.Helper()
	for i := range n {
		if _, err := tbl.Join(clk.env(), uid(i), "Player "+uid(i)); err != nil {
			t.Fatal(err)
		}
		debit, err := tbl.BuyIn(clk.env(), uid(i), 100)
		if err != nil || debit != 100 {
			t.Fatalf("register %s: %d %v", uid(i), debit, err)
		}
	}
}

func TestTournamentConfigDefaults(t *testing.T) {
	t.Parallel()
	tests := []struct {
		seats int
		want  []int
	}{
		{2, []int{100}},
		{3, []int{100}},
		{4, []int{65, 35}},
		{6, []int{50, 30, 20}},
	}
	for _, tt := range tests {
		tc := TournamentConfig{BuyIn: 10}
		if err := tc.normalize(tt.seats); err != nil {
			t.Fatal(err)
		}
		if len(tc.Payouts) != len(tt.want) || tc.Payouts[0] != tt.want[0] {
			t.Errorf("%d seats: payouts %v, want %v", tt.seats, tc.Payouts, tt.want)
		}
		if tc.StartingStack != DefaultStartingStack || tc.Levels[0].Duration != DefaultLevelDuration {
			t.Errorf("defaults not applied: %+v", tc)
		}
	}

	bad := []TournamentConfig{
		{},
		{BuyIn: 10, Payouts: []int{50, 40}},
		{BuyIn: 10, Payouts: []int{40, 30, 20, 10}},
		{BuyIn: 10, Levels: []BlindLevel{{SmallBlind: 30, BigBlind: 20}}},
		{BuyIn: 10, StartingStack: 10},
	}
	for _, tc := range bad {
		if err := tc.normalize(3); err == nil {
			t.Errorf("accepted %+v", tc)
		}
	}
}

func TestSitAndGoToCompletion(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t, withMaxPlayers(3), withTournament(sitAndGo(40)))

	register(t, tbl, clk, 2)
	if tbl.Tournament.State != TournamentRegistering || tbl.Phase != PhaseIdle {
		t.Fatalf("started early: %s %s", tbl.Tournament.State, tbl.Phase)
	}
	if _, err := tbl.Join(clk.env(), "p2", "Player p2"); err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.BuyIn(clk.env(), "p2", 50); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("partial buy-in: %v", err)
	}
	if _, err := tbl.BuyIn(clk.env(), "p2", 100); err != nil {
		t.Fatal(err)
	}
	if tbl.Tournament.State != TournamentRunning || tbl.Phase != PhasePreflop {
		t.Fatalf("full table should start: %s %s", tbl.Tournament.State, tbl.Phase)
	}
	if tbl.Tournament.PrizePool != 300 || !tbl.Tournament.LevelEndsAt.Equal(clk.now.Add(5*time.Minute)) {
		t.Errorf("tournament %+v", tbl.Tournament)
	}
	if _, err := tbl.RequestSitOut(clk.env(), "p1"); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("sit out in a tournament: %v", err)
	}
	if _, err := tbl.Leave(clk.env(), "p1"); !errors.Is(err, ErrPhaseMismatch) {
		t.Errorf("leave a running tournament: %v", err)
	}
	tbl.DrainEffects()

	rig(t, tbl, map[string]string{
		"p0": "As Ah",
		"p1": "Ks Kh",
		"p2": "Qs Qh",
	}, "Td 2c 7d 9h Jd 3s 8c 4c")
	for tbl.Phase.IsBetting() {
		mustAct(t, tbl, clk, activeUID(t, tbl), ActionAllIn, 0)
	}

	if tbl.Phase != PhaseShowdown {
		t.Fatalf("phase %s", tbl.Phase)
	}
	tour := tbl.Tournament
	if tour.State != TournamentCompleted {
		t.Fatalf("state %s", tour.State)
	}
	want := map[string]int{"p0": 1, "p1": 3, "p2": 2}
	for _, f := range tour.EliminationOrder {
		if want[f.UID] != f.Position {
			t.Errorf("%s finished %d, want %d", f.UID, f.Position, want[f.UID])
		}
	}
	if st := tour.Standings(); st[0].UID != "p0" || st[2].UID != "p1" {
		t.Errorf("standings %+v", st)
	}
	fx := tbl.DrainEffects()
	if len(fx.Credits) != 1 || fx.Credits[0] != (WalletCredit{UID: "p0", Amount: 300, Reason: "prize"}) {
		t.Errorf("credits %+v", fx.Credits)
	}
	if tour.PrizePool != 0 {
		t.Errorf("prize pool left %d", tour.PrizePool)
	}

	if err := tbl.StartNextHand(clk.env(), "p0"); err != nil {
		t.Fatal(err)
	}
	if tbl.Phase != PhaseIdle {
		t.Errorf("completed tournament dealt again")
	}
}

func TestBlindLevelsAdvance(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t, withMaxPlayers(3), withTournament(sitAndGo(1000)))
	register(t, tbl, clk, 3)
	if tbl.MinBet != 20 || tbl.SmallBlind != 10 {
		t.Fatalf("level one blinds %d/%d", tbl.SmallBlind, tbl.MinBet)
	}

	clk.advance(4 * time.Minute)
	if tbl.AdvanceBlindLevel(clk.env()) {
		t.Fatalf("level advanced early")
	}
	clk.advance(time.Minute)
	if !tbl.AdvanceBlindLevel(clk.env()) {
		t.Fatalf("level did not advance")
	}
	if tbl.Tournament.Level != 1 || tbl.MinBet != 20 {
		t.Errorf("mid-hand level change applied at once: level %d bb %d", tbl.Tournament.Level, tbl.MinBet)
	}
	mustHold(t, tbl)

	for tbl.Phase != PhaseShowdown {
		mustAct(t, tbl, clk, activeUID(t, tbl), ActionFold, 0)
	}
	if err := tbl.StartNextHand(clk.env(), "p0"); err != nil {
		t.Fatal(err)
	}
	if tbl.MinBet != 40 || tbl.SmallBlind != 20 || tbl.HandNumber != 2 {
		t.Errorf("hand %d blinds %d/%d", tbl.HandNumber, tbl.SmallBlind, tbl.MinBet)
	}
	mustHold(t, tbl)

	// The last level never expires.
	clk.advance(time.Hour)
	if tbl.AdvanceBlindLevel(clk.env()) {
		t.Errorf("advanced past the last level")
	}
	if tbl.LevelDue(clk.now) {
		t.Errorf("last level still due")
	}
}

func TestSimultaneousEliminationsOrderByStartingStack(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t, withMaxPlayers(3), withTournament(sitAndGo(1000)))
	tbl.Tournament.State = TournamentRunning
	tbl.Tournament.PrizePool = 300
	tbl.Players = []*Player{
		{UID: "p0", Name: "Player 0", InHand: true, Status: StatusAllIn, StartChips: 500},
		{UID: "p1", Name: "Player 1", InHand: true, Status: StatusAllIn, StartChips: 200},
		{UID: "p2", Name: "Player 2", InHand: true, Status: StatusActive, Chips: 3000, StartChips: 2300},
	}
	tbl.eliminateBusted(clk.env())

	want := []Finish{
		{UID: "p1", Name: "Player 1", Position: 3, At: clk.now},
		{UID: "p0", Name: "Player 0", Position: 2, At: clk.now},
		{UID: "p2", Name: "Player 2", Position: 1, At: clk.now},
	}
	for i, f := range tbl.Tournament.EliminationOrder {
		if f != want[i] {
			t.Errorf("finish %d: %+v, want %+v", i, f, want[i])
		}
	}
	if tbl.Players[0].Status != StatusEliminated || tbl.Players[1].Status != StatusEliminated {
		t.Errorf("busted seats not eliminated")
	}
	if tbl.Tournament.State != TournamentCompleted || len(tbl.Tournament.Payouts) != 1 {
		t.Errorf("tournament %+v", tbl.Tournament)
	}
}

func TestTournamentUnregisterRefundsBuyIn(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t, withMaxPlayers(3), withTournament(sitAndGo(1000)))
	register(t, tbl, clk, 2)

	credit, err := tbl.Leave(clk.env(), "p1")
	if err != nil || credit != 100 {
		t.Fatalf("unregister: %d %v", credit, err)
	}
	if tbl.Tournament.PrizePool != 100 {
		t.Errorf("prize pool %d", tbl.Tournament.PrizePool)
	}
}

func TestTournamentTeardownSplitsPool(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t, withMaxPlayers(3), withTournament(sitAndGo(1000)))
	register(t, tbl, clk, 3)

	credits := tbl.Teardown(clk.env())
	total := 0
	for _, c := range credits {
		total += c.Amount
	}
	if len(credits) != 3 || total != 300 {
		t.Errorf("credits %+v", credits)
	}
}
