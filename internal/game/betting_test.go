package game

import (
	"reflect"
	"testing"
)

func TestLegalActions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   []tableOption
		stacks []int
		want   []LegalAction
	}{
		{
			name:   "no limit",
			stacks: []int{1000, 1000, 1000},
			want: []LegalAction{
				{Type: ActionFold},
				{Type: ActionCall, Min: 20, Max: 20},
				{Type: ActionRaise, Min: 40, Max: 1000},
				{Type: ActionAllIn, Min: 1000, Max: 1000},
			},
		},
		{
			name:   "pot limit caps the raise at the pot after calling",
			opts:   []tableOption{withBetting(PotLimit)},
			stacks: []int{1000, 1000, 1000},
			want: []LegalAction{
				{Type: ActionFold},
				{Type: ActionCall, Min: 20, Max: 20},
				{Type: ActionRaise, Min: 40, Max: 70},
			},
		},
		{
			name:   "fixed limit raises by one bet",
			opts:   []tableOption{withBetting(FixedLimit)},
			stacks: []int{1000, 1000, 1000},
			want: []LegalAction{
				{Type: ActionFold},
				{Type: ActionCall, Min: 20, Max: 20},
				{Type: ActionRaise, Min: 40, Max: 40},
			},
		},
		{
			name:   "short stack can only shove",
			stacks: []int{30, 1000, 1000},
			want: []LegalAction{
				{Type: ActionFold},
				{Type: ActionCall, Min: 20, Max: 20},
				{Type: ActionAllIn, Min: 30, Max: 30},
			},
		},
		{
			name:   "stack below the call",
			opts:   []tableOption{withBuyInMin(10)},
			stacks: []int{15, 1000, 1000},
			want: []LegalAction{
				{Type: ActionFold},
				{Type: ActionCall, Min: 15, Max: 15},
				{Type: ActionAllIn, Min: 15, Max: 15},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tbl, clk := newTestTable(t, tt.opts...)
			seat(t, tbl, clk, tt.stacks...)
			dealWithButton(t, tbl, clk, 0)
			if got := tbl.LegalActions(0); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LegalActions() = %+v, want %+v", got, tt.want)
			}
			if got := tbl.LegalActions(1); got != nil {
				t.Errorf("seat out of turn has actions %+v", got)
			}
		})
	}
}

func TestBigBlindOption(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000, 1000)
	dealWithButton(t, tbl, clk, 0)

	mustAct(t, tbl, clk, "p0", ActionCall, 0)
	mustAct(t, tbl, clk, "p1", ActionCall, 0)
	want := []LegalAction{
		{Type: ActionFold},
		{Type: ActionCheck},
		{Type: ActionRaise, Min: 40, Max: 1000},
		{Type: ActionAllIn, Min: 1000, Max: 1000},
	}
	if got := tbl.LegalActions(2); !reflect.DeepEqual(got, want) {
		t.Errorf("big blind option %+v", got)
	}
}

func TestMinimumReraise(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000, 1000)
	dealWithButton(t, tbl, clk, 0)

	mustAct(t, tbl, clk, "p0", ActionRaise, 70)
	if tbl.LastRaiseAmount != 50 || tbl.CurrentBet != 70 {
		t.Fatalf("last raise %d current bet %d", tbl.LastRaiseAmount, tbl.CurrentBet)
	}
	raise, ok := findLegal(tbl.LegalActions(1), ActionRaise)
	if !ok || raise.Min != 120 {
		t.Fatalf("re-raise must be at least 120, got %+v", raise)
	}
	mustAct(t, tbl, clk, "p1", ActionRaise, 120)
	if tbl.Players[0].HasActed {
		t.Errorf("a raise should reopen the action")
	}
}

func TestShortAllInReopensAction(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000, 30)
	dealWithButton(t, tbl, clk, 1)
	// Seat 1 is the button, seat 2 the small blind, seat 0 the big blind.
	mustAct(t, tbl, clk, "p1", ActionCall, 0)
	mustAct(t, tbl, clk, "p2", ActionAllIn, 0)

	if tbl.CurrentBet != 30 || tbl.LastRaiseAmount != 10 {
		t.Fatalf("current bet %d last raise %d", tbl.CurrentBet, tbl.LastRaiseAmount)
	}
	raise, ok := findLegal(tbl.LegalActions(0), ActionRaise)
	if !ok || raise.Min != 50 {
		t.Errorf("raise over the short all-in starts at %+v", raise)
	}
	mustAct(t, tbl, clk, "p0", ActionCall, 0)
	if activeUID(t, tbl) != "p1" {
		t.Errorf("the limper must act again after the all-in")
	}
}

func TestFixedLimitRaiseCap(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t, withBetting(FixedLimit), withRaiseCap(3))
	seat(t, tbl, clk, 1000, 1000, 1000)
	dealWithButton(t, tbl, clk, 0)

	mustAct(t, tbl, clk, "p0", ActionRaise, 40)
	mustAct(t, tbl, clk, "p1", ActionRaise, 60)
	if _, ok := findLegal(tbl.LegalActions(2), ActionRaise); ok {
		t.Errorf("raise allowed after the cap")
	}
	mustAct(t, tbl, clk, "p2", ActionCall, 0)
	mustAct(t, tbl, clk, "p0", ActionCall, 0)
	if tbl.Phase != PhaseFlop {
		t.Fatalf("phase %s", tbl.Phase)
	}
	bet, ok := findLegal(tbl.LegalActions(tbl.ActiveSeat), ActionBet)
	if !ok || bet.Min != 20 || bet.Max != 20 {
		t.Errorf("flop bet %+v", bet)
	}
}
