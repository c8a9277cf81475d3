package game

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lox/pokertable/poker"
)

func handsVisible(v *View) map[string]bool {
	out := make(map[string]bool)
	for _, p := range v.Players {
		out[p.UID] = len(p.Hand) > 0
	}
	return out
}

func TestViewHidesOtherHands(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000, 1000)
	dealWithButton(t, tbl, clk, 0)

	v := tbl.ViewFor("p0")
	if got := handsVisible(v); !got["p0"] || got["p1"] || got["p2"] {
		t.Errorf("p0 sees %v", got)
	}
	if v.ViewerSeat != 0 || len(v.LegalActions) == 0 {
		t.Errorf("viewer seat %d legal %v", v.ViewerSeat, v.LegalActions)
	}
	if v.Pot != 30 || v.DeckCount != 52-6 {
		t.Errorf("pot %d deck %d", v.Pot, v.DeckCount)
	}

	anon := tbl.ViewFor("")
	if got := handsVisible(anon); got["p0"] || got["p1"] || got["p2"] {
		t.Errorf("anonymous viewer sees %v", got)
	}
	if anon.ViewerSeat != -1 || anon.LegalActions != nil {
		t.Errorf("anonymous viewer has a seat")
	}
}

func TestViewShowsShowdownHands(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000, 1000)
	dealWithButton(t, tbl, clk, 0)
	rig(t, tbl, map[string]string{
		"p0": "2c 7d",
		"p1": "As Ah",
		"p2": "Ks Kh",
	}, "")

	mustAct(t, tbl, clk, "p0", ActionFold, 0)
	playPassively(t, tbl, clk, PhaseShowdown)

	v := tbl.ViewFor("p1")
	if got := handsVisible(v); got["p0"] || !got["p1"] || !got["p2"] {
		t.Errorf("after showdown p1 sees %v", got)
	}
	for _, part := range v.LastResult.Participants {
		if part.UID == "p0" && len(part.Hand) != 0 {
			t.Errorf("folded hand leaked through the result")
		}
	}
	if own := tbl.ViewFor("p0"); len(own.LastResult.Participants[0].Hand) != 2 {
		t.Errorf("p0 cannot see their own folded hand in the result")
	}
	if err := tbl.RevealHand(clk.env(), "p0"); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("folded seat revealed: %v", err)
	}
}

func TestRevealUncontestedHand(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000, 1000)
	dealWithButton(t, tbl, clk, 0)
	if err := tbl.RevealHand(clk.env(), "p2"); !errors.Is(err, ErrPhaseMismatch) {
		t.Errorf("reveal mid-hand: %v", err)
	}

	mustAct(t, tbl, clk, "p0", ActionFold, 0)
	mustAct(t, tbl, clk, "p1", ActionFold, 0)
	if got := handsVisible(tbl.ViewFor("p0")); got["p2"] {
		t.Fatalf("uncontested winner shown without revealing")
	}
	if err := tbl.RevealHand(clk.env(), "p2"); err != nil {
		t.Fatal(err)
	}
	if err := tbl.RevealHand(clk.env(), "p2"); err != nil {
		t.Errorf("second reveal: %v", err)
	}
	if got := handsVisible(tbl.ViewFor("p0")); !got["p2"] {
		t.Errorf("revealed hand hidden")
	}
	reveals := 0
	for _, a := range tbl.Activity {
		if a.EventType == "reveal" {
			reveals++
		}
	}
	if reveals != 1 {
		t.Errorf("%d reveal events", reveals)
	}
}

func TestActivityRingEvictsOldest(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000)
	for i := range 60 {
		if err := tbl.Chat(clk.env(), "p0", fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatal(err)
		}
	}
	if len(tbl.Activity) != MaxActivity {
		t.Fatalf("activity length %d", len(tbl.Activity))
	}
	if first, last := tbl.Activity[0], tbl.Activity[MaxActivity-1]; first.Text != "msg 10" || last.Text != "msg 59" {
		t.Errorf("ring holds %q..%q", first.Text, last.Text)
	}
	if e := tbl.Activity[0]; e.Kind != KindChat || e.PlayerName != "Player 0" {
		t.Errorf("chat entry %+v", e)
	}
}

func TestChatValidation(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000)

	for _, text := range []string{"", "   ", strings.Repeat("x", MaxChatLength+1)} {
		if err := tbl.Chat(clk.env(), "p0", text); !errors.Is(err, ErrIllegalAction) {
			t.Errorf("chat of %d chars: %v", len(text), err)
		}
	}
	if err := tbl.Chat(clk.env(), "p0", strings.Repeat("x", MaxChatLength)); err != nil {
		t.Errorf("longest chat rejected: %v", err)
	}
	if err := tbl.Chat(clk.env(), "zed", "hi"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("stranger chat: %v", err)
	}
}

func TestErrorCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: seat 3", ErrTableFull), "TABLE_FULL"},
		{ErrNotYourTurn, "NOT_YOUR_TURN"},
		{fmt.Errorf("deal: %w", poker.ErrDeckExhausted), "DECK_EXHAUSTED"},
		{fmt.Errorf("%w: %w", ErrInternalState, errors.New("seat 1 negative")), "INTERNAL_STATE_ERROR"},
		{errors.New("disk on fire"), "INTERNAL"},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
