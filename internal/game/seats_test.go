package game

import (
	"errors"
	"testing"
)

func TestJoinSeatsOrWatches(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t, withMaxPlayers(2))
	seat(t, tbl, clk, 1000, 1000)

	seated, err := tbl.Join(clk.env(), "p2", "Player 2")
	if err != nil || seated {
		t.Fatalf("full table should make a railbird: seated=%v err=%v", seated, err)
	}
	if again, err := tbl.Join(clk.env(), "p2", "Player 2"); err != nil || again {
		t.Errorf("second join changed state: %v %v", again, err)
	}
	if len(tbl.Railbirds) != 1 {
		t.Fatalf("railbirds %d", len(tbl.Railbirds))
	}
	if err := tbl.JoinAsPlayer(clk.env(), "p2"); !errors.Is(err, ErrTableFull) {
		t.Errorf("promote onto a full table: %v", err)
	}
	if err := tbl.JoinAsPlayer(clk.env(), "nobody"); !errors.Is(err, ErrRailbirdNotFound) {
		t.Errorf("promote a stranger: %v", err)
	}

	credit, err := tbl.CashOut(clk.env(), "p1")
	if err != nil || credit != 1000 {
		t.Fatalf("cash out: %d %v", credit, err)
	}
	if err := tbl.JoinAsPlayer(clk.env(), "p2"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if len(tbl.Railbirds) != 0 || tbl.SeatOf("p2") != 1 {
		t.Errorf("p2 not seated")
	}
	if tbl.Player("p2").Status != StatusSittingOut {
		t.Errorf("unfunded seat should sit out")
	}
}

func TestJoinValidatesName(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	for _, name := range []string{"", " x ", "abcdefghijklmnopqrstu"} {
		if _, err := tbl.Join(clk.env(), "p0", name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("name %q: %v", name, err)
		}
	}
	if _, err := tbl.Join(clk.env(), "p0", "  Alice  "); err != nil {
		t.Fatal(err)
	}
	if got := tbl.Players[0].Name; got != "Alice" {
		t.Errorf("name %q not trimmed", got)
	}
}

func TestJoinDuringHandWatches(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000)
	dealWithButton(t, tbl, clk, 0)

	seated, err := tbl.Join(clk.env(), "p5", "Late Larry")
	if err != nil || seated {
		t.Fatalf("mid-hand join should watch: %v %v", seated, err)
	}
	if err := tbl.JoinAsPlayer(clk.env(), "p5"); !errors.Is(err, ErrPhaseMismatch) {
		t.Errorf("promotion mid-hand: %v", err)
	}
	if err := tbl.Chat(clk.env(), "p5", "gl all"); err != nil {
		t.Errorf("railbird chat: %v", err)
	}
	view := tbl.ViewFor("p5")
	for _, p := range view.Players {
		if len(p.Hand) != 0 {
			t.Errorf("railbird sees %s's cards", p.UID)
		}
		if p.CardCount != 2 {
			t.Errorf("card count %d", p.CardCount)
		}
	}
}

func TestBuyInLimits(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t, func(c *Config) { c.BuyInMin, c.BuyInMax = 400, 2000 })
	if _, err := tbl.Join(clk.env(), "p0", "Player 0"); err != nil {
		t.Fatal(err)
	}
	for _, tt := range []struct {
		amount int
		want   error
	}{
		{0, ErrIllegalAction},
		{399, ErrIllegalAction},
		{2001, ErrIllegalAction},
		{400, nil},
		{1600, nil},
		{1, ErrIllegalAction},
	} {
		if _, err := tbl.BuyIn(clk.env(), "p0", tt.amount); !errors.Is(err, tt.want) {
			t.Errorf("buy in %d: %v, want %v", tt.amount, err, tt.want)
		}
	}
	if got := tbl.Players[0].Chips; got != 2000 {
		t.Errorf("stack %d", got)
	}
	if _, err := tbl.BuyIn(clk.env(), "zed", 500); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("stranger buy in: %v", err)
	}
}

func TestSitOutAfterHand(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000, 1000)
	dealWithButton(t, tbl, clk, 0)
	tbl.DrainEffects()

	credit, err := tbl.RequestSitOut(clk.env(), "p2")
	if err != nil || credit != 0 || !tbl.Player("p2").PendingSitOut {
		t.Fatalf("sit out request: %d %v", credit, err)
	}
	mustAct(t, tbl, clk, "p0", ActionFold, 0)
	mustAct(t, tbl, clk, "p1", ActionFold, 0)

	if tbl.SeatOf("p2") >= 0 || tbl.railbirdIndex("p2") < 0 {
		t.Fatalf("p2 should be on the rail")
	}
	fx := tbl.DrainEffects()
	if len(fx.Credits) != 1 || fx.Credits[0] != (WalletCredit{UID: "p2", Amount: 1010, Reason: "sit_out"}) {
		t.Errorf("credits %+v", fx.Credits)
	}
	if err := tbl.StartNextHand(clk.env(), "p0"); err != nil {
		t.Fatal(err)
	}
	mustHold(t, tbl)
	if tbl.count(func(p *Player) bool { return p.InHand }) != 2 {
		t.Errorf("sat out seat dealt in")
	}
}

func TestRailbirdRejoinsAtShowdown(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000, 1000)
	dealWithButton(t, tbl, clk, 0)

	if _, err := tbl.RequestSitOut(clk.env(), "p2"); err != nil {
		t.Fatal(err)
	}
	mustAct(t, tbl, clk, "p0", ActionFold, 0)
	mustAct(t, tbl, clk, "p1", ActionFold, 0)
	if tbl.Phase != PhaseShowdown || tbl.railbirdIndex("p2") < 0 {
		t.Fatalf("phase %s, p2 on rail %v", tbl.Phase, tbl.railbirdIndex("p2") >= 0)
	}

	if err := tbl.JoinAsPlayer(clk.env(), "p2"); err != nil {
		t.Fatalf("promote after showdown: %v", err)
	}
	if _, err := tbl.BuyIn(clk.env(), "p2", 1000); err != nil {
		t.Fatalf("buy in after showdown: %v", err)
	}
	mustHold(t, tbl)
	if err := tbl.StartNextHand(clk.env(), "p0"); err != nil {
		t.Fatal(err)
	}
	mustHold(t, tbl)
	p2 := tbl.Player("p2")
	if !p2.InHand || len(p2.Hand) != 2 {
		t.Errorf("rejoined seat not dealt in: in hand %v, %d cards", p2.InHand, len(p2.Hand))
	}
}

func TestJoinAtShowdownSeatsDirectly(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000)
	dealWithButton(t, tbl, clk, 0)
	mustAct(t, tbl, clk, "p0", ActionFold, 0)

	seated, err := tbl.Join(clk.env(), "p5", "Late Larry")
	if err != nil || !seated {
		t.Fatalf("join at showdown: seated=%v err=%v", seated, err)
	}
	if _, err := tbl.BuyIn(clk.env(), "p5", 500); err != nil {
		t.Fatal(err)
	}
	if err := tbl.StartNextHand(clk.env(), "p1"); err != nil {
		t.Fatal(err)
	}
	mustHold(t, tbl)
	if tbl.count(func(p *Player) bool { return p.InHand }) != 3 {
		t.Errorf("late seat missed the deal")
	}
}

func TestCancelSitOut(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000)
	dealWithButton(t, tbl, clk, 0)

	if err := tbl.CancelSitOut(clk.env(), "p1"); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("cancel without request: %v", err)
	}
	if _, err := tbl.RequestSitOut(clk.env(), "p1"); err != nil {
		t.Fatal(err)
	}
	if err := tbl.CancelSitOut(clk.env(), "p1"); err != nil {
		t.Fatal(err)
	}
	mustAct(t, tbl, clk, "p0", ActionFold, 0)
	if tbl.SeatOf("p1") < 0 {
		t.Errorf("cancelled sit out still removed the seat")
	}
}

func TestLeaveMidHandFoldsAndCashesOut(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000, 1000)
	dealWithButton(t, tbl, clk, 0)
	tbl.DrainEffects()

	credit, err := tbl.Leave(clk.env(), "p1")
	if err != nil || credit != 0 {
		t.Fatalf("leave: %d %v", credit, err)
	}
	mustHold(t, tbl)
	if tbl.Player("p1").Status != StatusFolded || activeUID(t, tbl) != "p0" {
		t.Fatalf("leaver should fold out of turn")
	}
	mustAct(t, tbl, clk, "p0", ActionFold, 0)

	if tbl.Phase != PhaseShowdown || tbl.SeatOf("p1") >= 0 {
		t.Fatalf("phase %s, leaver seated %v", tbl.Phase, tbl.SeatOf("p1") >= 0)
	}
	fx := tbl.DrainEffects()
	if len(fx.Credits) != 1 || fx.Credits[0] != (WalletCredit{UID: "p1", Amount: 990, Reason: "cash_out"}) {
		t.Errorf("credits %+v", fx.Credits)
	}
	if got := tbl.Player("p2").Chips; got != 1010 {
		t.Errorf("winner has %d", got)
	}
	if tbl.DealerSeat != 0 {
		t.Errorf("dealer seat %d after removal", tbl.DealerSeat)
	}
}

func TestLeaveWhenActive(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000, 1000)
	dealWithButton(t, tbl, clk, 0)

	if _, err := tbl.Leave(clk.env(), "p0"); err != nil {
		t.Fatal(err)
	}
	mustHold(t, tbl)
	if activeUID(t, tbl) != "p1" {
		t.Errorf("turn should pass to the small blind")
	}
}

func TestBots(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000)

	if err := tbl.AddBot(clk.env(), "p1", "bot_1", "Robo", DifficultyHard); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-creator added a bot: %v", err)
	}
	if err := tbl.AddBot(clk.env(), "p0", "bot_1", "Robo", "genius"); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("bad difficulty: %v", err)
	}
	if err := tbl.AddBot(clk.env(), "p0", "bot_1", "Robo", DifficultyHard); err != nil {
		t.Fatal(err)
	}
	bot := tbl.Player("bot_1")
	if bot == nil || !bot.IsBot || bot.Chips != 2000 || bot.Status != StatusActive {
		t.Fatalf("bot seat %+v", bot)
	}

	dealWithButton(t, tbl, clk, 0)
	if err := tbl.KickBot(clk.env(), "p0", "bot_1"); !errors.Is(err, ErrPhaseMismatch) {
		t.Errorf("kick mid-hand: %v", err)
	}
	if err := tbl.AddBot(clk.env(), "p0", "bot_2", "Robo Two", DifficultyEasy); !errors.Is(err, ErrPhaseMismatch) {
		t.Errorf("bot joined mid-hand: %v", err)
	}
	for tbl.Phase != PhaseShowdown {
		mustAct(t, tbl, clk, activeUID(t, tbl), ActionFold, 0)
	}

	if err := tbl.KickBot(clk.env(), "p1", "bot_1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-creator kicked: %v", err)
	}
	if err := tbl.KickBot(clk.env(), "p0", "p1"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("kicked a human: %v", err)
	}
	if err := tbl.KickBot(clk.env(), "p0", "bot_1"); err != nil {
		t.Fatal(err)
	}
	if tbl.SeatOf("bot_1") >= 0 {
		t.Errorf("bot still seated")
	}
	mustHold(t, tbl)
}

func TestBotsChangeBetweenContinuousHands(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 1000)
	dealWithButton(t, tbl, clk, 0)
	mustAct(t, tbl, clk, "p0", ActionFold, 0)

	if err := tbl.AddBot(clk.env(), "p0", "bot_1", "Robo", DifficultyMedium); err != nil {
		t.Fatalf("add bot after showdown: %v", err)
	}
	mustHold(t, tbl)
	if err := tbl.StartNextHand(clk.env(), "p0"); err != nil {
		t.Fatal(err)
	}
	if !tbl.Player("bot_1").InHand {
		t.Fatalf("bot added at showdown missed the deal")
	}
	for tbl.Phase != PhaseShowdown {
		mustAct(t, tbl, clk, activeUID(t, tbl), ActionFold, 0)
	}

	if err := tbl.KickBot(clk.env(), "p0", "bot_1"); err != nil {
		t.Fatalf("kick after showdown: %v", err)
	}
	mustHold(t, tbl)
	if err := tbl.StartNextHand(clk.env(), "p0"); err != nil {
		t.Fatal(err)
	}
	mustHold(t, tbl)
	if tbl.SeatOf("bot_1") >= 0 || tbl.count(func(p *Player) bool { return p.InHand }) != 2 {
		t.Errorf("kicked bot still in play")
	}
}

func TestTeardownRefunds(t *testing.T) {
	t.Parallel()
	tbl, clk := newTestTable(t)
	seat(t, tbl, clk, 1000, 500)
	if err := tbl.AddBot(clk.env(), "p0", "bot_1", "Robo", DifficultyMedium); err != nil {
		t.Fatal(err)
	}
	dealWithButton(t, tbl, clk, 0)
	mustAct(t, tbl, clk, "p0", ActionRaise, 100)

	credits := tbl.Teardown(clk.env())
	want := map[string]int{"p0": 1000, "p1": 500}
	if len(credits) != len(want) {
		t.Fatalf("credits %+v", credits)
	}
	for _, c := range credits {
		if want[c.UID] != c.Amount || c.Reason != "refund" {
			t.Errorf("credit %+v", c)
		}
	}
	if len(tbl.Players) != 0 || tbl.Phase != PhaseIdle {
		t.Errorf("table not emptied")
	}
	mustHold(t, tbl)
}
