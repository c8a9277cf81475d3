package poker

import (
	"errors"
	"testing"

	"github.com/lox/pokertable/internal/randutil"
)

func lowball(t *testing.T, s string) HandValue {
	t.Helper()
	v, err := Evaluate(MustParseCards(s), TripleDraw)
	if err != nil {
		t.Fatalf("evaluate %q: %v", s, err)
	}
	return v
}

func holdem(t *testing.T, s string) HandValue {
	t.Helper()
	v, err := Evaluate(MustParseCards(s), Holdem)
	if err != nil {
		t.Fatalf("evaluate %q: %v", s, err)
	}
	return v
}

func TestLowballCategories(t *testing.T) {
	t.Parallel()
	tests := []struct {
		hand string
		want HandType
		key  string
	}{
		{"7s 5d 4c 3h 2s", HighCard, "000705040302"},
		{"6s 5d 4c 3h 2s", Straight, "0406"},
		{"As 5d 4c 3h 2s", HighCard, "001405040302"},
		{"Ts Js Qc Kh As", Straight, "0414"},
		{"8h 6h 4h 3h 2h", Flush, "050806040302"},
		{"8s 8d 5c 3h 2s", Pair, "0108050302"},
		{"8s 8d 3c 3h 2s", TwoPair, "02080302"},
		{"9s 9d 9c 3h 2s", ThreeOfAKind, "03090302"},
		{"9s 9d 9c 3h 3s", FullHouse, "060903"},
		{"9s 9d 9c 9h 3s", FourOfAKind, "070903"},
		{"6s 5s 4s 3s 2s", StraightFlush, "0806"},
	}
	for _, tt := range tests {
		v := lowball(t, tt.hand)
		if v.Type != tt.want {
			t.Errorf("%s: type %s, want %s", tt.hand, v.Type, tt.want)
		}
		if v.Key() != tt.key {
			t.Errorf("%s: key %s, want %s", tt.hand, v.Key(), tt.key)
		}
	}
}

func TestLowballOrdering(t *testing.T) {
	t.Parallel()
	// Best to worst.
	hands := []string{
		"7s 5d 4c 3h 2s",
		"7s 6d 4c 3h 2s",
		"8s 5d 4c 3h 2s",
		"8s 6d 5c 4h 2s",
		"9s 8d 7c 6h 4s",
		"Ks Qd Jc Th 8s",
		"As 5d 4c 3h 2s",
		"2s 2d 5c 4h 3s",
		"As Ad Kc Qh Js",
		"3s 3d 2c 2h 4s",
		"2s 2d 2c 3h 4s",
		"6s 5d 4c 3h 2s",
		"8h 6h 4h 3h 2h",
		"2s 2d 2c 3h 3s",
		"2s 2d 2c 2h 3s",
		"6s 5s 4s 3s 2s",
	}
	for i := 1; i < len(hands); i++ {
		better, worse := lowball(t, hands[i-1]), lowball(t, hands[i])
		if Compare(better, worse) != 1 {
			t.Errorf("%s should beat %s", hands[i-1], hands[i])
		}
		if Compare(worse, better) != -1 {
			t.Errorf("compare is not antisymmetric for %s vs %s", hands[i-1], hands[i])
		}
	}
}

func TestLowballTie(t *testing.T) {
	t.Parallel()
	a := lowball(t, "7s 5d 4c 3h 2s")
	b := lowball(t, "7d 5c 4h 3s 2c")
	if Compare(a, b) != 0 {
		t.Errorf("suit must not break ties")
	}
}

func TestHoldemBestOfSeven(t *testing.T) {
	t.Parallel()
	tests := []struct {
		cards string
		want  HandType
		desc  string
	}{
		{"Ah Kh Qh Jh Th 2c 3d", StraightFlush, "Straight Flush, Ace high"},
		{"Ah 2d 3c 4s 5h Kd Kc", Straight, "Straight, Five high"},
		{"Ks Kd Kc 5h 5s 2c 3d", FullHouse, "Full House, Kings full of Fives"},
		{"As Ad 9c 9h 4s 4c 2d", TwoPair, "Two Pair, Aces and Nines"},
		{"2h 7h 9h Jh Ah 3c 4d", Flush, "Flush, Ace high"},
		{"As Kd 9c 7h 4s 3c 2d", HighCard, "High Card, Ace"},
	}
	for _, tt := range tests {
		v := holdem(t, tt.cards)
		if v.Type != tt.want {
			t.Errorf("%s: type %s, want %s", tt.cards, v.Type, tt.want)
		}
		if v.String() != tt.desc {
			t.Errorf("%s: description %q, want %q", tt.cards, v.String(), tt.desc)
		}
		if len(v.Cards) != 5 {
			t.Errorf("%s: best hand has %d cards", tt.cards, len(v.Cards))
		}
	}
}

func TestHoldemKickers(t *testing.T) {
	t.Parallel()
	board := "Ks 9d 7c 4h 2s"
	a := holdem(t, board+" Ah Qd")
	b := holdem(t, board+" Ac Jd")
	if Compare(a, b) != 1 {
		t.Errorf("queen kicker should win: %s vs %s", a, b)
	}
	c := holdem(t, board+" 3h 3d")
	if Compare(c, a) != 1 {
		t.Errorf("pair should beat ace high")
	}
	split := holdem(t, "As Ks Qs Js 9d 2c 3c")
	split2 := holdem(t, "As Ks Qs Js 9d 2h 3h")
	if Compare(split, split2) != 0 {
		t.Error("identical best five must tie")
	}
}

func TestCompareAntisymmetricRandom(t *testing.T) {
	t.Parallel()
	rng := randutil.New(99)
	for i := 0; i < 500; i++ {
		deck := NewDeck(rng)
		a, _ := deck.Deal(5)
		b, _ := deck.Deal(5)
		for _, g := range []GameType{SingleDraw, Holdem} {
			va, err := Evaluate(a, g)
			if err != nil {
				t.Fatal(err)
			}
			vb, _ := Evaluate(b, g)
			if Compare(va, vb) != -Compare(vb, va) {
				t.Fatalf("%s: compare not antisymmetric for %s vs %s", g, FormatCards(a), FormatCards(b))
			}
		}
	}
}

func TestEvaluateRejectsBadHands(t *testing.T) {
	t.Parallel()
	if _, err := Evaluate(MustParseCards("7s 5d 4c 3h"), TripleDraw); !errors.Is(err, ErrInvalidHand) {
		t.Errorf("four cards: %v", err)
	}
	if _, err := Evaluate(MustParseCards("7s 7s 4c 3h 2d"), TripleDraw); !errors.Is(err, ErrInvalidHand) {
		t.Errorf("duplicate: %v", err)
	}
	if _, err := Evaluate(MustParseCards("7s 5d 4c 3h"), Holdem); !errors.Is(err, ErrInvalidHand) {
		t.Errorf("holdem four cards: %v", err)
	}
	if !IsCleanLow(MustParseCards("8s 6d 4c 3h 2s"), 8) || IsCleanLow(MustParseCards("8s 6d 4c 3h 2s"), 7) {
		t.Error("IsCleanLow threshold wrong")
	}
}
