package game

import (
	"fmt"
	"time"

	"github.com/lox/pokertable/poker"
)

const (
	MaxSeats             = 6
	DefaultTurnTimeLimit = 45 * time.Second
	DefaultMinBet        = 20
)

// Config is fixed when the table is created.
type Config struct {
	GameType           poker.GameType    `json:"gameType"`
	BettingType        BettingType       `json:"bettingType"`
	MaxPlayers         int               `json:"maxPlayers"`
	MinBet             int               `json:"minBet"`
	SmallBlind         int               `json:"smallBlind"`
	TurnTimeLimit      time.Duration     `json:"turnTimeLimit"`
	BuyInMin           int               `json:"buyInMin,omitempty"`
	BuyInMax           int               `json:"buyInMax,omitempty"`
	BotBuyIn           int               `json:"botBuyIn,omitempty"`
	MaxRaisesPerStreet int               `json:"maxRaisesPerStreet,omitempty"`
	Tournament         *TournamentConfig `json:"tournament,omitempty"`
}

// Mode reports whether this is a cash game or a Sit-and-Go.
func (c Config) Mode() Mode {
	if c.Tournament != nil {
		return ModeTournament
	}
	return ModeCash
}

// Normalize fills defaults and validates the configuration.
func (c *Config) Normalize() error {
	if !c.GameType.Valid() {
		return fmt.Errorf("unknown game type %q", c.GameType)
	}
	if c.BettingType == "" {
		c.BettingType = NoLimit
	}
	if !c.BettingType.Valid() {
		return fmt.Errorf("unknown betting type %q", c.BettingType)
	}
	if c.MaxPlayers == 0 {
		c.MaxPlayers = MaxSeats
	}
	if c.MaxPlayers < 2 || c.MaxPlayers > MaxSeats {
		return fmt.Errorf("max players must be 2-%d, got %d", MaxSeats, c.MaxPlayers)
	}
	if c.TurnTimeLimit == 0 {
		c.TurnTimeLimit = DefaultTurnTimeLimit
	}
	if c.TurnTimeLimit < time.Second {
		return fmt.Errorf("turn time limit %s too short", c.TurnTimeLimit)
	}
	if c.MaxRaisesPerStreet < 0 {
		return fmt.Errorf("max raises per street must not be negative")
	}
	if c.Tournament != nil {
		if err := c.Tournament.normalize(c.MaxPlayers); err != nil {
			return err
		}
		first := c.Tournament.Levels[0]
		c.MinBet, c.SmallBlind = first.BigBlind, first.SmallBlind
		return nil
	}
	if c.MinBet == 0 {
		c.MinBet = DefaultMinBet
	}
	if c.MinBet < 2 {
		return fmt.Errorf("min bet must be at least 2, got %d", c.MinBet)
	}
	if c.SmallBlind == 0 {
		c.SmallBlind = c.MinBet / 2
	}
	if c.SmallBlind < 1 || c.SmallBlind > c.MinBet {
		return fmt.Errorf("small blind %d must be between 1 and the min bet", c.SmallBlind)
	}
	if c.BuyInMin == 0 {
		c.BuyInMin = c.MinBet
	}
	if c.BuyInMax != 0 && c.BuyInMax < c.BuyInMin {
		return fmt.Errorf("buy-in max %d below min %d", c.BuyInMax, c.BuyInMin)
	}
	if c.BotBuyIn == 0 {
		c.BotBuyIn = 100 * c.MinBet
	}
	return nil
}

// CutCard is one seat's card in the cut for dealer.
type CutCard struct {
	UID  string     `json:"uid"`
	Card poker.Card `json:"card"`
}

// Table is the whole persistent state of one table.
type Table struct {
	ID           string    `json:"id"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Config       Config    `json:"config"`

	Phase      Phase       `json:"phase"`
	HandNumber int         `json:"handNumber"`
	Players    []*Player   `json:"players"`
	Railbirds  []*Railbird `json:"railbirds"`

	Deck      poker.Deck   `json:"deck"`
	Community []poker.Card `json:"communityCards,omitempty"`
	CutCards  []CutCard    `json:"cutCards,omitempty"`
	Pots      []Pot        `json:"pots,omitempty"`

	CurrentBet       int `json:"currentBet"`
	LastRaiseAmount  int `json:"lastRaiseAmount"`
	RaisesThisStreet int `json:"raisesThisStreet"`
	MinBet           int `json:"minBet"`
	SmallBlind       int `json:"smallBlind"`
	Ante             int `json:"ante,omitempty"`

	ActiveSeat     int       `json:"activeSeat"`
	DealerSeat     int       `json:"dealerSeat"`
	SmallBlindSeat int       `json:"smallBlindSeat"`
	BigBlindSeat   int       `json:"bigBlindSeat"`
	TurnDeadline   time.Time `json:"turnDeadline"`

	// HandTotal is the chip baseline of the seats dealt into the current hand.
	HandTotal int            `json:"handTotal"`
	HandLog   []ActionRecord `json:"handLog,omitempty"`

	LastResult *HandResult     `json:"lastResult,omitempty"`
	Tournament *Tournament     `json:"tournament,omitempty"`
	Activity   []ActivityEntry `json:"activity"`

	effects Effects
}

// NewTable creates an empty table in IDLE.
func NewTable(id, createdBy string, cfg Config, now time.Time) (*Table, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	t := &Table{
		ID:             id,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		LastActivity:   now,
		Config:         cfg,
		Phase:          PhaseIdle,
		MinBet:         cfg.MinBet,
		SmallBlind:     cfg.SmallBlind,
		ActiveSeat:     -1,
		DealerSeat:     -1,
		SmallBlindSeat: -1,
		BigBlindSeat:   -1,
	}
	if cfg.Tournament != nil {
		t.Tournament = &Tournament{
			State:      TournamentRegistering,
			TotalSeats: cfg.MaxPlayers,
		}
	}
	return t, nil
}

// SeatOf returns the seat index of uid, or -1.
func (t *Table) SeatOf(uid string) int {
	for i, p := range t.Players {
		if p.UID == uid {
			return i
		}
	}
	return -1
}

// Player returns the seated player with uid, or nil.
func (t *Table) Player(uid string) *Player {
	if i := t.SeatOf(uid); i >= 0 {
		return t.Players[i]
	}
	return nil
}

// IsBot reports whether uid holds a bot seat.
func (t *Table) IsBot(uid string) bool {
	p := t.Player(uid)
	return p != nil && p.IsBot
}

// Active returns the player whose turn it is, or nil.
func (t *Table) Active() *Player {
	if t.ActiveSeat < 0 || t.ActiveSeat >= len(t.Players) {
		return nil
	}
	return t.Players[t.ActiveSeat]
}

func (t *Table) railbirdIndex(uid string) int {
	for i, r := range t.Railbirds {
		if r.UID == uid {
			return i
		}
	}
	return -1
}

// IsParticipant reports whether uid is seated or watching.
func (t *Table) IsParticipant(uid string) bool {
	return t.SeatOf(uid) >= 0 || t.railbirdIndex(uid) >= 0
}

// nextSeat walks clockwise from the seat after from and returns the first
// seat matching pred, checking from itself last. It returns -1 if none match.
func (t *Table) nextSeat(from int, pred func(*Player) bool) int {
	n := len(t.Players)
	if n == 0 {
		return -1
	}
	if from < 0 {
		from = n - 1
	}
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		if pred(t.Players[i]) {
			return i
		}
	}
	return -1
}

func (t *Table) count(pred func(*Player) bool) int {
	n := 0
	for _, p := range t.Players {
		if pred(p) {
			n++
		}
	}
	return n
}

// distanceFromDealer is 1 for the seat left of the dealer and n for the dealer.
func (t *Table) distanceFromDealer(seat int) int {
	n := len(t.Players)
	d := (seat - t.DealerSeat + n) % n
	if d == 0 {
		d = n
	}
	return d
}

// PotTotal is every chip in the middle: frozen pots plus this street's bets.
func (t *Table) PotTotal() int {
	total := 0
	for _, pot := range t.Pots {
		total += pot.Amount
	}
	for _, p := range t.Players {
		total += p.CurrentRoundBet
	}
	return total
}

func (t *Table) setDeadline(env Env) {
	t.TurnDeadline = env.Now.Add(t.Config.TurnTimeLimit)
}

func (t *Table) clearTurn() {
	t.ActiveSeat = -1
	t.TurnDeadline = time.Time{}
}

// removeSeat deletes a seat outside of live play and keeps DealerSeat
// pointing at the same physical button position.
func (t *Table) removeSeat(i int) *Player {
	p := t.Players[i]
	if len(p.Hand) > 0 {
		t.Deck.Discard(p.Hand...)
		p.Hand = nil
	}
	t.Players = append(t.Players[:i], t.Players[i+1:]...)
	switch {
	case len(t.Players) == 0:
		t.DealerSeat = -1
	case t.DealerSeat > i:
		t.DealerSeat--
	case t.DealerSeat == i:
		t.DealerSeat = (i - 1 + len(t.Players)) % len(t.Players)
	}
	t.SmallBlindSeat, t.BigBlindSeat = -1, -1
	return p
}
