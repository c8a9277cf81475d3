package game

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lox/pokertable/poker"
)

// Player is one occupied seat.
type Player struct {
	UID               string       `json:"uid"`
	Name              string       `json:"displayName"`
	Chips             int          `json:"chips"`
	Hand              []poker.Card `json:"hand,omitempty"`
	Status            PlayerStatus `json:"status"`
	CurrentRoundBet   int          `json:"currentRoundBet"`
	TotalContribution int          `json:"totalContribution"`
	HasActed          bool         `json:"hasActedThisRound"`
	InHand            bool         `json:"inHand"`
	StartChips        int          `json:"startChips"`
	LastDiscard       int          `json:"lastDiscard"`
	Revealed          bool         `json:"revealed,omitempty"`
	PendingSitOut     bool         `json:"pendingSitOut,omitempty"`
	PendingLeave      bool         `json:"pendingLeave,omitempty"`
	IsBot             bool         `json:"isBot,omitempty"`
	Difficulty        Difficulty   `json:"difficulty,omitempty"`
	BotMemo           *BotMemo     `json:"botMemo,omitempty"`
	JoinedAt          time.Time    `json:"joinedAt"`
}

// BotMemo is state a bot carries between its own decisions within a hand.
type BotMemo struct {
	HandNumber int  `json:"handNumber"`
	Snowing    bool `json:"snowing"`
}

// Railbird is a non-seated observer.
type Railbird struct {
	UID      string    `json:"uid"`
	Name     string    `json:"displayName"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Live reports whether the player still holds a hand that can win.
func (p *Player) Live() bool {
	return p.InHand && (p.Status == StatusActive || p.Status == StatusAllIn)
}

// CanAct reports whether the player can still put chips in.
func (p *Player) CanAct() bool {
	return p.InHand && p.Status == StatusActive && p.Chips > 0
}

func (p *Player) readyForDeal() bool {
	return p.Chips > 0 &&
		p.Status != StatusSittingOut &&
		p.Status != StatusEliminated &&
		!p.PendingSitOut && !p.PendingLeave
}

func (p *Player) resetForHand() {
	p.Hand = nil
	p.CurrentRoundBet = 0
	p.TotalContribution = 0
	p.HasActed = false
	p.InHand = false
	p.StartChips = p.Chips
	p.LastDiscard = -1
	p.Revealed = false
}

// commit moves chips from the stack into the current street.
func (p *Player) commit(amount int) {
	p.Chips -= amount
	p.CurrentRoundBet += amount
	p.TotalContribution += amount
	if p.Chips == 0 && p.InHand {
		p.Status = StatusAllIn
	}
}

// ValidateName trims a display name and checks it is 2-20 characters.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 20 {
		return "", fmt.Errorf("%w: must be 2-20 characters", ErrInvalidName)
	}
	return name, nil
}
