// Package handhistory turns finished hands into durable records: one public
// record per hand and one index entry per human participant.
package handhistory

import (
	"time"

	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/poker"
)

// Stakes are the forced bets in effect for the hand.
type Stakes struct {
	SmallBlind int `json:"smallBlind"`
	BigBlind   int `json:"bigBlind"`
	Ante       int `json:"ante,omitempty"`
}

// Player is one seat dealt into the hand. Hand is only set for players who
// showed their cards.
type Player struct {
	Seat              int          `json:"seat"`
	UID               string       `json:"uid"`
	Name              string       `json:"displayName"`
	IsBot             bool         `json:"isBot,omitempty"`
	Position          string       `json:"position"`
	StartChips        int          `json:"startChips"`
	EndChips          int          `json:"endChips"`
	TotalContribution int          `json:"totalContribution"`
	Folded            bool         `json:"folded,omitempty"`
	Hand              []poker.Card `json:"hand,omitempty"`
	Description       string       `json:"description,omitempty"`
}

// Winner sums what one player collected across all pots.
type Winner struct {
	UID         string `json:"uid"`
	Name        string `json:"displayName"`
	Seat        int    `json:"seat"`
	Amount      int    `json:"amount"`
	Description string `json:"description,omitempty"`
}

// Record is the public history of one hand.
type Record struct {
	ID          string              `json:"id"`
	TableID     string              `json:"tableId"`
	HandNumber  int                 `json:"handNumber"`
	Timestamp   time.Time           `json:"timestamp"`
	GameType    poker.GameType      `json:"gameType"`
	BettingType game.BettingType    `json:"bettingType"`
	Mode        game.Mode           `json:"mode"`
	Stakes      Stakes              `json:"stakes"`
	DealerSeat  int                 `json:"dealerSeat"`
	Uncontested bool                `json:"uncontested"`
	Players     []Player            `json:"players"`
	Winners     []Winner            `json:"winners"`
	Community   []poker.Card        `json:"communityCards,omitempty"`
	Pots        []game.Pot          `json:"pots"`
	Actions     []game.ActionRecord `json:"actions"`
}

// UserEntry is a participant's own view of a hand, indexed per user.
type UserEntry struct {
	RecordID          string           `json:"recordId"`
	UID               string           `json:"uid"`
	TableID           string           `json:"tableId"`
	HandNumber        int              `json:"handNumber"`
	Timestamp         time.Time        `json:"timestamp"`
	GameType          poker.GameType   `json:"gameType"`
	BettingType       game.BettingType `json:"bettingType"`
	Mode              game.Mode        `json:"mode"`
	Position          string           `json:"position"`
	Hand              []poker.Card     `json:"hand,omitempty"`
	Description       string           `json:"description,omitempty"`
	TotalContribution int              `json:"totalContribution"`
	WinAmount         int              `json:"winAmount"`
	NetResult         int              `json:"netResult"`
	Opponents         []string         `json:"opponents"`
}

// positionLabels are indexed by distance from the button.
var positionLabels = map[int][]string{
	2: {"BTN", "BB"},
	3: {"BTN", "SB", "BB"},
	4: {"BTN", "SB", "BB", "UTG"},
	5: {"BTN", "SB", "BB", "UTG", "CO"},
	6: {"BTN", "SB", "BB", "UTG", "HJ", "CO"},
}

// Positions labels participants (in seat order) relative to the dealer
// seat. If the dealer was not dealt in, the next seat takes the button.
func Positions(seats []int, dealerSeat int) []string {
	n := len(seats)
	labels, ok := positionLabels[n]
	if !ok {
		return make([]string, n)
	}
	button := 0
	for i, s := range seats {
		if s >= dealerSeat {
			button = i
			break
		}
	}
	out := make([]string, n)
	for i := range seats {
		out[i] = labels[(i-button+n)%n]
	}
	return out
}

// Build turns a finished hand into its public record and the per-user
// entries for every human participant.
func Build(id, tableID string, cfg game.Config, res *game.HandResult) (*Record, []UserEntry) {
	r := &Record{
		ID:          id,
		TableID:     tableID,
		HandNumber:  res.HandNumber,
		Timestamp:   res.EndedAt,
		GameType:    cfg.GameType,
		BettingType: cfg.BettingType,
		Mode:        cfg.Mode(),
		Stakes:      Stakes{SmallBlind: res.SmallBlind, BigBlind: res.BigBlind, Ante: res.Ante},
		DealerSeat:  res.DealerSeat,
		Uncontested: res.Uncontested,
		Community:   res.Board,
		Pots:        res.Pots,
		Actions:     res.Actions,
	}

	seats := make([]int, len(res.Participants))
	for i, p := range res.Participants {
		seats[i] = p.Seat
	}
	positions := Positions(seats, res.DealerSeat)

	for i, p := range res.Participants {
		rp := Player{
			Seat:              p.Seat,
			UID:               p.UID,
			Name:              p.Name,
			IsBot:             p.IsBot,
			Position:          positions[i],
			StartChips:        p.StartChips,
			EndChips:          p.EndChips,
			TotalContribution: p.TotalContribution,
			Folded:            p.Status == game.StatusFolded,
		}
		if p.Showed {
			rp.Hand = p.Hand
			rp.Description = p.Description
		}
		r.Players = append(r.Players, rp)
	}

	for _, a := range res.Awards {
		idx := -1
		for i, w := range r.Winners {
			if w.UID == a.UID {
				idx = i
			}
		}
		if idx < 0 {
			r.Winners = append(r.Winners, Winner{UID: a.UID, Seat: a.Seat, Name: nameOf(res, a.UID)})
			idx = len(r.Winners) - 1
		}
		r.Winners[idx].Amount += a.Amount
		if r.Winners[idx].Description == "" {
			r.Winners[idx].Description = a.Description
		}
	}

	var entries []UserEntry
	for i, p := range res.Participants {
		if p.IsBot {
			continue
		}
		won := res.Won(p.UID)
		e := UserEntry{
			RecordID:          id,
			UID:               p.UID,
			TableID:           tableID,
			HandNumber:        r.HandNumber,
			Timestamp:         r.Timestamp,
			GameType:          r.GameType,
			BettingType:       r.BettingType,
			Mode:              r.Mode,
			Position:          positions[i],
			Hand:              p.Hand,
			Description:       p.Description,
			TotalContribution: p.TotalContribution,
			WinAmount:         won,
			NetResult:         won - p.TotalContribution,
			Opponents:         []string{},
		}
		for _, o := range res.Participants {
			if o.UID != p.UID {
				e.Opponents = append(e.Opponents, o.UID)
			}
		}
		entries = append(entries, e)
	}
	return r, entries
}

func nameOf(res *game.HandResult, uid string) string {
	for _, p := range res.Participants {
		if p.UID == uid {
			return p.Name
		}
	}
	return ""
}
