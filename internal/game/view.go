package game

import (
	"slices"
	"time"

	"github.com/lox/pokertable/poker"
)

// PlayerView is a seat as seen by one viewer.
type PlayerView struct {
	UID               string       `json:"uid"`
	Name              string       `json:"displayName"`
	Chips             int          `json:"chips"`
	Hand              []poker.Card `json:"hand,omitempty"`
	CardCount         int          `json:"cardCount"`
	Status            PlayerStatus `json:"status"`
	CurrentRoundBet   int          `json:"currentRoundBet"`
	TotalContribution int          `json:"totalContribution"`
	HasActed          bool         `json:"hasActedThisRound"`
	InHand            bool         `json:"inHand"`
	LastDiscard       int          `json:"lastDiscard"`
	PendingSitOut     bool         `json:"pendingSitOut,omitempty"`
	PendingLeave      bool         `json:"pendingLeave,omitempty"`
	IsBot             bool         `json:"isBot,omitempty"`
	Difficulty        Difficulty   `json:"difficulty,omitempty"`
}

// View is the table as delivered to one subscriber: the deck, password hash
// and bot memory are dropped and hole cards are hidden unless they belong
// to the viewer or were shown at showdown.
type View struct {
	ID              string          `json:"id"`
	CreatedBy       string          `json:"createdBy"`
	Config          Config          `json:"config"`
	HasPassword     bool            `json:"hasPassword"`
	Phase           Phase           `json:"phase"`
	HandNumber      int             `json:"handNumber"`
	Players         []PlayerView    `json:"players"`
	Railbirds       []*Railbird     `json:"railbirds"`
	Community       []poker.Card    `json:"communityCards,omitempty"`
	CutCards        []CutCard       `json:"cutCards,omitempty"`
	Pot             int             `json:"pot"`
	Pots            []Pot           `json:"pots,omitempty"`
	CurrentBet      int             `json:"currentBet"`
	LastRaiseAmount int             `json:"lastRaiseAmount"`
	MinBet          int             `json:"minBet"`
	SmallBlind      int             `json:"smallBlind"`
	Ante            int             `json:"ante,omitempty"`
	ActiveSeat      int             `json:"activeSeat"`
	DealerSeat      int             `json:"dealerSeat"`
	SmallBlindSeat  int             `json:"smallBlindSeat"`
	BigBlindSeat    int             `json:"bigBlindSeat"`
	TurnDeadline    time.Time       `json:"turnDeadline"`
	DeckCount       int             `json:"deckCount"`
	MuckCount       int             `json:"muckCount"`
	LastResult      *HandResult     `json:"lastResult,omitempty"`
	Tournament      *Tournament     `json:"tournament,omitempty"`
	Activity        []ActivityEntry `json:"activity"`

	Viewer       string        `json:"viewer"`
	ViewerSeat   int           `json:"viewerSeat"`
	LegalActions []LegalAction `json:"legalActions,omitempty"`
}

// shown reports whether uid's hole cards are public.
func (t *Table) shown(uid string) bool {
	if t.Phase != PhaseShowdown || t.LastResult == nil {
		return false
	}
	for _, part := range t.LastResult.Participants {
		if part.UID == uid {
			return part.Showed
		}
	}
	return false
}

// ViewFor renders the table for viewer, who may be a seat, a railbird or
// nobody at all.
func (t *Table) ViewFor(viewer string) *View {
	v := &View{
		ID:              t.ID,
		CreatedBy:       t.CreatedBy,
		Config:          t.Config,
		HasPassword:     t.PasswordHash != "",
		Phase:           t.Phase,
		HandNumber:      t.HandNumber,
		Railbirds:       slices.Clone(t.Railbirds),
		Community:       slices.Clone(t.Community),
		CutCards:        slices.Clone(t.CutCards),
		Pot:             t.PotTotal(),
		Pots:            slices.Clone(t.Pots),
		CurrentBet:      t.CurrentBet,
		LastRaiseAmount: t.LastRaiseAmount,
		MinBet:          t.MinBet,
		SmallBlind:      t.SmallBlind,
		Ante:            t.Ante,
		ActiveSeat:      t.ActiveSeat,
		DealerSeat:      t.DealerSeat,
		SmallBlindSeat:  t.SmallBlindSeat,
		BigBlindSeat:    t.BigBlindSeat,
		TurnDeadline:    t.TurnDeadline,
		DeckCount:       len(t.Deck.Cards),
		MuckCount:       len(t.Deck.Muck),
		Tournament:      t.Tournament,
		Activity:        slices.Clone(t.Activity),
		Viewer:          viewer,
		ViewerSeat:      t.SeatOf(viewer),
	}
	for _, p := range t.Players {
		pv := PlayerView{
			UID:               p.UID,
			Name:              p.Name,
			Chips:             p.Chips,
			CardCount:         len(p.Hand),
			Status:            p.Status,
			CurrentRoundBet:   p.CurrentRoundBet,
			TotalContribution: p.TotalContribution,
			HasActed:          p.HasActed,
			InHand:            p.InHand,
			LastDiscard:       p.LastDiscard,
			PendingSitOut:     p.PendingSitOut,
			PendingLeave:      p.PendingLeave,
			IsBot:             p.IsBot,
			Difficulty:        p.Difficulty,
		}
		if viewer != "" && p.UID == viewer || t.shown(p.UID) {
			pv.Hand = slices.Clone(p.Hand)
		}
		v.Players = append(v.Players, pv)
	}
	if t.LastResult != nil {
		r := *t.LastResult
		r.Participants = slices.Clone(r.Participants)
		for i := range r.Participants {
			part := &r.Participants[i]
			if !part.Showed && part.UID != viewer {
				part.Hand = nil
			}
		}
		v.LastResult = &r
	}
	if v.ViewerSeat >= 0 {
		v.LegalActions = t.LegalActions(v.ViewerSeat)
	}
	return v
}
