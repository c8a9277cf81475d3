package game

import (
	"fmt"
	"strings"
	"time"
)

// WalletCredit moves chips from the table back to a player's wallet.
// Credits to bot seats are carried with IsBot set and never reach a wallet.
type WalletCredit struct {
	UID    string `json:"uid"`
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
	IsBot  bool   `json:"isBot,omitempty"`
}

// Effects are the consequences of a transition that the caller must persist
// in the same transaction as the table.
type Effects struct {
	Credits      []WalletCredit
	HandFinished *HandResult
}

func (t *Table) credit(p *Player, amount int, reason string) {
	if amount <= 0 {
		return
	}
	t.effects.Credits = append(t.effects.Credits, WalletCredit{UID: p.UID, Amount: amount, Reason: reason, IsBot: p.IsBot})
}

// DrainEffects returns and clears the pending effects.
func (t *Table) DrainEffects() Effects {
	e := t.effects
	t.effects = Effects{}
	return e
}

// ActivityKind groups activity entries.
type ActivityKind string

const (
	KindAction ActivityKind = "action"
	KindEvent  ActivityKind = "event"
	KindChat   ActivityKind = "chat"
)

// MaxActivity bounds the per-table activity ring.
const MaxActivity = 50

// ActivityEntry is one line of the table's activity stream.
type ActivityEntry struct {
	Kind       ActivityKind `json:"kind"`
	EventType  string       `json:"eventType"`
	Text       string       `json:"text"`
	PlayerUID  string       `json:"playerUid,omitempty"`
	PlayerName string       `json:"playerName,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

func (t *Table) appendActivity(e ActivityEntry) {
	t.Activity = append(t.Activity, e)
	if over := len(t.Activity) - MaxActivity; over > 0 {
		t.Activity = append([]ActivityEntry(nil), t.Activity[over:]...)
	}
}

func (t *Table) event(env Env, eventType, format string, args ...any) {
	t.appendActivity(ActivityEntry{
		Kind:      KindEvent,
		EventType: eventType,
		Text:      fmt.Sprintf(format, args...),
		Timestamp: env.Now,
	})
}

func (t *Table) playerEvent(env Env, kind ActivityKind, eventType string, p *Player, format string, args ...any) {
	t.appendActivity(ActivityEntry{
		Kind:       kind,
		EventType:  eventType,
		Text:       fmt.Sprintf(format, args...),
		PlayerUID:  p.UID,
		PlayerName: p.Name,
		Timestamp:  env.Now,
	})
}

// MaxChatLength bounds a chat message in characters.
const MaxChatLength = 200

// Chat appends a message from a seated player or railbird.
func (t *Table) Chat(env Env, uid, text string) error {
	text = strings.TrimSpace(text)
	if text == "" || len([]rune(text)) > MaxChatLength {
		return fmt.Errorf("%w: chat must be 1-%d characters", ErrIllegalAction, MaxChatLength)
	}
	name := ""
	if p := t.Player(uid); p != nil {
		name = p.Name
	} else if i := t.railbirdIndex(uid); i >= 0 {
		name = t.Railbirds[i].Name
	} else {
		return ErrPlayerNotFound
	}
	t.appendActivity(ActivityEntry{
		Kind:       KindChat,
		EventType:  "chat",
		Text:       text,
		PlayerUID:  uid,
		PlayerName: name,
		Timestamp:  env.Now,
	})
	t.LastActivity = env.Now
	return nil
}
