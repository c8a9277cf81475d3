package server

import (
	"encoding/json"
	"time"

	"github.com/lox/pokertable/internal/game"
)

// Message is the envelope of every WebSocket frame in both directions.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// MessageType names a command or a push.
type MessageType string

// Client → server commands.
const (
	MessageCreateTable  MessageType = "create_table"
	MessageJoinTable    MessageType = "join_table"
	MessageSubscribe    MessageType = "subscribe"
	MessageUnsubscribe  MessageType = "unsubscribe"
	MessageJoinAsPlayer MessageType = "join_as_player"
	MessageBuyIn        MessageType = "buy_in"
	MessageCashOut      MessageType = "cash_out"
	MessageLeaveTable   MessageType = "leave_table"
	MessageSitOut       MessageType = "sit_out"
	MessageCancelSitOut MessageType = "cancel_sit_out"
	MessageAddBot       MessageType = "add_bot"
	MessageKickBot      MessageType = "kick_bot"
	MessageStartHand    MessageType = "start_hand"
	MessageAction       MessageType = "action"
	MessageDraw         MessageType = "draw"
	MessageReveal       MessageType = "reveal"
	MessageChat         MessageType = "chat"
	MessageTimeout      MessageType = "timeout"
)

// Server → client pushes.
const (
	MessageWelcome     MessageType = "welcome"
	MessageAck         MessageType = "ack"
	MessageError       MessageType = "error"
	MessageTableState  MessageType = "table_state"
	MessageTableClosed MessageType = "table_closed"
)

// NewMessage creates a message with the current timestamp.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server data

type TableRef struct {
	TableID string `json:"tableId"`
}

type TournamentData struct {
	BuyIn         int   `json:"buyIn"`
	StartingStack int   `json:"startingStack,omitempty"`
	LevelMinutes  int   `json:"levelMinutes,omitempty"`
	Payouts       []int `json:"payouts,omitempty"`
}

type CreateTableData struct {
	DisplayName        string          `json:"displayName"`
	Password           string          `json:"password,omitempty"`
	GameType           string          `json:"gameType"`
	BettingType        string          `json:"bettingType,omitempty"`
	MaxPlayers         int             `json:"maxPlayers,omitempty"`
	MinBet             int             `json:"minBet,omitempty"`
	SmallBlind         int             `json:"smallBlind,omitempty"`
	TurnTimeSeconds    int             `json:"turnTimeSeconds,omitempty"`
	BuyInMin           int             `json:"buyInMin,omitempty"`
	BuyInMax           int             `json:"buyInMax,omitempty"`
	BotBuyIn           int             `json:"botBuyIn,omitempty"`
	MaxRaisesPerStreet int             `json:"maxRaisesPerStreet,omitempty"`
	Tournament         *TournamentData `json:"tournament,omitempty"`
}

type JoinTableData struct {
	TableID     string `json:"tableId"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password,omitempty"`
}

type BuyInData struct {
	TableID string `json:"tableId"`
	Amount  int    `json:"amount"`
}

type AddBotData struct {
	TableID     string `json:"tableId"`
	DisplayName string `json:"displayName,omitempty"`
	Difficulty  string `json:"difficulty"`
}

type KickBotData struct {
	TableID string `json:"tableId"`
	BotUID  string `json:"botUid"`
}

type ActionData struct {
	TableID string          `json:"tableId"`
	Action  game.ActionType `json:"action"`
	Amount  int             `json:"amount,omitempty"`
}

type DrawData struct {
	TableID  string `json:"tableId"`
	Discards []int  `json:"discards"`
}

type ChatData struct {
	TableID string `json:"tableId"`
	Text    string `json:"text"`
}

type TimeoutData struct {
	TableID      string     `json:"tableId"`
	Phase        game.Phase `json:"phase,omitempty"`
	ActiveSeat   int        `json:"activeSeat,omitempty"`
	TurnDeadline time.Time  `json:"turnDeadline"`
}

// Server → Client data

type WelcomeData struct {
	UID      string        `json:"uid"`
	Commands []MessageType `json:"commands"`
}

// AckData confirms a command. Results arrive on the table_state stream;
// the ack only carries identifiers the caller could not otherwise know.
type AckData struct {
	Command MessageType `json:"command"`
	TableID string      `json:"tableId,omitempty"`
	Seated  *bool       `json:"seated,omitempty"`
	BotUID  string      `json:"botUid,omitempty"`
	Applied *bool       `json:"applied,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TableClosedData struct {
	TableID string `json:"tableId"`
}
