package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/poker"
)

// errorCode extends the table error codes with the engine's own failures.
func errorCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrConflictRetry):
		return "CONFLICT_RETRY"
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	}
	return game.ErrorCode(err)
}

// handle runs one validated command and answers with an ack or an error.
// State changes are not echoed here; they arrive on the table stream.
func (s *Server) handle(c *Connection, msg *Message) {
	ctx, cancel := context.WithTimeout(c.ctx, commandTimeout)
	defer cancel()

	start := time.Now()
	ack, err := s.dispatch(ctx, c, msg)
	if err != nil {
		code := errorCode(err)
		if code == "INTERNAL" || code == "INTERNAL_STATE_ERROR" {
			c.logger.Error("Command failed", "type", msg.Type, "error", err)
		} else {
			c.logger.Debug("Command rejected", "type", msg.Type, "code", code, "error", err)
		}
		c.sendError(msg.RequestID, code, err.Error())
		return
	}
	ack.Command = msg.Type
	c.logger.Debug("Command done", "type", msg.Type, "table", ack.TableID, "duration", time.Since(start))
	c.reply(msg.RequestID, MessageAck, ack)
}

func decode[T any](msg *Message) (T, error) {
	var v T
	if len(msg.Data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(msg.Data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", game.ErrIllegalAction, err)
	}
	return v, nil
}

func (s *Server) dispatch(ctx context.Context, c *Connection, msg *Message) (AckData, error) {
	e := s.engine
	uid := c.uid

	switch msg.Type {
	case MessageCreateTable:
		d, err := decode[CreateTableData](msg)
		if err != nil {
			return AckData{}, err
		}
		tbl, err := e.CreateTable(ctx, uid, d.DisplayName, d.config(), d.Password)
		if err != nil {
			return AckData{}, err
		}
		// The creator always wants to watch their own table.
		if err := c.subscribe(tbl.ID); err != nil {
			return AckData{}, err
		}
		return AckData{TableID: tbl.ID}, nil

	case MessageJoinTable:
		d, err := decode[JoinTableData](msg)
		if err != nil {
			return AckData{}, err
		}
		seated, err := e.Join(ctx, d.TableID, uid, d.DisplayName, d.Password)
		if err != nil {
			return AckData{}, err
		}
		if err := c.subscribe(d.TableID); err != nil {
			return AckData{}, err
		}
		return AckData{TableID: d.TableID, Seated: &seated}, nil

	case MessageSubscribe:
		d, err := decode[TableRef](msg)
		if err != nil {
			return AckData{}, err
		}
		return AckData{TableID: d.TableID}, c.subscribe(d.TableID)

	case MessageUnsubscribe:
		d, err := decode[TableRef](msg)
		if err != nil {
			return AckData{}, err
		}
		c.unsubscribe(d.TableID)
		return AckData{TableID: d.TableID}, nil

	case MessageBuyIn:
		d, err := decode[BuyInData](msg)
		if err != nil {
			return AckData{}, err
		}
		return AckData{TableID: d.TableID}, e.BuyIn(ctx, d.TableID, uid, d.Amount)

	case MessageAddBot:
		d, err := decode[AddBotData](msg)
		if err != nil {
			return AckData{}, err
		}
		name := d.DisplayName
		if name == "" {
			name = fmt.Sprintf("%s bot", d.Difficulty)
		}
		botUID, err := e.AddBot(ctx, d.TableID, uid, name, game.Difficulty(d.Difficulty))
		if err != nil {
			return AckData{}, err
		}
		return AckData{TableID: d.TableID, BotUID: botUID}, nil

	case MessageKickBot:
		d, err := decode[KickBotData](msg)
		if err != nil {
			return AckData{}, err
		}
		return AckData{TableID: d.TableID}, e.KickBot(ctx, d.TableID, uid, d.BotUID)

	case MessageAction:
		d, err := decode[ActionData](msg)
		if err != nil {
			return AckData{}, err
		}
		return AckData{TableID: d.TableID}, e.Act(ctx, d.TableID, uid, d.Action, d.Amount)

	case MessageDraw:
		d, err := decode[DrawData](msg)
		if err != nil {
			return AckData{}, err
		}
		return AckData{TableID: d.TableID}, e.Draw(ctx, d.TableID, uid, d.Discards)

	case MessageChat:
		d, err := decode[ChatData](msg)
		if err != nil {
			return AckData{}, err
		}
		return AckData{TableID: d.TableID}, e.Chat(ctx, d.TableID, uid, d.Text)

	case MessageTimeout:
		d, err := decode[TimeoutData](msg)
		if err != nil {
			return AckData{}, err
		}
		var key game.TimeoutKey
		if d.Phase != "" {
			key = game.TimeoutKey{Phase: d.Phase, ActiveSeat: d.ActiveSeat, Deadline: d.TurnDeadline}
		}
		applied, err := e.ProcessTimeout(ctx, d.TableID, key)
		if err != nil {
			return AckData{}, err
		}
		return AckData{TableID: d.TableID, Applied: &applied}, nil
	}

	// The rest only name a table.
	d, err := decode[TableRef](msg)
	if err != nil {
		return AckData{}, err
	}
	ack := AckData{TableID: d.TableID}
	switch msg.Type {
	case MessageJoinAsPlayer:
		err = e.JoinAsPlayer(ctx, d.TableID, uid)
	case MessageCashOut:
		err = e.CashOut(ctx, d.TableID, uid)
	case MessageLeaveTable:
		err = e.Leave(ctx, d.TableID, uid)
		if err == nil {
			c.unsubscribe(d.TableID)
		}
	case MessageSitOut:
		err = e.RequestSitOut(ctx, d.TableID, uid)
	case MessageCancelSitOut:
		err = e.CancelSitOut(ctx, d.TableID, uid)
	case MessageStartHand:
		err = e.StartNextHand(ctx, d.TableID, uid)
	case MessageReveal:
		err = e.RevealHand(ctx, d.TableID, uid)
	default:
		err = fmt.Errorf("%w: unsupported command %s", game.ErrIllegalAction, msg.Type)
	}
	return ack, err
}

// config converts the command into a table configuration. Unset fields are
// filled from the engine defaults.
func (d CreateTableData) config() game.Config {
	cfg := game.Config{
		GameType:           poker.GameType(d.GameType),
		BettingType:        game.BettingType(d.BettingType),
		MaxPlayers:         d.MaxPlayers,
		MinBet:             d.MinBet,
		SmallBlind:         d.SmallBlind,
		TurnTimeLimit:      time.Duration(d.TurnTimeSeconds) * time.Second,
		BuyInMin:           d.BuyInMin,
		BuyInMax:           d.BuyInMax,
		BotBuyIn:           d.BotBuyIn,
		MaxRaisesPerStreet: d.MaxRaisesPerStreet,
	}
	if t := d.Tournament; t != nil {
		tc := &game.TournamentConfig{
			BuyIn:         t.BuyIn,
			StartingStack: t.StartingStack,
			Payouts:       t.Payouts,
		}
		if t.LevelMinutes > 0 {
			for _, l := range game.DefaultLevels() {
				l.Duration = time.Duration(t.LevelMinutes) * time.Minute
				tc.Levels = append(tc.Levels, l)
			}
		}
		cfg.Tournament = tc
	}
	return cfg
}
