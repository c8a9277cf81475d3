package client

import (
	"context"

	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/internal/server"
)

// CreateTable opens a table and subscribes to it. It returns the table ID.
func (c *Client) CreateTable(ctx context.Context, data server.CreateTableData) (string, error) {
	ack, err := c.Call(ctx, server.MessageCreateTable, data)
	if err != nil {
		return "", err
	}
	return ack.TableID, nil
}

// JoinTable joins as a player if a seat is free, otherwise as a railbird.
func (c *Client) JoinTable(ctx context.Context, tableID, displayName, password string) (seated bool, err error) {
	ack, err := c.Call(ctx, server.MessageJoinTable, server.JoinTableData{
		TableID:     tableID,
		DisplayName: displayName,
		Password:    password,
	})
	if err != nil {
		return false, err
	}
	return ack.Seated != nil && *ack.Seated, nil
}

func (c *Client) Subscribe(ctx context.Context, tableID string) error {
	_, err := c.Call(ctx, server.MessageSubscribe, server.TableRef{TableID: tableID})
	return err
}

func (c *Client) BuyIn(ctx context.Context, tableID string, amount int) error {
	_, err := c.Call(ctx, server.MessageBuyIn, server.BuyInData{TableID: tableID, Amount: amount})
	return err
}

func (c *Client) StartHand(ctx context.Context, tableID string) error {
	_, err := c.Call(ctx, server.MessageStartHand, server.TableRef{TableID: tableID})
	return err
}

func (c *Client) Act(ctx context.Context, tableID string, action game.ActionType, amount int) error {
	_, err := c.Call(ctx, server.MessageAction, server.ActionData{TableID: tableID, Action: action, Amount: amount})
	return err
}

// Draw discards the cards at the given hand indexes.
func (c *Client) Draw(ctx context.Context, tableID string, discards []int) error {
	if discards == nil {
		discards = []int{}
	}
	_, err := c.Call(ctx, server.MessageDraw, server.DrawData{TableID: tableID, Discards: discards})
	return err
}

func (c *Client) Chat(ctx context.Context, tableID, text string) error {
	_, err := c.Call(ctx, server.MessageChat, server.ChatData{TableID: tableID, Text: text})
	return err
}

// AddBot seats a house bot and returns its uid.
func (c *Client) AddBot(ctx context.Context, tableID, name string, difficulty game.Difficulty) (string, error) {
	ack, err := c.Call(ctx, server.MessageAddBot, server.AddBotData{
		TableID:     tableID,
		DisplayName: name,
		Difficulty:  string(difficulty),
	})
	if err != nil {
		return "", err
	}
	return ack.BotUID, nil
}

func (c *Client) Leave(ctx context.Context, tableID string) error {
	_, err := c.Call(ctx, server.MessageLeaveTable, server.TableRef{TableID: tableID})
	return err
}
