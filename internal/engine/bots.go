package engine

import (
	"context"
	"fmt"

	"github.com/lox/pokertable/internal/bot"
	"github.com/lox/pokertable/internal/game"
)

// DriveBots plays bot turns on the table until a human is to act, the hand
// ends, or the step limit is reached. Each turn is its own transaction.
func (e *Engine) DriveBots(ctx context.Context, id string) error {
	for range e.botSteps {
		played := false
		err := e.update(ctx, id, func(c *txn) error {
			played = false
			t := c.table
			if !t.Phase.InHand() {
				return errSkip
			}
			p := t.Active()
			if p == nil || !p.IsBot {
				return errSkip
			}
			if err := e.playBot(c, p); err != nil {
				return err
			}
			played = true
			return nil
		})
		if err != nil {
			return err
		}
		if !played {
			return nil
		}
	}
	e.logger.Warn("Bot step limit reached", "table", id, "steps", e.botSteps)
	return nil
}

// playBot asks the bot's policy for a move and applies it. A move the table
// rejects is replaced by the safe fallback.
func (e *Engine) playBot(c *txn, p *game.Player) error {
	t := c.table
	s, err := bot.NewSituation(t.ViewFor(p.UID), p.BotMemo)
	if err != nil {
		return err
	}
	d := bot.For(p.Difficulty, t.Config.GameType).Decide(s, c.env.Rand)
	memo := d.Memo
	p.BotMemo = &memo

	if err := e.applyDecision(c, p.UID, d); err != nil {
		e.logger.Warn("Bot move rejected, falling back",
			"table", t.ID, "bot", p.UID, "phase", t.Phase, "action", d.Action, "amount", d.Amount, "error", err)
		if err := e.applyDecision(c, p.UID, bot.Fallback(s)); err != nil {
			return fmt.Errorf("bot %s fallback: %w", p.UID, err)
		}
		return nil
	}
	e.logger.Debug("Bot move", "table", t.ID, "bot", p.UID, "phase", t.Phase, "action", d.Action, "amount", d.Amount, "why", d.Reasoning)
	return nil
}

func (e *Engine) applyDecision(c *txn, uid string, d bot.Decision) error {
	if c.table.Phase.IsDraw() {
		return c.table.Draw(c.env, uid, d.Discards)
	}
	return c.table.Act(c.env, uid, d.Action, d.Amount)
}
