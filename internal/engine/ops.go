package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/internal/store"
	"github.com/lox/pokertable/internal/wallet"
)

// createAttempts bounds retries on table id collisions.
const createAttempts = 5

var errIDTaken = errors.New("table id taken")

// withDefaults fills unset configuration from the engine defaults.
func (e *Engine) withDefaults(cfg game.Config) game.Config {
	d := e.defaults
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = d.MaxPlayers
	}
	if cfg.TurnTimeLimit == 0 {
		cfg.TurnTimeLimit = d.TurnTimeLimit
	}
	if cfg.BuyInMin == 0 {
		cfg.BuyInMin = d.BuyInMin
	}
	if cfg.BuyInMax == 0 {
		cfg.BuyInMax = d.BuyInMax
	}
	if cfg.BotBuyIn == 0 {
		cfg.BotBuyIn = d.BotBuyIn
	}
	if cfg.MaxRaisesPerStreet == 0 {
		cfg.MaxRaisesPerStreet = d.MaxRaisesPerStreet
	}
	if tc := cfg.Tournament; tc != nil && len(tc.Payouts) == 0 && e.payouts != nil {
		seats := cfg.MaxPlayers
		if seats == 0 {
			seats = game.MaxSeats
		}
		withPayouts := *tc
		withPayouts.Payouts = e.payouts(seats)
		cfg.Tournament = &withPayouts
	}
	return cfg
}

// CreateTable opens a table and seats its creator. A non-empty password is
// required from everyone else who joins.
func (e *Engine) CreateTable(ctx context.Context, uid, name string, cfg game.Config, password string) (*game.Table, error) {
	if err := checkHumanUID(uid); err != nil {
		return nil, err
	}
	cfg = e.withDefaults(cfg)
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrIllegalAction, err)
	}
	var hash string
	if password != "" {
		h, err := HashPassword(password, e.password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	for range createAttempts {
		id := e.ids.TableID()
		var created *game.Table
		err := e.store.RunTransaction(ctx, func(tx store.Tx) error {
			if _, err := tx.Get(TableDoc(id)); err == nil {
				return errIDTaken
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			env := e.env()
			t, err := game.NewTable(id, uid, cfg, env.Now)
			if err != nil {
				return err
			}
			t.PasswordHash = hash
			if _, err := t.Join(env, uid, name); err != nil {
				return err
			}
			c := &txn{tx: tx, table: t, env: env, book: wallet.Book{Tx: tx, Opening: e.opening, Now: env.Now}}
			if _, err := e.commit(c); err != nil {
				return err
			}
			created = t
			return nil
		})
		if errors.Is(err, errIDTaken) || errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		e.logger.Info("Table created", "table", id, "game", cfg.GameType, "mode", cfg.Mode(), "creator", uid)
		return created, nil
	}
	return nil, fmt.Errorf("%w: no free table id", ErrConflictRetry)
}

// Join seats uid, or adds them to the rail when no seat can be taken. It
// reports whether uid holds a seat.
func (e *Engine) Join(ctx context.Context, id, uid, name, password string) (bool, error) {
	if err := checkHumanUID(uid); err != nil {
		return false, err
	}
	var seated bool
	err := e.update(ctx, id, func(c *txn) error {
		t := c.table
		if t.PasswordHash != "" && !t.IsParticipant(uid) && uid != t.CreatedBy {
			ok, err := VerifyPassword(password, t.PasswordHash)
			if err != nil {
				return err
			}
			if !ok {
				return game.ErrInvalidPassword
			}
		}
		var err error
		seated, err = t.Join(c.env, uid, name)
		return err
	})
	return seated, err
}

// JoinAsPlayer moves a railbird into a free seat.
func (e *Engine) JoinAsPlayer(ctx context.Context, id, uid string) error {
	return e.update(ctx, id, func(c *txn) error {
		return c.table.JoinAsPlayer(c.env, uid)
	})
}

// BuyIn moves amount from uid's wallet onto their seat. Registering the last
// Sit-and-Go seat starts the tournament.
func (e *Engine) BuyIn(ctx context.Context, id, uid string, amount int) error {
	return e.act(ctx, id, func(c *txn) error {
		debit, err := c.table.BuyIn(c.env, uid, amount)
		if err != nil {
			return err
		}
		if debit > 0 {
			_, err = c.book.Debit(uid, debit, "buy_in", id)
		}
		return err
	})
}

// CashOut removes uid's seat between hands and credits the stack.
func (e *Engine) CashOut(ctx context.Context, id, uid string) error {
	return e.update(ctx, id, func(c *txn) error {
		bot := c.table.IsBot(uid)
		amount, err := c.table.CashOut(c.env, uid)
		c.creditReturned(uid, bot, amount, "cash_out")
		return err
	})
}

// Leave removes uid from the table. A seat in a live hand is folded and
// cashed out when the hand ends.
func (e *Engine) Leave(ctx context.Context, id, uid string) error {
	return e.act(ctx, id, func(c *txn) error {
		bot := c.table.IsBot(uid)
		amount, err := c.table.Leave(c.env, uid)
		c.creditReturned(uid, bot, amount, "cash_out")
		return err
	})
}

// RequestSitOut sends uid to the rail now or, during a hand, when it ends.
func (e *Engine) RequestSitOut(ctx context.Context, id, uid string) error {
	return e.update(ctx, id, func(c *txn) error {
		bot := c.table.IsBot(uid)
		amount, err := c.table.RequestSitOut(c.env, uid)
		c.creditReturned(uid, bot, amount, "sit_out")
		return err
	})
}

// CancelSitOut withdraws a pending sit-out.
func (e *Engine) CancelSitOut(ctx context.Context, id, uid string) error {
	return e.update(ctx, id, func(c *txn) error {
		return c.table.CancelSitOut(c.env, uid)
	})
}

// AddBot seats a house bot. Only the table creator may call it.
func (e *Engine) AddBot(ctx context.Context, id, caller, name string, difficulty game.Difficulty) (string, error) {
	var uid string
	err := e.act(ctx, id, func(c *txn) error {
		uid = e.ids.BotUID(c.env.Now)
		return c.table.AddBot(c.env, caller, uid, name, difficulty)
	})
	return uid, err
}

// KickBot removes a bot between hands.
func (e *Engine) KickBot(ctx context.Context, id, caller, botUID string) error {
	return e.update(ctx, id, func(c *txn) error {
		return c.table.KickBot(c.env, caller, botUID)
	})
}

// StartNextHand clears the last hand and deals the next one.
func (e *Engine) StartNextHand(ctx context.Context, id, uid string) error {
	return e.act(ctx, id, func(c *txn) error {
		return c.table.StartNextHand(c.env, uid)
	})
}

// Act performs a betting action for uid.
func (e *Engine) Act(ctx context.Context, id, uid string, action game.ActionType, amount int) error {
	return e.act(ctx, id, func(c *txn) error {
		return c.table.Act(c.env, uid, action, amount)
	})
}

// Draw exchanges the cards at the given hand indices.
func (e *Engine) Draw(ctx context.Context, id, uid string, discards []int) error {
	return e.act(ctx, id, func(c *txn) error {
		return c.table.Draw(c.env, uid, discards)
	})
}

// RevealHand shows uid's cards after an uncontested win.
func (e *Engine) RevealHand(ctx context.Context, id, uid string) error {
	return e.update(ctx, id, func(c *txn) error {
		return c.table.RevealHand(c.env, uid)
	})
}

// Chat appends a chat line to the activity log.
func (e *Engine) Chat(ctx context.Context, id, uid, text string) error {
	return e.update(ctx, id, func(c *txn) error {
		return c.table.Chat(c.env, uid, text)
	})
}

// ProcessTimeout applies the default action for the active seat if its
// deadline has passed. A non-zero key restricts it to that exact turn, so
// repeated requests for the same turn are no-ops. It reports whether a
// timeout was applied.
func (e *Engine) ProcessTimeout(ctx context.Context, id string, key game.TimeoutKey) (bool, error) {
	applied := false
	err := e.act(ctx, id, func(c *txn) error {
		applied = false
		t := c.table
		if key != (game.TimeoutKey{}) && !sameTurn(key, t.TimeoutKey()) {
			return errSkip
		}
		if err := t.ApplyTimeout(c.env); err != nil {
			if errors.Is(err, game.ErrNotDue) {
				return errSkip
			}
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func sameTurn(a, b game.TimeoutKey) bool {
	return a.Phase == b.Phase && a.ActiveSeat == b.ActiveSeat && a.Deadline.Equal(b.Deadline)
}

// AdvanceBlindLevel moves a running tournament to its next level when the
// current one has expired.
func (e *Engine) AdvanceBlindLevel(ctx context.Context, id string) (bool, error) {
	changed := false
	err := e.update(ctx, id, func(c *txn) error {
		if !c.table.LevelDue(c.env.Now) {
			return errSkip
		}
		changed = c.table.AdvanceBlindLevel(c.env)
		return nil
	})
	return changed, err
}

// TeardownStale deletes a table untouched since before cutoff, returning
// every human's chips to their wallet. It reports whether the table went.
func (e *Engine) TeardownStale(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	removed := false
	err := e.update(ctx, id, func(c *txn) error {
		removed = false
		t := c.table
		if !t.LastActivity.Before(cutoff) {
			return errSkip
		}
		c.credits = append(c.credits, t.Teardown(c.env)...)
		c.deleted = true
		removed = true
		return nil
	})
	if removed && err == nil {
		e.logger.Info("Stale table removed", "table", id)
	}
	return removed, err
}

// act is update followed by any bot turns the transition handed over.
func (e *Engine) act(ctx context.Context, id string, fn func(c *txn) error) error {
	if err := e.update(ctx, id, fn); err != nil {
		return err
	}
	if err := e.DriveBots(ctx, id); err != nil {
		e.logger.Warn("Bot play stopped", "table", id, "error", err)
	}
	return nil
}
