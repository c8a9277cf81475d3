package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/internal/handhistory"
	"github.com/lox/pokertable/internal/store"
	"github.com/lox/pokertable/internal/wallet"
)

// Table loads the full table document. It is for trusted callers only; use
// View for anything shown to a player.
func (e *Engine) Table(ctx context.Context, id string) (*game.Table, error) {
	t, err := store.Get[game.Table](ctx, e.store, TableDoc(id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", game.ErrTableNotFound, id)
	}
	return t, err
}

// View renders the table for viewer.
func (e *Engine) View(ctx context.Context, id, viewer string) (*game.View, error) {
	t, err := e.Table(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.ViewFor(viewer), nil
}

// Subscribe streams viewer's view of the table: the current state first,
// then one view per commit, in commit order. The channel closes when ctx is
// done, the table is deleted, or the subscriber falls too far behind.
func (e *Engine) Subscribe(ctx context.Context, id, viewer string) (<-chan *game.View, error) {
	sub := e.store.Subscribe(TableDoc(id))
	first, err := e.store.Get(ctx, TableDoc(id))
	if err != nil {
		sub.Close()
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", game.ErrTableNotFound, id)
		}
		return nil, err
	}

	out := make(chan *game.View, store.SubscriptionBuffer)
	go func() {
		defer close(out)
		defer sub.Close()
		var last int64
		send := func(d *store.Doc) bool {
			if d.Version <= last {
				return true
			}
			last = d.Version
			var t game.Table
			if err := d.Decode(&t); err != nil {
				e.logger.Error("Undecodable table snapshot", "table", id, "error", err)
				return false
			}
			select {
			case out <- t.ViewFor(viewer):
				return true
			case <-ctx.Done():
				return false
			}
		}
		if !send(first) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-sub.C:
				if !ok || d.Deleted || !send(d) {
					return
				}
			}
		}
	}()
	return out, nil
}

// Summary is a lobby line for one table.
type Summary struct {
	ID           string           `json:"id"`
	GameType     string           `json:"gameType"`
	BettingType  game.BettingType `json:"bettingType"`
	Mode         game.Mode        `json:"mode"`
	Phase        game.Phase       `json:"phase"`
	Players      int              `json:"players"`
	MaxPlayers   int              `json:"maxPlayers"`
	MinBet       int              `json:"minBet"`
	HasPassword  bool             `json:"hasPassword"`
	LastActivity time.Time        `json:"lastActivity"`
}

// ListTables returns up to limit tables, most recently active first.
func (e *Engine) ListTables(ctx context.Context, limit int) ([]Summary, error) {
	docs, err := e.store.QueryLess(ctx, "tables/", IndexLastActivity, math.MaxInt64, 0)
	if err != nil {
		return nil, err
	}
	slices.Reverse(docs)
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	out := make([]Summary, 0, len(docs))
	for _, d := range docs {
		var t game.Table
		if err := d.Decode(&t); err != nil {
			return nil, err
		}
		out = append(out, Summary{
			ID:           t.ID,
			GameType:     string(t.Config.GameType),
			BettingType:  t.Config.BettingType,
			Mode:         t.Config.Mode(),
			Phase:        t.Phase,
			Players:      len(t.Players),
			MaxPlayers:   t.Config.MaxPlayers,
			MinBet:       t.MinBet,
			HasPassword:  t.PasswordHash != "",
			LastActivity: t.LastActivity,
		})
	}
	return out, nil
}

// Wallet returns uid's wallet, or a fresh one with the opening balance if it
// has never been used.
func (e *Engine) Wallet(ctx context.Context, uid string) (*wallet.Wallet, error) {
	w, err := store.Get[wallet.Wallet](ctx, e.store, wallet.DocID(uid))
	if errors.Is(err, store.ErrNotFound) {
		return wallet.New(uid, e.opening, e.clock.Now()), nil
	}
	return w, err
}

// Hand returns a public hand record.
func (e *Engine) Hand(ctx context.Context, recordID string) (*handhistory.Record, error) {
	return store.Get[handhistory.Record](ctx, e.store, HandDoc(recordID))
}

// Hands returns uid's most recent hands, newest first.
func (e *Engine) Hands(ctx context.Context, uid string, limit int) ([]handhistory.UserEntry, error) {
	docs, err := e.store.QueryLess(ctx, UserHandDoc(uid, ""), IndexTimestamp, math.MaxInt64, 0)
	if err != nil {
		return nil, err
	}
	slices.Reverse(docs)
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	out := make([]handhistory.UserEntry, 0, len(docs))
	for _, d := range docs {
		var entry handhistory.UserEntry
		if err := d.Decode(&entry); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// tablesBelow lists ids of tables whose index field is below bound.
func (e *Engine) tablesBelow(ctx context.Context, field string, bound int64, limit int) ([]string, error) {
	docs, err := e.store.QueryLess(ctx, "tables/", field, bound, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = strings.TrimPrefix(d.ID, "tables/")
	}
	return ids, nil
}

// DueTurns lists tables whose turn deadline passed before now.
func (e *Engine) DueTurns(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return e.tablesBelow(ctx, IndexTurnDeadline, now.UnixMilli(), limit)
}

// DueLevels lists running tournaments whose blind level has expired.
func (e *Engine) DueLevels(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return e.tablesBelow(ctx, IndexLevelEndsAt, now.UnixMilli()+1, limit)
}

// StaleTables lists tables with no activity since cutoff.
func (e *Engine) StaleTables(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	return e.tablesBelow(ctx, IndexLastActivity, cutoff.UnixMilli(), limit)
}
