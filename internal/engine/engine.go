// Package engine runs table transitions against the store. Each operation
// loads the table document, applies one pure transition from package game,
// checks the invariants and commits the table together with every wallet
// and hand history document the transition touched.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/internal/gameid"
	"github.com/lox/pokertable/internal/handhistory"
	"github.com/lox/pokertable/internal/randutil"
	"github.com/lox/pokertable/internal/store"
	"github.com/lox/pokertable/internal/wallet"
)

const (
	// MaxAttempts is how many times a transition is tried against
	// concurrent commits before giving up.
	MaxAttempts = 5
	// BaseBackoff is the wait after the first conflict; it doubles per retry.
	BaseBackoff = 10 * time.Millisecond
	// DefaultBotSteps bounds how many bot turns one request may drive.
	DefaultBotSteps = 200
)

// ErrConflictRetry is returned when a transition kept losing the race
// against other commits to the same table.
var ErrConflictRetry = errors.New("too many concurrent updates")

// errSkip aborts a transaction that has nothing to write.
var errSkip = errors.New("nothing to do")

// Options configures an Engine. Only Store is required.
type Options struct {
	Store  store.Store
	Clock  quartz.Clock
	Logger *log.Logger
	// Rand yields the generator for each transition.
	Rand randutil.Factory
	IDs  *gameid.Generator
	// Archive, when set, receives a TOML copy of every hand record.
	Archive *handhistory.Archive
	// OpeningBalance funds a wallet the first time it is used.
	OpeningBalance int
	// Defaults fill unset fields of new table configurations.
	Defaults game.Config
	// Payouts picks the prize split for a Sit-and-Go that declares none.
	Payouts  func(seats int) []int
	Password PasswordParams
	BotSteps int
}

// Engine is safe for concurrent use.
type Engine struct {
	store    store.Store
	clock    quartz.Clock
	logger   *log.Logger
	ids      *gameid.Generator
	archive  *handhistory.Archive
	opening  int
	defaults game.Config
	payouts  func(seats int) []int
	password PasswordParams
	botSteps int

	randMu sync.Mutex
	rand   randutil.Factory
}

// New returns an engine over opts.Store.
func New(opts Options) *Engine {
	e := &Engine{
		store:    opts.Store,
		clock:    opts.Clock,
		logger:   opts.Logger,
		ids:      opts.IDs,
		archive:  opts.Archive,
		opening:  opts.OpeningBalance,
		defaults: opts.Defaults,
		payouts:  opts.Payouts,
		password: opts.Password,
		botSteps: opts.BotSteps,
		rand:     opts.Rand,
	}
	if e.clock == nil {
		e.clock = quartz.NewReal()
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	e.logger = e.logger.WithPrefix("engine")
	if e.ids == nil {
		e.ids = gameid.NewGenerator(nil)
	}
	if e.rand == nil {
		e.rand = randutil.NewSecure
	}
	if e.password == (PasswordParams{}) {
		e.password = DefaultPasswordParams
	}
	if e.botSteps == 0 {
		e.botSteps = DefaultBotSteps
	}
	return e
}

// Store returns the engine's store.
func (e *Engine) Store() store.Store { return e.store }

// Clock returns the server clock all deadlines are measured on.
func (e *Engine) Clock() quartz.Clock { return e.clock }

func (e *Engine) env() game.Env {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return game.Env{Now: e.clock.Now(), Rand: e.rand()}
}

// TableDoc is the store id of a table.
func TableDoc(id string) string { return store.Join("tables", id) }

// HandDoc is the store id of a hand record.
func HandDoc(recordID string) string { return store.Join("hands", recordID) }

// UserHandDoc is the store id of a user's index entry for a hand.
func UserHandDoc(uid, recordID string) string { return store.Join("user_hands", uid, recordID) }

// Index fields of the table document.
const (
	IndexTurnDeadline = "turnDeadline"
	IndexLastActivity = "lastActivity"
	IndexLevelEndsAt  = "levelEndsAt"
	IndexTimestamp    = "timestamp"
)

func tableIndex(t *game.Table) map[string]int64 {
	idx := map[string]int64{IndexLastActivity: t.LastActivity.UnixMilli()}
	if t.Phase.InHand() && !t.TurnDeadline.IsZero() {
		idx[IndexTurnDeadline] = t.TurnDeadline.UnixMilli()
	}
	if tour := t.Tournament; tour != nil && tour.State == game.TournamentRunning && !tour.LevelEndsAt.IsZero() {
		idx[IndexLevelEndsAt] = tour.LevelEndsAt.UnixMilli()
	}
	return idx
}

// txn is one attempt at a transition.
type txn struct {
	tx    store.Tx
	table *game.Table
	env   game.Env
	book  wallet.Book

	// credits are owed by the operation itself, on top of the table's effects.
	credits []game.WalletCredit
	deleted bool
}

func (c *txn) creditReturned(uid string, isBot bool, amount int, reason string) {
	if amount > 0 {
		c.credits = append(c.credits, game.WalletCredit{UID: uid, Amount: amount, Reason: reason, IsBot: isBot})
	}
}

// checkHumanUID rejects uids shaped like the ids minted for bots.
func checkHumanUID(uid string) error {
	if gameid.IsBotUID(uid) {
		return fmt.Errorf("%w: %q is reserved for bots", game.ErrInvalidUID, uid)
	}
	return nil
}

func loadTable(tx store.Tx, id string) (*game.Table, error) {
	t, err := store.Load[game.Table](tx, TableDoc(id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", game.ErrTableNotFound, id)
	}
	return t, err
}

// update runs fn against a fresh copy of the table until it commits,
// retrying store conflicts with exponential backoff.
func (e *Engine) update(ctx context.Context, id string, fn func(c *txn) error) error {
	backoff := BaseBackoff
	for attempt := 1; ; attempt++ {
		var records []*handhistory.Record
		err := e.store.RunTransaction(ctx, func(tx store.Tx) error {
			t, err := loadTable(tx, id)
			if err != nil {
				return err
			}
			env := e.env()
			c := &txn{tx: tx, table: t, env: env, book: wallet.Book{Tx: tx, Opening: e.opening, Now: env.Now}}
			if err := fn(c); err != nil {
				return err
			}
			records, err = e.commit(c)
			return err
		})
		switch {
		case err == nil:
			e.archiveRecords(records)
			return nil
		case errors.Is(err, errSkip):
			return nil
		case !errors.Is(err, store.ErrConflict):
			return err
		case attempt == MaxAttempts:
			e.logger.Warn("Giving up after conflicts", "table", id, "attempts", attempt)
			return fmt.Errorf("%w: table %s: %w", ErrConflictRetry, id, err)
		}
		e.logger.Debug("Retrying after conflict", "table", id, "attempt", attempt, "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// commit stages everything the transition produced.
func (e *Engine) commit(c *txn) ([]*handhistory.Record, error) {
	t := c.table
	if c.deleted {
		c.tx.Delete(TableDoc(t.ID))
		return nil, c.book.Apply(t.ID, c.credits)
	}
	if err := t.CheckInvariants(); err != nil {
		e.logger.Error("Invariant violated, transition discarded",
			"table", t.ID, "phase", t.Phase, "hand", t.HandNumber, "error", err)
		return nil, err
	}

	effects := t.DrainEffects()
	credits := append(c.credits, effects.Credits...)
	if err := c.book.Apply(t.ID, credits); err != nil {
		return nil, err
	}

	var records []*handhistory.Record
	if res := effects.HandFinished; res != nil {
		r, entries := handhistory.Build(e.ids.RecordID(), t.ID, t.Config, res)
		ts := map[string]int64{IndexTimestamp: r.Timestamp.UnixMilli()}
		if err := c.tx.Set(HandDoc(r.ID), r, ts); err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if err := c.tx.Set(UserHandDoc(entry.UID, r.ID), entry, ts); err != nil {
				return nil, err
			}
		}
		records = append(records, r)
	}
	return records, c.tx.Set(TableDoc(t.ID), t, tableIndex(t))
}

func (e *Engine) archiveRecords(records []*handhistory.Record) {
	if e.archive == nil {
		return
	}
	for _, r := range records {
		if _, err := e.archive.Write(r); err != nil {
			e.logger.Warn("Failed to archive hand", "table", r.TableID, "hand", r.HandNumber, "error", err)
		}
	}
}
