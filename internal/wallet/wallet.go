// Package wallet holds player balances outside the tables. A wallet is only
// changed inside a store transaction that also writes the table the chips
// move to or from.
package wallet

import (
	"errors"
	"fmt"
	"time"

	"github.com/lox/pokertable/internal/game"
	"github.com/lox/pokertable/internal/store"
)

// ErrInsufficientBalance is returned when a debit exceeds the balance.
var ErrInsufficientBalance = game.ErrInsufficientBalance

// MaxLedger bounds the per-wallet history of movements.
const MaxLedger = 50

// Entry is one balance movement. Amount is negative for debits.
type Entry struct {
	Amount  int       `json:"amount"`
	Balance int       `json:"balance"`
	Reason  string    `json:"reason"`
	TableID string    `json:"tableId,omitempty"`
	At      time.Time `json:"at"`
}

// Wallet is the document stored at wallets/<uid>.
type Wallet struct {
	UID       string    `json:"uid"`
	Balance   int       `json:"balance"`
	Ledger    []Entry   `json:"ledger"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DocID is the store id of uid's wallet.
func DocID(uid string) string {
	return store.Join("wallets", uid)
}

// New opens a wallet with a starting balance.
func New(uid string, balance int, now time.Time) *Wallet {
	w := &Wallet{UID: uid, CreatedAt: now, UpdatedAt: now}
	if balance > 0 {
		w.record(balance, "opening balance", "", now)
	}
	return w
}

func (w *Wallet) record(amount int, reason, tableID string, now time.Time) {
	w.Balance += amount
	w.UpdatedAt = now
	w.Ledger = append(w.Ledger, Entry{Amount: amount, Balance: w.Balance, Reason: reason, TableID: tableID, At: now})
	if over := len(w.Ledger) - MaxLedger; over > 0 {
		w.Ledger = append(w.Ledger[:0], w.Ledger[over:]...)
	}
}

// Debit takes amount out of the wallet.
func (w *Wallet) Debit(amount int, reason, tableID string, now time.Time) error {
	if amount <= 0 {
		return fmt.Errorf("%w: debit must be positive", game.ErrIllegalAction)
	}
	if w.Balance < amount {
		return fmt.Errorf("%w: balance %d, need %d", ErrInsufficientBalance, w.Balance, amount)
	}
	w.record(-amount, reason, tableID, now)
	return nil
}

// Credit adds amount to the wallet. Zero is a no-op.
func (w *Wallet) Credit(amount int, reason, tableID string, now time.Time) error {
	if amount < 0 {
		return fmt.Errorf("%w: credit must not be negative", game.ErrIllegalAction)
	}
	if amount > 0 {
		w.record(amount, reason, tableID, now)
	}
	return nil
}

// Book reads and writes wallets inside a transaction. Wallets that do not
// exist yet are opened with Opening.
type Book struct {
	Tx      store.Tx
	Opening int
	Now     time.Time
}

// Load returns uid's wallet, opening it if needed.
func (b Book) Load(uid string) (*Wallet, error) {
	w, err := store.Load[Wallet](b.Tx, DocID(uid))
	if errors.Is(err, store.ErrNotFound) {
		return New(uid, b.Opening, b.Now), nil
	}
	return w, err
}

// Save stages w.
func (b Book) Save(w *Wallet) error {
	return b.Tx.Set(DocID(w.UID), w, nil)
}

// Debit loads, debits and stages uid's wallet.
func (b Book) Debit(uid string, amount int, reason, tableID string) (*Wallet, error) {
	w, err := b.Load(uid)
	if err != nil {
		return nil, err
	}
	if err := w.Debit(amount, reason, tableID, b.Now); err != nil {
		return nil, err
	}
	return w, b.Save(w)
}

// Apply stages the wallet credits produced by a table transition. Credits
// to bot seats are dropped: bot stacks are minted by the house and leave
// with the bot.
func (b Book) Apply(tableID string, credits []game.WalletCredit) error {
	for _, c := range credits {
		if c.Amount <= 0 || c.IsBot {
			continue
		}
		w, err := b.Load(c.UID)
		if err != nil {
			return err
		}
		if err := w.Credit(c.Amount, c.Reason, tableID, b.Now); err != nil {
			return err
		}
		if err := b.Save(w); err != nil {
			return err
		}
	}
	return nil
}
