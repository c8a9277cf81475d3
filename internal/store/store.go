// Package store is a versioned JSON document store. Every write is a
// compare-and-swap on the version read inside the same transaction, and
// committed snapshots are pushed to subscribers in version order.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a document read in a transaction was
	// changed by another commit before this one.
	ErrConflict = errors.New("concurrent modification")
)

// Doc is one committed document.
type Doc struct {
	ID      string
	Version int64
	Data    json.RawMessage
	// Index holds numeric fields that QueryLess can filter and order by.
	Index   map[string]int64
	Deleted bool
}

// Decode unmarshals the document body into v.
func (d *Doc) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", d.ID, err)
	}
	return nil
}

// Tx is a transaction in progress. Reads see the transaction's own staged
// writes; nothing is visible to others until the transaction commits.
type Tx interface {
	Get(id string) (*Doc, error)
	Set(id string, v any, index map[string]int64) error
	Delete(id string)
}

// Store is the storage contract the engine runs on.
type Store interface {
	Get(ctx context.Context, id string) (*Doc, error)
	// RunTransaction runs fn and commits its writes atomically. It returns
	// ErrConflict without retrying if any document fn read has changed.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
	// Subscribe delivers every committed snapshot of id until closed.
	Subscribe(id string) *Subscription
	// QueryLess returns documents under prefix whose index field is below
	// the bound, ordered by that field. A limit of zero means no limit.
	QueryLess(ctx context.Context, prefix, field string, below int64, limit int) ([]*Doc, error)
	Close() error
}

// Get loads and decodes a document outside a transaction.
func Get[T any](ctx context.Context, s Store, id string) (*T, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := d.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Load reads and decodes a document inside a transaction.
func Load[T any](tx Tx, id string) (*T, error) {
	d, err := tx.Get(id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := d.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Join builds a document id from path segments.
func Join(parts ...string) string {
	return strings.Join(parts, "/")
}

// write is a staged change.
type write struct {
	data    json.RawMessage
	index   map[string]int64
	deleted bool
}

// stage is the bookkeeping shared by the transaction implementations: the
// versions read and the writes staged.
type stage struct {
	reads  map[string]int64
	writes map[string]*write
	order  []string
}

func newStage() *stage {
	return &stage{reads: make(map[string]int64), writes: make(map[string]*write)}
}

// staged returns the transaction's own view of id, if it wrote it.
func (s *stage) staged(id string) (*Doc, bool, error) {
	w, ok := s.writes[id]
	if !ok {
		return nil, false, nil
	}
	if w.deleted {
		return nil, true, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &Doc{ID: id, Version: s.reads[id], Data: w.data, Index: w.index}, true, nil
}

func (s *stage) set(id string, v any, index map[string]int64) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}
	s.put(id, &write{data: data, index: index})
	return nil
}

func (s *stage) put(id string, w *write) {
	if _, ok := s.writes[id]; !ok {
		s.order = append(s.order, id)
	}
	s.writes[id] = w
}

// hub fans committed snapshots out to subscribers.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

// SubscriptionBuffer is how many undelivered snapshots a subscriber may
// lag before it is dropped.
const SubscriptionBuffer = 64

// Subscription receives snapshots of one document on C. C is closed when
// the subscription ends, including when the subscriber falls too far behind.
type Subscription struct {
	C <-chan *Doc

	c    chan *Doc
	h    *hub
	id   string
	last int64
	once sync.Once
}

func (h *hub) subscribe(id string) *Subscription {
	c := make(chan *Doc, SubscriptionBuffer)
	sub := &Subscription{C: c, c: c, h: h, id: id}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[string]map[*Subscription]struct{})
	}
	if h.subs[id] == nil {
		h.subs[id] = make(map[*Subscription]struct{})
	}
	h.subs[id][sub] = struct{}{}
	return sub
}

// Close ends the subscription.
func (s *Subscription) Close() {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	s.closeLocked()
}

func (s *Subscription) closeLocked() {
	s.once.Do(func() {
		delete(s.h.subs[s.id], s)
		if len(s.h.subs[s.id]) == 0 {
			delete(s.h.subs, s.id)
		}
		close(s.c)
	})
}

// publish delivers committed docs. Commits may reach the hub out of order;
// a snapshot older than one already delivered is skipped.
func (h *hub) publish(docs []*Doc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, d := range docs {
		for sub := range h.subs[d.ID] {
			if d.Version <= sub.last {
				continue
			}
			select {
			case sub.c <- d:
				sub.last = d.Version
			default:
				sub.closeLocked()
			}
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subs := range h.subs {
		for sub := range subs {
			sub.closeLocked()
		}
	}
}
