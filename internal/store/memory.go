package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]*Doc
	hub  hub
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]*Doc)}
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, id string) (*Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d, nil
}

type memoryTx struct {
	m *Memory
	*stage
}

func (tx *memoryTx) Get(id string) (*Doc, error) {
	if d, ok, err := tx.staged(id); ok {
		return d, err
	}
	d, err := tx.m.Get(context.Background(), id)
	if _, seen := tx.reads[id]; !seen {
		if err == nil {
			tx.reads[id] = d.Version
		} else {
			tx.reads[id] = 0
		}
	}
	if err == nil && d.Version != tx.reads[id] {
		// Changed since our first read; the commit will fail anyway.
		return nil, fmt.Errorf("%w: %s", ErrConflict, id)
	}
	return d, err
}

func (tx *memoryTx) Set(id string, v any, index map[string]int64) error {
	return tx.set(id, v, index)
}

func (tx *memoryTx) Delete(id string) {
	tx.put(id, &write{deleted: true})
}

// RunTransaction implements Store.
func (m *Memory) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memoryTx{m: m, stage: newStage()}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.writes) == 0 {
		return nil
	}

	m.mu.Lock()
	for id, v := range tx.reads {
		if m.version(id) != v {
			m.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrConflict, id)
		}
	}
	var committed []*Doc
	for _, id := range tx.order {
		w := tx.writes[id]
		d := &Doc{ID: id, Version: m.version(id) + 1, Data: w.data, Index: maps.Clone(w.index), Deleted: w.deleted}
		if w.deleted {
			if _, ok := m.docs[id]; !ok {
				continue
			}
			delete(m.docs, id)
		} else {
			m.docs[id] = d
		}
		committed = append(committed, d)
	}
	m.mu.Unlock()

	m.hub.publish(committed)
	return nil
}

func (m *Memory) version(id string) int64 {
	if d, ok := m.docs[id]; ok {
		return d.Version
	}
	return 0
}

// Subscribe implements Store.
func (m *Memory) Subscribe(id string) *Subscription {
	return m.hub.subscribe(id)
}

// QueryLess implements Store.
func (m *Memory) QueryLess(ctx context.Context, prefix, field string, below int64, limit int) ([]*Doc, error) {
	m.mu.RLock()
	var out []*Doc
	for id, d := range m.docs {
		if v, ok := d.Index[field]; ok && v < below && strings.HasPrefix(id, prefix) {
			out = append(out, d)
		}
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Doc) int {
		if c := a.Index[field] - b.Index[field]; c != 0 {
			if c < 0 {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close ends all subscriptions.
func (m *Memory) Close() error {
	m.hub.closeAll()
	return nil
}
