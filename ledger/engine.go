/*
engine.go - Aggregate engine: the only mutation path for stock

PURPOSE:
  RecordStockIn and RecordStockOut are the sole entry points that change
  inventory state. Each appends an immutable ledger row and updates the
  derived aggregate in one storage transaction.

CRITICAL INVARIANTS:
  1. For every item: quantity == sum(matched stock-in) - sum(matched stock-out)
  2. Quantity is never negative. Stock-out exceeding the aggregate is
     rejected outright, never partially applied.
  3. At most one aggregate row per (user, canonical name). First stock-in
     for an unseen name creates the row (upsert, not create-vs-update paths).
  4. Ledger row and aggregate update commit atomically.

CONCURRENCY:
  Mutations for the same user are serialized by a per-user mutex; different
  users proceed in parallel. Reads never take the user mutex and observe
  committed snapshots only. Timestamps come from the engine clock at call
  time, so ledger order matches insertion order.

SEE ALSO:
  - store.go:    WithTx contract
  - category.go: Default-category fallback for new items
  - feed.go:     Push-based snapshots after each mutation
*/
package ledger

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Engine owns all stock mutations and the live feeds derived from them.
type Engine struct {
	store TxStore
	now   func() time.Time

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
	itemSubs  map[string][]chan []Item
	moveSubs  map[string][]chan Movements
}

// NewEngine creates an engine using the wall clock.
func NewEngine(store TxStore) *Engine {
	return NewEngineWithClock(store, time.Now)
}

// NewEngineWithClock creates an engine with an injected clock. Tests use
// this to get deterministic, strictly increasing timestamps.
func NewEngineWithClock(store TxStore, now func() time.Time) *Engine {
	return &Engine{
		store:     store,
		now:       now,
		userLocks: make(map[string]*sync.Mutex),
		itemSubs:  make(map[string][]chan []Item),
		moveSubs:  make(map[string][]chan Movements),
	}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// RecordStockIn validates, appends a stock-in row, and upserts the
// aggregate. For a previously unseen canonical name a new item is created
// with the trimmed raw name and the given category; when categoryID is
// empty the per-user default category is used, created on demand.
func (e *Engine) RecordStockIn(ctx context.Context, userID, rawName string, qty int, categoryID string) (*StockInRecord, error) {
	if err := validateMovement(rawName, qty); err != nil {
		return nil, err
	}

	unlock := e.lockUser(userID)
	defer unlock()

	rec := StockInRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		ItemName:   rawName,
		Quantity:   qty,
		RecordedAt: FormatTimestamp(e.now()),
	}
	key := Canonicalize(rawName)

	err := e.store.WithTx(ctx, func(s Store) error {
		if err := s.AppendStockIn(ctx, rec); err != nil {
			return err
		}

		item, err := s.ItemByKey(ctx, userID, key)
		if err != nil {
			return err
		}
		if item != nil {
			item.Quantity += qty
			item.UpdatedAt = rec.RecordedAt
			return s.SaveItem(ctx, *item)
		}

		catID := categoryID
		if catID == "" {
			def, err := ensureDefaultCategory(ctx, s, userID)
			if err != nil {
				return err
			}
			catID = def.ID
		}
		return s.SaveItem(ctx, Item{
			ID:         uuid.NewString(),
			UserID:     userID,
			Name:       strings.TrimSpace(rawName),
			NameKey:    key,
			Quantity:   qty,
			CategoryID: catID,
			UpdatedAt:  rec.RecordedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	e.notify(ctx, userID)
	return &rec, nil
}

// RecordStockOut validates against the current aggregate before writing
// anything. Reaching exactly zero is valid and distinct from "not found".
func (e *Engine) RecordStockOut(ctx context.Context, userID, rawName string, qty int) (*StockOutRecord, error) {
	if err := validateMovement(rawName, qty); err != nil {
		return nil, err
	}

	unlock := e.lockUser(userID)
	defer unlock()

	key := Canonicalize(rawName)
	var rec StockOutRecord

	err := e.store.WithTx(ctx, func(s Store) error {
		item, err := s.ItemByKey(ctx, userID, key)
		if err != nil {
			return err
		}
		if item == nil {
			return &NotFoundError{Name: strings.TrimSpace(rawName)}
		}
		if item.Quantity < qty {
			return &InsufficientStockError{
				Name:      item.Name,
				Available: item.Quantity,
				Requested: qty,
			}
		}

		rec = StockOutRecord{
			ID:         uuid.NewString(),
			UserID:     userID,
			ItemName:   rawName,
			Quantity:   qty,
			RecordedAt: FormatTimestamp(e.now()),
		}
		if err := s.AppendStockOut(ctx, rec); err != nil {
			return err
		}

		item.Quantity -= qty
		item.UpdatedAt = rec.RecordedAt
		return s.SaveItem(ctx, *item)
	})
	if err != nil {
		return nil, err
	}

	e.notify(ctx, userID)
	return &rec, nil
}

// =============================================================================
// READS
// =============================================================================

// CurrentQuantity returns the aggregate quantity for a name. ok is false
// when the name has never been stocked in.
func (e *Engine) CurrentQuantity(ctx context.Context, userID, name string) (qty int, ok bool, err error) {
	item, err := e.store.ItemByKey(ctx, userID, Canonicalize(name))
	if err != nil {
		return 0, false, err
	}
	if item == nil {
		return 0, false, nil
	}
	return item.Quantity, true, nil
}

// Items returns all aggregates for a user.
func (e *Engine) Items(ctx context.Context, userID string) ([]Item, error) {
	return e.store.Items(ctx, userID)
}

// Movements returns both raw logs for a user.
func (e *Engine) Movements(ctx context.Context, userID string) (Movements, error) {
	ins, err := e.store.StockIns(ctx, userID)
	if err != nil {
		return Movements{}, err
	}
	outs, err := e.store.StockOuts(ctx, userID)
	if err != nil {
		return Movements{}, err
	}
	return Movements{StockIns: ins, StockOuts: outs}, nil
}

// =============================================================================
// INTERNAL
// =============================================================================

func validateMovement(rawName string, qty int) error {
	if strings.TrimSpace(rawName) == "" {
		return &ValidationError{Field: "name", Reason: "must not be blank"}
	}
	if qty <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}
	return nil
}

// lockUser serializes mutations per user. Locks are created lazily and
// kept for the lifetime of the engine; the user population is small.
func (e *Engine) lockUser(userID string) (unlock func()) {
	e.mu.Lock()
	lock, exists := e.userLocks[userID]
	if !exists {
		lock = &sync.Mutex{}
		e.userLocks[userID] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
