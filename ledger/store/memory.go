// Package store provides an in-memory TxStore implementation for tests
// and local development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/gudang/stock-engine/ledger"
)

var _ ledger.TxStore = (*Memory)(nil)

// Memory keeps everything in per-user maps and slices. WithTx gives
// snapshot/rollback semantics: on error the pre-transaction state is
// restored. Good enough for tests; the engine serializes mutations anyway.
type Memory struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	stockIns   map[string][]ledger.StockInRecord
	stockOuts  map[string][]ledger.StockOutRecord
	items      map[string]map[string]ledger.Item // userID -> nameKey -> item
	categories map[string][]ledger.Category
}

func NewMemory() *Memory {
	return &Memory{
		stockIns:   make(map[string][]ledger.StockInRecord),
		stockOuts:  make(map[string][]ledger.StockOutRecord),
		items:      make(map[string]map[string]ledger.Item),
		categories: make(map[string][]ledger.Category),
	}
}

// =============================================================================
// MOVEMENT LOGS
// =============================================================================

func (m *Memory) AppendStockIn(ctx context.Context, rec ledger.StockInRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stockIns[rec.UserID] = append(m.stockIns[rec.UserID], rec)
	return nil
}

func (m *Memory) AppendStockOut(ctx context.Context, rec ledger.StockOutRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stockOuts[rec.UserID] = append(m.stockOuts[rec.UserID], rec)
	return nil
}

func (m *Memory) StockIns(ctx context.Context, userID string) ([]ledger.StockInRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := append([]ledger.StockInRecord(nil), m.stockIns[userID]...)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].RecordedAt > recs[j].RecordedAt })
	return recs, nil
}

func (m *Memory) StockOuts(ctx context.Context, userID string) ([]ledger.StockOutRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := append([]ledger.StockOutRecord(nil), m.stockOuts[userID]...)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].RecordedAt > recs[j].RecordedAt })
	return recs, nil
}

// =============================================================================
// ITEMS
// =============================================================================

func (m *Memory) ItemByKey(ctx context.Context, userID, nameKey string) (*ledger.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, exists := m.items[userID][nameKey]
	if !exists {
		return nil, nil
	}
	return &item, nil
}

func (m *Memory) SaveItem(ctx context.Context, item ledger.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items[item.UserID] == nil {
		m.items[item.UserID] = make(map[string]ledger.Item)
	}
	m.items[item.UserID][item.NameKey] = item
	return nil
}

func (m *Memory) Items(ctx context.Context, userID string) ([]ledger.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]ledger.Item, 0, len(m.items[userID]))
	for _, item := range m.items[userID] {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (m *Memory) Categories(ctx context.Context, userID string) ([]ledger.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cats := append([]ledger.Category(nil), m.categories[userID]...)
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (m *Memory) CategoryByName(ctx context.Context, userID, name string) (*ledger.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, cat := range m.categories[userID] {
		if cat.Name == name {
			c := cat
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) CategoryByID(ctx context.Context, userID, id string) (*ledger.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, cat := range m.categories[userID] {
		if cat.ID == id {
			c := cat
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) SaveCategory(ctx context.Context, cat ledger.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.categories[cat.UserID] {
		if existing.ID == cat.ID {
			m.categories[cat.UserID][i] = cat
			return nil
		}
	}
	m.categories[cat.UserID] = append(m.categories[cat.UserID], cat)
	return nil
}

func (m *Memory) DeleteCategory(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cats := m.categories[userID]
	for i, cat := range cats {
		if cat.ID == id {
			m.categories[userID] = append(cats[:i], cats[i+1:]...)
			return nil
		}
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (m *Memory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	stockIns   map[string][]ledger.StockInRecord
	stockOuts  map[string][]ledger.StockOutRecord
	items      map[string]map[string]ledger.Item
	categories map[string][]ledger.Category
}

func (m *Memory) snapshot() memorySnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := memorySnapshot{
		stockIns:   make(map[string][]ledger.StockInRecord, len(m.stockIns)),
		stockOuts:  make(map[string][]ledger.StockOutRecord, len(m.stockOuts)),
		items:      make(map[string]map[string]ledger.Item, len(m.items)),
		categories: make(map[string][]ledger.Category, len(m.categories)),
	}
	for u, recs := range m.stockIns {
		snap.stockIns[u] = append([]ledger.StockInRecord(nil), recs...)
	}
	for u, recs := range m.stockOuts {
		snap.stockOuts[u] = append([]ledger.StockOutRecord(nil), recs...)
	}
	for u, byKey := range m.items {
		cp := make(map[string]ledger.Item, len(byKey))
		for k, item := range byKey {
			cp[k] = item
		}
		snap.items[u] = cp
	}
	for u, cats := range m.categories {
		snap.categories[u] = append([]ledger.Category(nil), cats...)
	}
	return snap
}

func (m *Memory) restore(snap memorySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stockIns = snap.stockIns
	m.stockOuts = snap.stockOuts
	m.items = snap.items
	m.categories = snap.categories
}
