package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gudang/stock-engine/ledger"
	"github.com/gudang/stock-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// fakeClock advances one minute per call so every movement gets a
// distinct, strictly increasing timestamp.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestEngine() (*ledger.Engine, *store.Memory) {
	mem := store.NewMemory()
	clock := &fakeClock{t: time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)}
	return ledger.NewEngineWithClock(mem, clock.Now), mem
}

// =============================================================================
// STOCK-IN
// =============================================================================

func TestRecordStockIn_CreatesItemWithDefaultCategory(t *testing.T) {
	// GIVEN: A user with no items and no categories
	// WHEN: Stocking in a previously unseen name with no category
	// THEN: An item is created with the trimmed name and the on-demand "Umum" category

	engine, mem := newTestEngine()
	ctx := context.Background()

	rec, err := engine.RecordStockIn(ctx, "user-1", "  Kamera ", 5, "")
	require.NoError(t, err)
	assert.Equal(t, "  Kamera ", rec.ItemName, "ledger row keeps the raw name as entered")

	item, err := mem.ItemByKey(ctx, "user-1", "kamera")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Kamera", item.Name, "item name is trimmed")
	assert.Equal(t, 5, item.Quantity)

	cat, err := mem.CategoryByID(ctx, "user-1", item.CategoryID)
	require.NoError(t, err)
	require.NotNil(t, cat)
	assert.Equal(t, "Umum", cat.Name)
	assert.False(t, cat.Fixed)
}

func TestRecordStockIn_SameCanonicalName_SingleAggregate(t *testing.T) {
	// GIVEN: Stock-in for "Kamera"
	// WHEN: Stocking in "  kamera " (different casing and whitespace)
	// THEN: Exactly one item exists, first-seen casing, quantities summed

	engine, mem := newTestEngine()
	ctx := context.Background()

	_, err := engine.RecordStockIn(ctx, "user-1", "Kamera", 5, "")
	require.NoError(t, err)
	_, err = engine.RecordStockIn(ctx, "user-1", "  kamera ", 3, "")
	require.NoError(t, err)

	items, err := mem.Items(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 1, "divergent casing must not create duplicate aggregates")
	assert.Equal(t, "Kamera", items[0].Name)
	assert.Equal(t, 8, items[0].Quantity)
}

func TestRecordStockIn_ExplicitCategory(t *testing.T) {
	engine, mem := newTestEngine()
	ctx := context.Background()

	registry := ledger.NewRegistry(mem)
	cat, err := registry.Create(ctx, "user-1", "Lensa")
	require.NoError(t, err)

	_, err = engine.RecordStockIn(ctx, "user-1", "Sigma 35mm", 2, cat.ID)
	require.NoError(t, err)

	item, err := mem.ItemByKey(ctx, "user-1", "sigma 35mm")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, cat.ID, item.CategoryID)
}

func TestRecordStockIn_Validation(t *testing.T) {
	engine, mem := newTestEngine()
	ctx := context.Background()

	tests := []struct {
		name    string
		rawName string
		qty     int
	}{
		{"blank name", "   ", 5},
		{"zero quantity", "Kamera", 0},
		{"negative quantity", "Kamera", -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.RecordStockIn(ctx, "user-1", tt.rawName, tt.qty, "")
			var verr *ledger.ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.ErrorIs(t, err, ledger.ErrValidation)
		})
	}

	// No writes happened
	ins, err := mem.StockIns(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, ins)
	items, err := mem.Items(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

// =============================================================================
// STOCK-OUT
// =============================================================================

func TestRecordStockOut_InsufficientStock_NothingWritten(t *testing.T) {
	// GIVEN: "Kamera" with quantity 8
	// WHEN: Stocking out 100
	// THEN: InsufficientStockError with available vs requested, quantity unchanged,
	//       no stock-out row written

	engine, mem := newTestEngine()
	ctx := context.Background()

	_, err := engine.RecordStockIn(ctx, "user-1", "Kamera", 8, "")
	require.NoError(t, err)

	_, err = engine.RecordStockOut(ctx, "user-1", "Kamera", 100)
	require.Error(t, err)

	var insErr *ledger.InsufficientStockError
	require.ErrorAs(t, err, &insErr)
	assert.Equal(t, 8, insErr.Available)
	assert.Equal(t, 100, insErr.Requested)
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)

	qty, ok, err := engine.CurrentQuantity(ctx, "user-1", "Kamera")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 8, qty, "rejected stock-out must not change quantity")

	outs, err := mem.StockOuts(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, outs, "rejected stock-out must not append a ledger row")
}

func TestRecordStockOut_UnknownItem_NotFound(t *testing.T) {
	engine, mem := newTestEngine()
	ctx := context.Background()

	_, err := engine.RecordStockOut(ctx, "user-1", "Unknown", 1)
	require.Error(t, err)

	var nfErr *ledger.NotFoundError
	assert.ErrorAs(t, err, &nfErr)
	assert.ErrorIs(t, err, ledger.ErrItemNotFound)

	outs, err := mem.StockOuts(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, outs)
}

func TestRecordStockOut_ToExactlyZero(t *testing.T) {
	// Zero is a valid quantity, distinct from "item not found".

	engine, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.RecordStockIn(ctx, "user-1", "Lampu", 4, "")
	require.NoError(t, err)
	_, err = engine.RecordStockOut(ctx, "user-1", "lampu", 4)
	require.NoError(t, err)

	qty, ok, err := engine.CurrentQuantity(ctx, "user-1", "Lampu")
	require.NoError(t, err)
	assert.True(t, ok, "zero quantity is not the same as not found")
	assert.Equal(t, 0, qty)
}

func TestRecordStockOut_MatchesByCanonicalName(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.RecordStockIn(ctx, "user-1", "Kamera", 10, "")
	require.NoError(t, err)
	_, err = engine.RecordStockOut(ctx, "user-1", "  KAMERA  ", 4)
	require.NoError(t, err)

	qty, ok, err := engine.CurrentQuantity(ctx, "user-1", "kamera")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 6, qty)
}

// =============================================================================
// INVARIANT
// =============================================================================

func TestQuantityInvariant_AfterMixedSequence(t *testing.T) {
	// For every item: quantity == sum(matched stock-in) - sum(matched stock-out),
	// and never negative, after any sequence of valid operations.

	engine, mem := newTestEngine()
	ctx := context.Background()

	moves := []struct {
		name string
		qty  int
		out  bool
	}{
		{"Kamera", 10, false},
		{" kamera", 5, false},
		{"Lensa", 7, false},
		{"KAMERA ", 6, true},
		{"lensa", 7, true},
		{"Kamera", 2, false},
	}
	for _, mv := range moves {
		var err error
		if mv.out {
			_, err = engine.RecordStockOut(ctx, "user-1", mv.name, mv.qty)
		} else {
			_, err = engine.RecordStockIn(ctx, "user-1", mv.name, mv.qty, "")
		}
		require.NoError(t, err)
	}

	ins, err := mem.StockIns(ctx, "user-1")
	require.NoError(t, err)
	outs, err := mem.StockOuts(ctx, "user-1")
	require.NoError(t, err)
	items, err := mem.Items(ctx, "user-1")
	require.NoError(t, err)

	for _, item := range items {
		sum := 0
		for _, rec := range ins {
			if ledger.Canonicalize(rec.ItemName) == item.NameKey {
				sum += rec.Quantity
			}
		}
		for _, rec := range outs {
			if ledger.Canonicalize(rec.ItemName) == item.NameKey {
				sum -= rec.Quantity
			}
		}
		assert.Equal(t, sum, item.Quantity, "aggregate must equal ledger replay for %q", item.Name)
		assert.GreaterOrEqual(t, item.Quantity, 0)
	}
}

func TestUsersAreIndependent(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.RecordStockIn(ctx, "user-1", "Kamera", 5, "")
	require.NoError(t, err)
	_, err = engine.RecordStockIn(ctx, "user-2", "Kamera", 9, "")
	require.NoError(t, err)

	qty1, _, err := engine.CurrentQuantity(ctx, "user-1", "Kamera")
	require.NoError(t, err)
	qty2, _, err := engine.CurrentQuantity(ctx, "user-2", "Kamera")
	require.NoError(t, err)
	assert.Equal(t, 5, qty1)
	assert.Equal(t, 9, qty2)
}

func TestCurrentQuantity_NeverStockedIn(t *testing.T) {
	engine, _ := newTestEngine()

	_, ok, err := engine.CurrentQuantity(context.Background(), "user-1", "Ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

// =============================================================================
// FEEDS
// =============================================================================

func TestWatchItems_DeliversFullSnapshotAfterMutation(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	ch, cancel := engine.WatchItems("user-1")
	defer cancel()

	_, err := engine.RecordStockIn(ctx, "user-1", "Kamera", 5, "")
	require.NoError(t, err)

	select {
	case snap := <-ch:
		require.Len(t, snap, 1)
		assert.Equal(t, "Kamera", snap[0].Name)
		assert.Equal(t, 5, snap[0].Quantity)
	case <-time.After(time.Second):
		t.Fatal("expected an item snapshot after stock-in")
	}
}

func TestWatchItems_LatestWins(t *testing.T) {
	// A slow subscriber sees the newest snapshot, not a stale backlog.

	engine, _ := newTestEngine()
	ctx := context.Background()

	ch, cancel := engine.WatchItems("user-1")
	defer cancel()

	_, err := engine.RecordStockIn(ctx, "user-1", "Kamera", 5, "")
	require.NoError(t, err)
	_, err = engine.RecordStockIn(ctx, "user-1", "Kamera", 3, "")
	require.NoError(t, err)

	snap := <-ch
	require.Len(t, snap, 1)
	assert.Equal(t, 8, snap[0].Quantity)
}

func TestWatchMovements_DeliversBothLogs(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	ch, cancel := engine.WatchMovements("user-1")
	defer cancel()

	_, err := engine.RecordStockIn(ctx, "user-1", "Lensa", 10, "")
	require.NoError(t, err)
	_, err = engine.RecordStockOut(ctx, "user-1", "Lensa", 4)
	require.NoError(t, err)

	moves := <-ch
	require.Len(t, moves.StockIns, 1)
	require.Len(t, moves.StockOuts, 1)
	assert.Equal(t, 10, moves.StockIns[0].Quantity)
	assert.Equal(t, 4, moves.StockOuts[0].Quantity)
}
