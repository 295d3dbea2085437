/*
Package report builds the unified transaction history and stock reports.

PURPOSE:
  The two movement logs are stored independently; direction is derived
  from which log a row came from. This package merges them at read time
  into one chronological history, joins each row to its item's category
  by canonical name, and applies compound filters.

ORDERING:
  History is sorted descending by the raw timestamp string. That is
  correct only because the timestamp format is fixed-width and
  zero-padded (ledger.TimestampLayout) - a format contract, not an
  accident. Equal timestamps keep their pre-sort relative order
  (stable sort), with stock-in rows listed before stock-out rows.

SNAPSHOT-THEN-COMPUTE:
  Building a report loads snapshots and computes in memory; it never
  holds the engine's mutation lock, so long reports don't block writes.
*/
package report

import (
	"context"
	"sort"
	"strings"

	"github.com/gudang/stock-engine/ledger"
)

// Entry is one movement in the unified history. CategoryID is resolved
// by canonicalized-name lookup against current items; empty when no
// matching item exists.
type Entry struct {
	ID         string
	ItemName   string
	Quantity   int
	Timestamp  string
	Direction  ledger.Direction
	CategoryID string
}

// Filter is a compound AND filter over history entries. Zero values pass
// everything.
type Filter struct {
	// Direction restricts to one movement kind when non-empty.
	Direction ledger.Direction

	// DateSubstring matches case-insensitively against the raw timestamp.
	DateSubstring string

	// CategoryID matches exactly against the resolved category. Entries
	// with no resolved category never match a concrete id.
	CategoryID string
}

// Builder constructs reports from store snapshots.
type Builder struct {
	store ledger.Store
}

func NewBuilder(store ledger.Store) *Builder {
	return &Builder{store: store}
}

// BuildHistory merges both logs for a user into one sequence, newest first.
func (b *Builder) BuildHistory(ctx context.Context, userID string) ([]Entry, error) {
	ins, err := b.store.StockIns(ctx, userID)
	if err != nil {
		return nil, err
	}
	outs, err := b.store.StockOuts(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := b.store.Items(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Canonical-name index, the only way ledger rows are joined to items.
	byKey := make(map[string]ledger.Item, len(items))
	for _, item := range items {
		byKey[item.NameKey] = item
	}

	entries := make([]Entry, 0, len(ins)+len(outs))
	for _, rec := range ins {
		entries = append(entries, Entry{
			ID:         rec.ID,
			ItemName:   rec.ItemName,
			Quantity:   rec.Quantity,
			Timestamp:  rec.RecordedAt,
			Direction:  ledger.DirectionIn,
			CategoryID: byKey[ledger.Canonicalize(rec.ItemName)].CategoryID,
		})
	}
	for _, rec := range outs {
		entries = append(entries, Entry{
			ID:         rec.ID,
			ItemName:   rec.ItemName,
			Quantity:   rec.Quantity,
			Timestamp:  rec.RecordedAt,
			Direction:  ledger.DirectionOut,
			CategoryID: byKey[ledger.Canonicalize(rec.ItemName)].CategoryID,
		})
	}

	// Lexicographic comparison is chronological per the timestamp contract.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries, nil
}

// ApplyFilters returns the entries matching every set filter.
func ApplyFilters(entries []Entry, f Filter) []Entry {
	filtered := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if f.Direction != "" && entry.Direction != f.Direction {
			continue
		}
		if f.DateSubstring != "" && !containsFold(entry.Timestamp, f.DateSubstring) {
			continue
		}
		if f.CategoryID != "" && entry.CategoryID != f.CategoryID {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

// LowStock returns items with quantity at or below threshold. A zero or
// negative threshold means reporting is disabled, not "everything matches".
func LowStock(items []ledger.Item, threshold int) []ledger.Item {
	if threshold <= 0 {
		return nil
	}
	low := make([]ledger.Item, 0)
	for _, item := range items {
		if item.Quantity <= threshold {
			low = append(low, item)
		}
	}
	return low
}

// LowStockReport loads the user's current items and applies LowStock.
func (b *Builder) LowStockReport(ctx context.Context, userID string, threshold int) ([]ledger.Item, error) {
	items, err := b.store.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	return LowStock(items, threshold), nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
