/*
Package ledger provides the core inventory ledger and reconciliation engine.

PURPOSE:
  Tracks per-user physical inventory. Stock changes are recorded as immutable
  rows in two append-only logs (stock-in and stock-out); the current quantity
  of each item is maintained as a derived aggregate that is updated in the
  same transaction as the log append.

KEY CONCEPTS IN THIS FILE (types.go):
  - Item: The current-quantity aggregate, one row per (user, canonical name)
  - StockInRecord / StockOutRecord: Immutable ledger rows
  - Category: Per-user named bucket, optionally referenced by items
  - Timestamp format: fixed-width "2006-01-02 15:04"

IDENTITY RULE:
  Two item names refer to the same logical item iff their trimmed,
  lower-cased forms are equal. There is no foreign key between ledger rows
  and items; matching is always by canonical name (see identity.go).

TIMESTAMP CONTRACT:
  Timestamps are stored as fixed-width, zero-padded strings so that
  lexicographic order equals chronological order. Reports rely on this.
  Do not change the layout without migrating stored rows.

SEE ALSO:
  - identity.go: Canonical name rule
  - engine.go:   Mutation entry points and the quantity invariant
  - store.go:    Persistence interface
*/
package ledger

import "time"

// =============================================================================
// DIRECTION - Which log a movement belongs to
// =============================================================================

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// =============================================================================
// ITEM - Current-quantity aggregate
// =============================================================================

// Item is the derived aggregate for one logical inventory item.
//
// INVARIANTS:
//   - Exactly one Item exists per (UserID, NameKey).
//   - Quantity equals the sum of matched stock-in quantities minus the sum
//     of matched stock-out quantities, and is never negative.
//
// Items are created implicitly on first stock-in and never deleted.
type Item struct {
	ID     string
	UserID string

	// Name keeps the first-seen trimmed casing for display.
	Name string

	// NameKey is Canonicalize(Name). All lookups go through this key.
	NameKey string

	Quantity int

	// CategoryID is a weak reference; empty means none. A dangling
	// reference (category deleted later) is valid and must not break joins.
	CategoryID string

	UpdatedAt string
}

// =============================================================================
// LEDGER ROWS - Immutable, append-only
// =============================================================================

// StockInRecord is one stock-in movement. ItemName is the raw text as
// entered, not canonicalized; canonicalization happens at match time.
type StockInRecord struct {
	ID         string
	UserID     string
	ItemName   string
	Quantity   int
	RecordedAt string
}

// StockOutRecord is one stock-out movement.
type StockOutRecord struct {
	ID         string
	UserID     string
	ItemName   string
	Quantity   int
	RecordedAt string
}

// Movements bundles both raw logs for one user. Delivered as a whole by the
// movement feed; the two logs stay separate and are only merged at report time.
type Movements struct {
	StockIns  []StockInRecord
	StockOuts []StockOutRecord
}

// =============================================================================
// CATEGORY - Per-user named bucket
// =============================================================================

// Category names are matched literally (exact match), unlike item names.
type Category struct {
	ID     string
	UserID string
	Name   string

	// Fixed categories are system-seeded and cannot be deleted.
	Fixed bool
}

// =============================================================================
// TIMESTAMPS
// =============================================================================

// TimestampLayout is fixed-width and zero-padded so lexicographic string
// comparison orders timestamps chronologically.
const TimestampLayout = "2006-01-02 15:04"

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
