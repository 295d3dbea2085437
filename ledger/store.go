/*
store.go - Persistence interface for ledgers, items, and categories

PURPOSE:
  Defines the interface between the engine and the database. The storage
  collaborator owns the persistence format entirely; this interface only
  demands durable keyed rows, per-user queries, and atomic multi-write
  transactions.

APPEND-ONLY CONTRACT:
  The two movement logs expose Append and read operations only. There is
  no update or delete for ledger rows; corrections happen by recording the
  opposite movement.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - ledger/store/memory.go: In-memory for testing
*/
package ledger

import "context"

// Store handles persistence of movement rows, item aggregates, and
// categories. All queries are scoped to a single user.
type Store interface {
	// AppendStockIn persists one stock-in row. Append-only.
	AppendStockIn(ctx context.Context, rec StockInRecord) error

	// AppendStockOut persists one stock-out row. Append-only.
	AppendStockOut(ctx context.Context, rec StockOutRecord) error

	// StockIns returns all stock-in rows for a user, newest first.
	StockIns(ctx context.Context, userID string) ([]StockInRecord, error)

	// StockOuts returns all stock-out rows for a user, newest first.
	StockOuts(ctx context.Context, userID string) ([]StockOutRecord, error)

	// ItemByKey looks up the aggregate by canonical name key.
	// Returns nil (not an error) when no aggregate exists.
	ItemByKey(ctx context.Context, userID, nameKey string) (*Item, error)

	// SaveItem inserts or updates an aggregate row by ID.
	SaveItem(ctx context.Context, item Item) error

	// Items returns all aggregates for a user, ordered by name.
	Items(ctx context.Context, userID string) ([]Item, error)

	// Categories returns all categories for a user, ordered by name.
	Categories(ctx context.Context, userID string) ([]Category, error)

	// CategoryByName looks up a category by exact (literal) name.
	// Returns nil when absent. Item-style canonicalization does NOT apply.
	CategoryByName(ctx context.Context, userID, name string) (*Category, error)

	// CategoryByID looks up a category by id. Returns nil when absent.
	CategoryByID(ctx context.Context, userID, id string) (*Category, error)

	// SaveCategory inserts or updates a category row by ID.
	SaveCategory(ctx context.Context, cat Category) error

	// DeleteCategory removes a category row. Items referencing it keep
	// their (now dangling) reference; deletion never cascades.
	DeleteCategory(ctx context.Context, userID, id string) error
}

// TxStore wraps Store with transaction support. The engine uses WithTx for
// every mutation so that a ledger append and its aggregate update commit
// together: a reader must never observe one without the other.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
