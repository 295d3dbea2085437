/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

INTERFACES IMPLEMENTED:
  ledger.TxStore: Movement logs, item aggregates, categories
  auth.UserStore: User accounts

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements exist for the stock_in and stock_out
  tables. Corrections happen by recording the opposite movement.

KEY TABLES:
  stock_in / stock_out: Immutable movement logs, raw item name as entered
  items:                One aggregate row per (user, canonical name),
                        enforced by a unique index on (user_id, name_key)
                        plus a CHECK (quantity >= 0) backstop
  categories:           Unique literal name per user
  users:                Accounts (bcrypt hashes, managed by auth package)

CONCURRENCY:
  sync.RWMutex on top of WAL mode. Mutations (including whole WithTx
  transactions) take the write lock, so readers always observe a ledger
  append together with its aggregate update.

USAGE:
  store, err := sqlite.New("./data/inventory.db")  // ":memory:" for tests
  engine := ledger.NewEngine(store)
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gudang/stock-engine/auth"
	"github.com/gudang/stock-engine/ledger"
)

var (
	_ ledger.TxStore = (*Store)(nil)
	_ auth.UserStore = (*Store)(nil)
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Stock-in movements (append-only ledger)
	CREATE TABLE IF NOT EXISTS stock_in (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		item_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stock_in_user_recorded
		ON stock_in(user_id, recorded_at DESC);

	-- Stock-out movements (append-only ledger)
	CREATE TABLE IF NOT EXISTS stock_out (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		item_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stock_out_user_recorded
		ON stock_out(user_id, recorded_at DESC);

	-- Item aggregates (one row per user + canonical name)
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		name_key TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 0),
		category_id TEXT,
		updated_at TEXT NOT NULL
	);

	-- CRITICAL: the central uniqueness invariant. Divergent casing or
	-- whitespace in raw ledger text must never create duplicate aggregates.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_items_user_name_key
		ON items(user_id, name_key);

	-- Categories (literal name match, unique per user)
	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		is_fixed BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE(user_id, name)
	);

	CREATE INDEX IF NOT EXISTS idx_categories_user
		ON categories(user_id);

	-- User accounts
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same query code
// serves direct calls and WithTx calls.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// MOVEMENT LOGS
// =============================================================================

func (s *Store) AppendStockIn(ctx context.Context, rec ledger.StockInRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendStockIn(ctx, s.db, rec)
}

func appendStockIn(ctx context.Context, db dbtx, rec ledger.StockInRecord) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO stock_in (id, user_id, item_name, quantity, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.ItemName, rec.Quantity, rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append stock-in: %w", err)
	}
	return nil
}

func (s *Store) AppendStockOut(ctx context.Context, rec ledger.StockOutRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendStockOut(ctx, s.db, rec)
}

func appendStockOut(ctx context.Context, db dbtx, rec ledger.StockOutRecord) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO stock_out (id, user_id, item_name, quantity, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.ItemName, rec.Quantity, rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append stock-out: %w", err)
	}
	return nil
}

func (s *Store) StockIns(ctx context.Context, userID string) ([]ledger.StockInRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stockIns(ctx, s.db, userID)
}

func stockIns(ctx context.Context, db dbtx, userID string) ([]ledger.StockInRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, item_name, quantity, recorded_at
		 FROM stock_in WHERE user_id = ? ORDER BY recorded_at DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock-in: %w", err)
	}
	defer rows.Close()

	var recs []ledger.StockInRecord
	for rows.Next() {
		var rec ledger.StockInRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ItemName, &rec.Quantity, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock-in: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *Store) StockOuts(ctx context.Context, userID string) ([]ledger.StockOutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stockOuts(ctx, s.db, userID)
}

func stockOuts(ctx context.Context, db dbtx, userID string) ([]ledger.StockOutRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, item_name, quantity, recorded_at
		 FROM stock_out WHERE user_id = ? ORDER BY recorded_at DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock-out: %w", err)
	}
	defer rows.Close()

	var recs []ledger.StockOutRecord
	for rows.Next() {
		var rec ledger.StockOutRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ItemName, &rec.Quantity, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock-out: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// =============================================================================
// ITEMS
// =============================================================================

func (s *Store) ItemByKey(ctx context.Context, userID, nameKey string) (*ledger.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return itemByKey(ctx, s.db, userID, nameKey)
}

func itemByKey(ctx context.Context, db dbtx, userID, nameKey string) (*ledger.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, user_id, name, name_key, quantity, category_id, updated_at
		 FROM items WHERE user_id = ? AND name_key = ?`,
		userID, nameKey,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (s *Store) SaveItem(ctx context.Context, item ledger.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveItem(ctx, s.db, item)
}

func saveItem(ctx context.Context, db dbtx, item ledger.Item) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, user_id, name, name_key, quantity, category_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			quantity = excluded.quantity,
			category_id = excluded.category_id,
			updated_at = excluded.updated_at`,
		item.ID, item.UserID, item.Name, item.NameKey, item.Quantity,
		nullString(item.CategoryID), item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

func (s *Store) Items(ctx context.Context, userID string) ([]ledger.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return items(ctx, s.db, userID)
}

func items(ctx context.Context, db dbtx, userID string) ([]ledger.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, name, name_key, quantity, category_id, updated_at
		 FROM items WHERE user_id = ? ORDER BY name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var result []ledger.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*ledger.Item, error) {
	var item ledger.Item
	var categoryID sql.NullString
	err := row.Scan(&item.ID, &item.UserID, &item.Name, &item.NameKey,
		&item.Quantity, &categoryID, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.CategoryID = categoryID.String
	return &item, nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (s *Store) Categories(ctx context.Context, userID string) ([]ledger.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return categories(ctx, s.db, userID)
}

func categories(ctx context.Context, db dbtx, userID string) ([]ledger.Category, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, name, is_fixed FROM categories WHERE user_id = ? ORDER BY name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var cats []ledger.Category
	for rows.Next() {
		var cat ledger.Category
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.Fixed); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cats = append(cats, cat)
	}
	return cats, rows.Err()
}

func (s *Store) CategoryByName(ctx context.Context, userID, name string) (*ledger.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return categoryByName(ctx, s.db, userID, name)
}

func categoryByName(ctx context.Context, db dbtx, userID, name string) (*ledger.Category, error) {
	var cat ledger.Category
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, name, is_fixed FROM categories WHERE user_id = ? AND name = ?`,
		userID, name,
	).Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.Fixed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &cat, nil
}

func (s *Store) CategoryByID(ctx context.Context, userID, id string) (*ledger.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return categoryByID(ctx, s.db, userID, id)
}

func categoryByID(ctx context.Context, db dbtx, userID, id string) (*ledger.Category, error) {
	var cat ledger.Category
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, name, is_fixed FROM categories WHERE user_id = ? AND id = ?`,
		userID, id,
	).Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.Fixed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &cat, nil
}

func (s *Store) SaveCategory(ctx context.Context, cat ledger.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveCategory(ctx, s.db, cat)
}

func saveCategory(ctx context.Context, db dbtx, cat ledger.Category) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, is_fixed) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, is_fixed = excluded.is_fixed`,
		cat.ID, cat.UserID, cat.Name, cat.Fixed,
	)
	if err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteCategory(ctx, s.db, userID, id)
}

func deleteCategory(ctx context.Context, db dbtx, userID, id string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM categories WHERE user_id = ? AND id = ?`,
		userID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn inside one SQLite transaction under the write lock.
// A ledger append and its aggregate update either both commit or neither
// does; concurrent readers cannot observe the in-between state.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore routes Store calls through an open *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) AppendStockIn(ctx context.Context, rec ledger.StockInRecord) error {
	return appendStockIn(ctx, ts.tx, rec)
}

func (ts *txStore) AppendStockOut(ctx context.Context, rec ledger.StockOutRecord) error {
	return appendStockOut(ctx, ts.tx, rec)
}

func (ts *txStore) StockIns(ctx context.Context, userID string) ([]ledger.StockInRecord, error) {
	return stockIns(ctx, ts.tx, userID)
}

func (ts *txStore) StockOuts(ctx context.Context, userID string) ([]ledger.StockOutRecord, error) {
	return stockOuts(ctx, ts.tx, userID)
}

func (ts *txStore) ItemByKey(ctx context.Context, userID, nameKey string) (*ledger.Item, error) {
	return itemByKey(ctx, ts.tx, userID, nameKey)
}

func (ts *txStore) SaveItem(ctx context.Context, item ledger.Item) error {
	return saveItem(ctx, ts.tx, item)
}

func (ts *txStore) Items(ctx context.Context, userID string) ([]ledger.Item, error) {
	return items(ctx, ts.tx, userID)
}

func (ts *txStore) Categories(ctx context.Context, userID string) ([]ledger.Category, error) {
	return categories(ctx, ts.tx, userID)
}

func (ts *txStore) CategoryByName(ctx context.Context, userID, name string) (*ledger.Category, error) {
	return categoryByName(ctx, ts.tx, userID, name)
}

func (ts *txStore) CategoryByID(ctx context.Context, userID, id string) (*ledger.Category, error) {
	return categoryByID(ctx, ts.tx, userID, id)
}

func (ts *txStore) SaveCategory(ctx context.Context, cat ledger.Category) error {
	return saveCategory(ctx, ts.tx, cat)
}

func (ts *txStore) DeleteCategory(ctx context.Context, userID, id string) error {
	return deleteCategory(ctx, ts.tx, userID, id)
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) CreateUser(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Username, user.PasswordHash, user.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return auth.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryUser(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
}

func (s *Store) UserByID(ctx context.Context, id string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryUser(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (s *Store) queryUser(ctx context.Context, query string, arg any) (*auth.User, error) {
	var user auth.User
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &user, nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
