/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All expected error conditions in one place. Every structured error
  unwraps to a sentinel so callers can use errors.Is for classification
  and errors.As for details.

ERROR CATEGORIES:
  1. Validation errors - Bad input, rejected before any write
  2. Not-found errors  - Stock-out against an unknown item
  3. Stock errors      - Stock-out exceeding the current aggregate
  4. Category errors   - Empty category set, fixed-category deletion

Storage I/O failures are NOT modeled here: they are unexpected for this
engine and are propagated unchanged, wrapped only with %w context.
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the base of all input validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrItemNotFound is returned by stock-out when no aggregate exists for
	// the canonical name. Distinct from a zero quantity, which is valid.
	ErrItemNotFound = errors.New("item not found")

	// ErrInsufficientStock is returned when a stock-out requests more than
	// the current aggregate quantity. The operation is rejected outright,
	// never partially applied.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNoCategory is returned by resolve-or-default when the user has no
	// categories at all.
	ErrNoCategory = errors.New("no category available")

	// ErrCategoryNotFound is returned when a category id does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrFixedCategory is returned when deleting a system-seeded category.
	ErrFixedCategory = errors.New("fixed category cannot be deleted")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError identifies the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports a stock-out against a name with no aggregate.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("item not found: %q", e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrItemNotFound }

// InsufficientStockError carries available vs requested quantities so the
// caller can display both.
type InsufficientStockError struct {
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: available %d, requested %d",
		e.Name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// NoCategoryError reports an empty category set during resolve-or-default.
type NoCategoryError struct {
	UserID string
}

func (e *NoCategoryError) Error() string {
	return fmt.Sprintf("no category available for user %s", e.UserID)
}

func (e *NoCategoryError) Unwrap() error { return ErrNoCategory }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is an expected, recoverable
// rejection that should be surfaced to the caller rather than logged as a
// fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrNoCategory) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrFixedCategory)
}
