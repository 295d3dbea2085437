package ledger

import "strings"

// Canonicalize maps a free-text item name to its canonical identity key:
// surrounding whitespace is trimmed and the result is lower-cased.
//
// This is the single definition of "the same item" in the whole system.
// It is used both when locating the aggregate to update and when joining
// ledger rows to items for reporting. Never compare item names any other way.
func Canonicalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
