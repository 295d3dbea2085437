package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gudang/stock-engine/ledger"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Kamera", "kamera"},
		{"trims outer whitespace", "  kamera ", "kamera"},
		{"trims and lowercases", "  KAMERA\t", "kamera"},
		{"keeps inner whitespace", "Tripod  Besar", "tripod  besar"},
		{"whitespace only collapses to empty", "   ", ""},
		{"already canonical", "lampu", "lampu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.Canonicalize(tt.in))
		})
	}
}

func TestFormatTimestamp_LexicographicOrderIsChronological(t *testing.T) {
	// The fixed-width zero-padded layout is a contract: string comparison
	// on formatted timestamps must agree with time comparison.

	earlier := mustFormat(t, 2025, 6, 1, 9, 5)
	later := mustFormat(t, 2025, 6, 1, 10, 0)
	nextDay := mustFormat(t, 2025, 6, 2, 0, 0)

	assert.Less(t, earlier, later)
	assert.Less(t, later, nextDay)
	assert.Equal(t, "2025-06-01 09:05", earlier, "single digits must be zero-padded")
}

func mustFormat(t *testing.T, year, month, day, hour, min int) string {
	t.Helper()
	return ledger.FormatTimestamp(time.Date(year, time.Month(month), day, hour, min, 0, 0, time.UTC))
}
