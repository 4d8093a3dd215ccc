package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{
		"2025-01-01T00:00",
		"2025-01-01T00:00:00",
		"2025-01-01T00:00:00Z",
		"2025-01-01T00:00:00.000Z",
		"2025-01-01T08:00:00+08:00",
		"2025-01-01",
	} {
		got, ok := ParseTimestamp(raw)
		assert.True(t, ok, raw)
		assert.True(t, want.Equal(got), raw)
	}

	_, ok := ParseTimestamp("yesterday")
	assert.False(t, ok)
	_, ok = ParseTimestamp("  ")
	assert.False(t, ok)
}

func TestFormatISO(t *testing.T) {
	ts := time.Date(2025, 1, 1, 8, 0, 0, 0, time.FixedZone("SGT", 8*3600))
	assert.Equal(t, "2025-01-01T00:00:00.000Z", FormatISO(ts))
}

func TestSplitSymbols(t *testing.T) {
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, SplitSymbols("btc, ETH,,sol,BTC"))
	assert.Nil(t, SplitSymbols(""))
}
