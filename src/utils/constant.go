package utils

import (
	"strings"
	"time"
)

// -----------------------------------------------------------------------------

// ISOMillis renders timestamps the way browsers do (Date.toISOString).
const ISOMillis = "2006-01-02T15:04:05.000Z07:00"

// acceptedLayouts lists the date-time inputs accepted from query strings, most
// specific first. Layouts without a zone are read as UTC.
var acceptedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// -----------------------------------------------------------------------------

// FormatISO formats t in UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOMillis)
}

// -----------------------------------------------------------------------------

// ParseTimestamp parses one of the accepted layouts. ok is false when none match.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// -----------------------------------------------------------------------------

// SplitSymbols turns "btc, ETH,,sol" into [BTC ETH SOL], dropping duplicates and
// keeping first-seen order.
func SplitSymbols(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		sym := strings.ToUpper(strings.TrimSpace(part))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}
