// Package timeutil holds the pure clock helpers shared by the negotiation
// engine: timestamp parsing, remaining-time formatting and expiry checks.
package timeutil

import (
	"fmt"
	"time"
)

const (
	// ExpiredText is the terminal remaining-time string. It is published
	// exactly once per countdown subject.
	ExpiredText = "Expired"

	wireFormat = time.RFC3339
)

// ParseTimestamp parses a wire timestamp from the authority (RFC 3339).
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(wireFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// FormatTimestamp renders a timestamp in the authority's wire format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(wireFormat)
}

// IsExpired reports whether target has passed at now.
func IsExpired(now, target time.Time) bool {
	return now.After(target)
}

// Remaining returns the human remaining-time string for target as seen at
// now. The second return value is false once the target has passed.
func Remaining(now, target time.Time) (string, bool) {
	if IsExpired(now, target) {
		return ExpiredText, false
	}
	return FormatRemaining(target.Sub(now)), true
}

// FormatRemaining renders a positive duration as "Xh Ym remaining".
// Sub-minute remainders round up so the string never reads "0m remaining"
// while time is actually left.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return ExpiredText
	}

	minutes := int64((d + time.Minute - 1) / time.Minute)
	hours := minutes / 60
	minutes = minutes % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm remaining", hours, minutes)
	}
	return fmt.Sprintf("%dm remaining", minutes)
}
