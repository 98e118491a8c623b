package timeutil

import (
	"testing"
	"time"
)

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{
			name: "hours and minutes",
			d:    2*time.Hour + 30*time.Minute,
			want: "2h 30m remaining",
		},
		{
			name: "minutes only",
			d:    45 * time.Minute,
			want: "45m remaining",
		},
		{
			name: "sub-minute rounds up",
			d:    30 * time.Second,
			want: "1m remaining",
		},
		{
			name: "exact hour",
			d:    time.Hour,
			want: "1h 0m remaining",
		},
		{
			name: "zero",
			d:    0,
			want: ExpiredText,
		},
		{
			name: "negative",
			d:    -time.Minute,
			want: ExpiredText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRemaining(tt.d); got != tt.want {
				t.Errorf("FormatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestRemaining(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	got, ok := Remaining(now, now.Add(90*time.Second))
	if !ok || got != "2m remaining" {
		t.Errorf("Remaining() = %q, %v, want \"2m remaining\", true", got, ok)
	}

	got, ok = Remaining(now, now.Add(-time.Second))
	if ok || got != ExpiredText {
		t.Errorf("Remaining() = %q, %v, want %q, false", got, ok, ExpiredText)
	}

	// The boundary instant itself is not yet expired.
	if IsExpired(now, now) {
		t.Error("IsExpired(now, now) = true, want false")
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2025-03-01T12:00:00Z")
	if err != nil {
		t.Fatalf("ParseTimestamp() error = %v", err)
	}
	if !ts.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseTimestamp() = %v", ts)
	}

	if _, err := ParseTimestamp("not-a-time"); err == nil {
		t.Error("ParseTimestamp() expected error for garbage input")
	}
}
