package models

import (
	"fmt"
	"strings"
	"time"
)

// DateTimeLayout is the wire layout for timestamps without an offset,
// interpreted as UTC.
const DateTimeLayout = "2006-01-02T15:04:05"

// ParseTime accepts DateTimeLayout or RFC 3339 and returns a normalized UTC time.
func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.ParseInLocation(DateTimeLayout, raw, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: expected %s", raw, DateTimeLayout)
		}
	}
	return Normalize(t), nil
}

// FormatTime renders t in DateTimeLayout after normalizing it.
func FormatTime(t time.Time) string {
	return Normalize(t).Format(DateTimeLayout)
}

// FormatTimePtr is FormatTime for optional timestamps.
func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}

// Normalize converts to UTC at second precision. Everything stored goes
// through it so text comparisons in sqlite stay ordered.
func Normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
