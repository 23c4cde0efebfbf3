package httputil

import (
	"fmt"
	"time"
)

// ParseTimestamp parses a client-supplied point in time. The value must be a
// complete RFC 3339 timestamp with seconds and an explicit offset (or Z);
// anything less precise is a malformed request, never silently defaulted.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q must be RFC 3339 with seconds and offset: %w", s, err)
	}
	return t, nil
}

// FormatTimestamp renders a timestamp the way the services exchange them.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
