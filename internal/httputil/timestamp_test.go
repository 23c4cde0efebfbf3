package httputil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampAccepted(t *testing.T) {
	for _, s := range []string{
		"2024-05-01T10:15:30Z",
		"2024-05-01T10:15:30+02:00",
		"2024-05-01T10:15:30.123456Z",
	} {
		ts, err := ParseTimestamp(s)
		require.NoError(t, err, s)
		assert.False(t, ts.IsZero())
	}
}

func TestParseTimestampRejected(t *testing.T) {
	for _, s := range []string{
		"2024-05-01T10:15Z",      // missing seconds
		"2024-05-01T10:15:30",    // missing offset
		"2024-05-01",             // date only
		"01.05.2024 10:15:30",    // wrong format entirely
		"",
	} {
		_, err := ParseTimestamp(s)
		require.Error(t, err, s)
	}
}

func TestFormatTimestampIsUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2024, 5, 1, 12, 0, 30, 0, loc)
	assert.Equal(t, "2024-05-01T11:00:30Z", FormatTimestamp(ts))
}
