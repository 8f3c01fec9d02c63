package sync

import (
	"fmt"
	"time"
)

// isoFormat is the fixed millisecond-precision wire format. Local
// timestamps are epoch-ms integers; everything crossing the remote
// boundary is an ISO-8601 string.
const isoFormat = "2006-01-02T15:04:05.000Z"

// ToISO converts a local epoch-ms timestamp to its wire representation.
func ToISO(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(isoFormat)
}

// FromISO converts a wire timestamp back to epoch-ms. Accepts the
// formats remote stores are known to emit, not just our own.
func FromISO(s string) (int64, error) {
	formats := []string{
		isoFormat,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized timestamp format: %q", s)
}
