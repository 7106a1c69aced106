package mongo

import "time"

// Timestamps are stored as unix milliseconds; zero times round-trip as 0 so
// unset fields like a pending record's resolution time stay zero.

func timeToTimestamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func timestampToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
