package utils

import (
	"time"
)

// Iso8601 formats t in UTC using RFC3339
func Iso8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Iso8601Millis formats t in UTC with millisecond precision
func Iso8601Millis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// FromUnixMillis converts epoch milliseconds, the unit of trajectory feeds
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
