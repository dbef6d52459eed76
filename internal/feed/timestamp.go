package feed

import (
	"strings"
	"time"
)

// Layouts accepted for trip timestamps. Fractional seconds are accepted after
// any layout with seconds.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z07",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
}

// ParseTimestamp parses a trip timestamp and returns it in loc. Timestamps
// without an offset are taken as wall-clock time in loc. An unparseable value
// yields the zero time, which ingestion treats as a missing minute.
func ParseTimestamp(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc)
		}
	}
	return time.Time{}
}
