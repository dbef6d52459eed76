package traffic

import (
	"fmt"
	"strconv"
)

// Window selects trips by time of day: either every slot, or the 120 slots
// centered on a minute.
type Window struct {
	center  int
	bounded bool
}

// Unbounded applies no time filter.
var Unbounded = Window{center: -1}

// Centered returns the ±WindowRadius window around minute.
func Centered(minute int) (Window, error) {
	if !validMinute(minute) {
		return Window{}, fmt.Errorf("%w: %d", ErrMinuteOutOfRange, minute)
	}
	return Window{center: minute, bounded: true}, nil
}

// ParseWindow maps the -1 sentinel to Unbounded and anything else to Centered.
func ParseWindow(minute int) (Window, error) {
	if minute == -1 {
		return Unbounded, nil
	}
	return Centered(minute)
}

// Center returns the center minute, or -1 for Unbounded.
func (w Window) Center() int {
	if !w.bounded {
		return -1
	}
	return w.center
}

// IsBounded reports whether w filters by time of day.
func (w Window) IsBounded() bool { return w.bounded }

// Bounds returns the half-open slot range [lower, upper) modulo a day.
// lower > upper means the window wraps past midnight.
func (w Window) Bounds() (lower, upper int, bounded bool) {
	if !w.bounded {
		return 0, MinutesPerDay, false
	}
	lower = (w.center - WindowRadius + MinutesPerDay) % MinutesPerDay
	upper = (w.center + WindowRadius) % MinutesPerDay
	return lower, upper, true
}

// Token is a compact identifier usable in keys and subjects: "all" or the center minute.
func (w Window) Token() string {
	if !w.bounded {
		return "all"
	}
	return strconv.Itoa(w.center)
}

// Label is the human readable form, e.g. "any time" or "8:00 AM".
func (w Window) Label() string {
	if !w.bounded {
		return "any time"
	}
	return FormatMinute(w.center)
}

func (w Window) String() string { return w.Token() }

// SelectWindow flattens the slots covered by w into a new slice.
func SelectWindow(b *Buckets, w Window) []*TripRecord {
	lower, upper, bounded := w.Bounds()
	if !bounded {
		return flatten(b[:])
	}
	if lower <= upper {
		return flatten(b[lower:upper])
	}
	return flatten(b[lower:], b[:upper])
}

func flatten(ranges ...[][]*TripRecord) []*TripRecord {
	n := 0
	for _, slots := range ranges {
		for _, slot := range slots {
			n += len(slot)
		}
	}
	out := make([]*TripRecord, 0, n)
	for _, slots := range ranges {
		for _, slot := range slots {
			out = append(out, slot...)
		}
	}
	return out
}
