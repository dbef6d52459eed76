package traffic

import (
	"fmt"
	"time"
)

// Flow classifies a station by its share of departures.
type Flow int

const (
	FlowBalanced Flow = iota
	FlowDepartures
	FlowArrivals
)

func (f Flow) String() string {
	switch f {
	case FlowDepartures:
		return "departures"
	case FlowArrivals:
		return "arrivals"
	default:
		return "balanced"
	}
}

func (f Flow) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Flow) UnmarshalText(b []byte) error {
	switch string(b) {
	case "departures":
		*f = FlowDepartures
	case "arrivals":
		*f = FlowArrivals
	case "balanced":
		*f = FlowBalanced
	default:
		return fmt.Errorf("unknown flow %q", b)
	}
	return nil
}

// DepartureRatio is Departures/TotalTraffic, 0.5 for a station with no traffic.
func (s Station) DepartureRatio() float64 {
	if s.TotalTraffic == 0 {
		return 0.5
	}
	return float64(s.Departures) / float64(s.TotalTraffic)
}

func (s Station) Flow() Flow {
	r := s.DepartureRatio()
	switch {
	case r > 0.66:
		return FlowDepartures
	case r < 0.33:
		return FlowArrivals
	default:
		return FlowBalanced
	}
}

// MaxTraffic returns the largest TotalTraffic, or 1 when every station is idle,
// so it can be used directly as a scale domain.
func MaxTraffic(stations []Station) int {
	top := 0
	for _, s := range stations {
		if s.TotalTraffic > top {
			top = s.TotalTraffic
		}
	}
	if top == 0 {
		return 1
	}
	return top
}

// RadiusRange is the pixel range a renderer maps sqrt(TotalTraffic) onto,
// from 0 to MaxTraffic. Windowed counts are smaller, so their range is wider.
func RadiusRange(w Window) [2]int {
	if !w.IsBounded() {
		return [2]int{2, 25}
	}
	return [2]int{3, 40}
}

// FormatMinute renders a minute of day as a 12-hour clock time ("3:04 PM").
func FormatMinute(m int) string {
	m = ((m % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return time.Date(2000, 1, 1, 0, m, 0, 0, time.UTC).Format("3:04 PM")
}
