package traffic

import (
	"time"

	"github.com/google/uuid"
)

// StationTraffic is a station with its flow classification, as rendered.
type StationTraffic struct {
	Station
	Flow Flow `json:"flow"`
}

// Report is the externally visible result of one aggregation.
type Report struct {
	ID          string           `json:"id"`
	Window      string           `json:"window"`
	Minute      int              `json:"minute"`
	Label       string           `json:"label"`
	GeneratedAt time.Time        `json:"generatedAt"`
	MaxTraffic  int              `json:"maxTraffic"`
	RadiusRange [2]int           `json:"radiusRange"`
	Stations    []StationTraffic `json:"stations"`
}

func NewReport(w Window, stations []Station, now time.Time) Report {
	out := make([]StationTraffic, len(stations))
	for i, s := range stations {
		out[i] = StationTraffic{Station: s, Flow: s.Flow()}
	}
	return Report{
		ID:          uuid.NewString(),
		Window:      w.Token(),
		Minute:      w.Center(),
		Label:       w.Label(),
		GeneratedAt: now,
		MaxTraffic:  MaxTraffic(stations),
		RadiusRange: RadiusRange(w),
		Stations:    out,
	}
}
