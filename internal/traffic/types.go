package traffic

import "time"

// RawTrip is a trip as read from a feed, before minute bucketing.
// A zero StartedAt or EndedAt means the timestamp could not be parsed.
type RawTrip struct {
	StartStationID string
	EndStationID   string
	StartedAt      time.Time
	EndedAt        time.Time
}

// TripRecord is an ingested trip. Minutes are minute-of-day (0..1439); -1 marks
// a timestamp that could not be converted.
type TripRecord struct {
	StartStationID string
	EndStationID   string
	StartMinute    int
	EndMinute      int
}

// Station carries per-query traffic counters. The counters are overwritten by
// every aggregation and are not state of the station itself.
type Station struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Departures   int     `json:"departures"`
	Arrivals     int     `json:"arrivals"`
	TotalTraffic int     `json:"totalTraffic"`
}

// Stats summarises an ingestion pass.
type Stats struct {
	Trips             int
	Departures        int
	Arrivals          int
	DroppedDepartures int
	DroppedArrivals   int
}
