// Package traffic indexes trips by minute of day and aggregates per-station
// departures and arrivals over circular time-of-day windows.
package traffic

import "time"

const (
	MinutesPerDay = 1440
	// WindowRadius is the half width of a centered window, in minutes.
	WindowRadius = 60
)

// Buckets holds one slot per minute of the day. Each slot keeps trips in
// ingestion order.
type Buckets [MinutesPerDay][]*TripRecord

// Len returns the number of trips across all slots.
func (b *Buckets) Len() int {
	n := 0
	for i := range b {
		n += len(b[i])
	}
	return n
}

// Store is the immutable minute index built from one dataset. It is safe for
// concurrent readers.
type Store struct {
	records    []TripRecord
	departures Buckets
	arrivals   Buckets
	stats      Stats
}

// MinuteOfDay converts a wall-clock timestamp to hour*60+minute in the
// timestamp's own location. Zero time yields -1.
func MinuteOfDay(t time.Time) int {
	if t.IsZero() {
		return -1
	}
	return t.Hour()*60 + t.Minute()
}

// NewTripRecord derives the bucketing minutes of a raw trip.
func NewTripRecord(t RawTrip) TripRecord {
	return TripRecord{
		StartStationID: t.StartStationID,
		EndStationID:   t.EndStationID,
		StartMinute:    MinuteOfDay(t.StartedAt),
		EndMinute:      MinuteOfDay(t.EndedAt),
	}
}

// Ingest builds a store from raw trips in a single pass.
func Ingest(trips []RawTrip) *Store {
	records := make([]TripRecord, len(trips))
	for i, t := range trips {
		records[i] = NewTripRecord(t)
	}
	return build(records)
}

// Build indexes already derived records. The input slice is copied.
func Build(records []TripRecord) *Store {
	return build(append([]TripRecord(nil), records...))
}

func build(records []TripRecord) *Store {
	s := &Store{records: records}
	s.stats.Trips = len(records)
	for i := range records {
		r := &s.records[i]
		// a trip with a bad end minute still counts as a departure, and vice versa
		if validMinute(r.StartMinute) {
			s.departures[r.StartMinute] = append(s.departures[r.StartMinute], r)
			s.stats.Departures++
		} else {
			s.stats.DroppedDepartures++
		}
		if validMinute(r.EndMinute) {
			s.arrivals[r.EndMinute] = append(s.arrivals[r.EndMinute], r)
			s.stats.Arrivals++
		} else {
			s.stats.DroppedArrivals++
		}
	}
	return s
}

func validMinute(m int) bool { return m >= 0 && m < MinutesPerDay }

// Departures returns the departure index keyed by start minute. Callers must not modify it.
func (s *Store) Departures() *Buckets { return &s.departures }

// Arrivals returns the arrival index keyed by end minute. Callers must not modify it.
func (s *Store) Arrivals() *Buckets { return &s.arrivals }

// Stats reports how many trips were indexed and how many were excluded per index.
func (s *Store) Stats() Stats { return s.stats }
