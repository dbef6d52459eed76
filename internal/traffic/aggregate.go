package traffic

import "sync/atomic"

// Rollup counts trips per key. Keys with no trips are absent.
func Rollup(trips []*TripRecord, key func(*TripRecord) string) map[string]int {
	counts := make(map[string]int)
	for _, t := range trips {
		counts[key(t)]++
	}
	return counts
}

func startStation(t *TripRecord) string { return t.StartStationID }
func endStation(t *TripRecord) string   { return t.EndStationID }

// Aggregate returns stations in input order with Departures, Arrivals and
// TotalTraffic computed over w. The input slice is not modified, so concurrent
// calls may share it. Stations without matching trips get zero counts.
func (s *Store) Aggregate(w Window, stations []Station) []Station {
	departures := Rollup(SelectWindow(&s.departures, w), startStation)
	arrivals := Rollup(SelectWindow(&s.arrivals, w), endStation)

	out := make([]Station, len(stations))
	for i, st := range stations {
		st.Departures = departures[st.ID]
		st.Arrivals = arrivals[st.ID]
		st.TotalTraffic = st.Departures + st.Arrivals
		out[i] = st
	}
	return out
}

// Dataset pairs a store with the stations it is reported against. Both are
// replaced together so a query never mixes two loads.
type Dataset struct {
	Store    *Store
	Stations []Station
}

// Traffic aggregates the dataset's stations over w.
func (d *Dataset) Traffic(w Window) []Station { return d.Store.Aggregate(w, d.Stations) }

// Station returns the station with the given id, if the dataset lists it.
func (d *Dataset) Station(id string) (Station, bool) {
	for _, s := range d.Stations {
		if s.ID == id {
			return s, true
		}
	}
	return Station{}, false
}

// Holder publishes the current dataset to concurrent readers. Replacing it
// never disturbs queries already running against the previous one.
type Holder struct {
	p atomic.Pointer[Dataset]
}

var emptyDataset = &Dataset{Store: &Store{}}

// Load returns the current dataset, or an empty one before the first Swap.
func (h *Holder) Load() *Dataset {
	if d := h.p.Load(); d != nil {
		return d
	}
	return emptyDataset
}

// Loaded reports whether a dataset has been installed.
func (h *Holder) Loaded() bool { return h.p.Load() != nil }

// Swap installs d and returns the previous dataset (nil if none).
func (h *Holder) Swap(d *Dataset) *Dataset { return h.p.Swap(d) }
