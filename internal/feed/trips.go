// Package feed reads trip and station datasets published as CSV and GBFS JSON.
package feed

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"bikewatching/internal/traffic"

	"github.com/pkg/errors"
)

const (
	colStartedAt      = "started_at"
	colEndedAt        = "ended_at"
	colStartStationID = "start_station_id"
	colEndStationID   = "end_station_id"
)

// ReadTripsCSV parses a trips export with a header row. Columns are located by
// name; extra columns are ignored. A row with an unparseable timestamp is kept
// with a zero time in that field so only the affected bucket loses it.
func ReadTripsCSV(r io.Reader, loc *time.Location) ([]traffic.RawTrip, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFeed
	}
	if err != nil {
		return nil, errors.Wrap(err, "read trips header")
	}
	idx, err := columnIndex(header, colStartedAt, colEndedAt, colStartStationID, colEndStationID)
	if err != nil {
		return nil, err
	}

	var trips []traffic.RawTrip
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read trips row")
		}
		field := func(name string) string {
			if i := idx[name]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		trips = append(trips, traffic.RawTrip{
			StartStationID: field(colStartStationID),
			EndStationID:   field(colEndStationID),
			StartedAt:      ParseTimestamp(field(colStartedAt), loc),
			EndedAt:        ParseTimestamp(field(colEndedAt), loc),
		})
	}
	return trips, nil
}

func columnIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, errors.Wrap(ErrMissingColumn, name)
		}
	}
	return idx, nil
}
