package feed

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"bikewatching/internal/traffic"

	"github.com/pkg/errors"
)

// coordinate accepts a JSON number or a numeric string.
type coordinate float64

func (c *coordinate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = coordinate(math.NaN())
		return nil
	}
	s := strings.Trim(string(b), `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*c = coordinate(math.NaN())
		return nil
	}
	*c = coordinate(f)
	return nil
}

func (c *coordinate) value() float64 {
	if c == nil {
		return math.NaN()
	}
	return float64(*c)
}

type stationInformation struct {
	Data struct {
		Stations []struct {
			StationID string      `json:"station_id"`
			ShortName string      `json:"short_name"`
			Name      string      `json:"name"`
			Lat       *coordinate `json:"lat"`
			Lon       *coordinate `json:"lon"`
		} `json:"stations"`
	} `json:"data"`
}

// DecodeStationInformation reads a GBFS station_information document. Station
// ids are the short names used by the trip exports; stations without one or
// with non-finite coordinates are dropped.
func DecodeStationInformation(r io.Reader) ([]traffic.Station, error) {
	var doc stationInformation
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode station_information")
	}
	stations := make([]traffic.Station, 0, len(doc.Data.Stations))
	for _, s := range doc.Data.Stations {
		lat, lon := s.Lat.value(), s.Lon.value()
		if s.ShortName == "" || !finite(lat) || !finite(lon) {
			continue
		}
		stations = append(stations, traffic.Station{
			ID:   s.ShortName,
			Name: s.Name,
			Lat:  lat,
			Lon:  lon,
		})
	}
	return stations, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
