package db

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"bikewatching/internal/feed"
	"bikewatching/internal/traffic"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// FetchTrips reads every trip of the dataset. Timestamps are read as text and
// parsed in loc so that both timestamp and timestamptz columns give the local
// wall-clock minute. NULL or unparseable timestamps become zero times.
func FetchTrips(ctx context.Context, db *sql.DB, loc *time.Location) ([]traffic.RawTrip, error) {
	q := `
SELECT COALESCE(start_station_id::text, ''),
       COALESCE(end_station_id::text, ''),
       COALESCE(started_at::text, ''),
       COALESCE(ended_at::text, '')
FROM trips`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "query trips")
	}
	defer rows.Close()

	var trips []traffic.RawTrip
	for rows.Next() {
		var t traffic.RawTrip
		var started, ended string
		if err := rows.Scan(&t.StartStationID, &t.EndStationID, &started, &ended); err != nil {
			return nil, errors.Wrap(err, "scan trip")
		}
		t.StartedAt = feed.ParseTimestamp(started, loc)
		t.EndedAt = feed.ParseTimestamp(ended, loc)
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// FetchStations reads the station list, skipping rows without an id or with
// non-finite coordinates.
func FetchStations(ctx context.Context, db *sql.DB) ([]traffic.Station, error) {
	q := `
SELECT COALESCE(station_id::text, ''), COALESCE(name, ''), COALESCE(lat, 'NaN'), COALESCE(lon, 'NaN')
FROM stations
ORDER BY station_id`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "query stations")
	}
	defer rows.Close()

	var stations []traffic.Station
	for rows.Next() {
		var s traffic.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lon); err != nil {
			return nil, errors.Wrap(err, "scan station")
		}
		if strings.TrimSpace(s.ID) == "" || !finite(s.Lat) || !finite(s.Lon) {
			continue
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
