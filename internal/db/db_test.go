package db

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchTrips(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	loc := time.FixedZone("EST", -5*3600)
	mock.ExpectQuery(`FROM trips`).WillReturnRows(
		sqlmock.NewRows([]string{"start_station_id", "end_station_id", "started_at", "ended_at"}).
			AddRow("M32004", "M32006", "2024-03-01 08:15:30", "2024-03-01 08:40:02.5").
			AddRow("M32006", "M32011", "2024-03-01 18:00:00+00", "").
			AddRow("M32011", "M32004", "garbage", "2024-03-01 09:00:00").
			AddRow("", "", "", ""),
	)

	trips, err := FetchTrips(context.Background(), conn, loc)
	require.NoError(t, err)
	require.Len(t, trips, 4)

	assert.Equal(t, "M32004", trips[0].StartStationID)
	assert.Equal(t, "M32006", trips[0].EndStationID)
	assert.Equal(t, 8, trips[0].StartedAt.Hour())
	assert.Equal(t, 40, trips[0].EndedAt.Minute())

	assert.Equal(t, 13, trips[1].StartedAt.Hour(), "offset converted into the configured zone")
	assert.True(t, trips[1].EndedAt.IsZero(), "NULL end keeps the row")

	assert.True(t, trips[2].StartedAt.IsZero(), "unparseable start keeps the row")
	assert.Equal(t, 9, trips[2].EndedAt.Hour())

	assert.True(t, trips[3].StartedAt.IsZero())
	assert.True(t, trips[3].EndedAt.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchTripsQueryError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery(`FROM trips`).WillReturnError(assert.AnError)
	_, err = FetchTrips(context.Background(), conn, time.UTC)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestFetchStations(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery(`FROM stations`).WillReturnRows(
		sqlmock.NewRows([]string{"station_id", "name", "lat", "lon"}).
			AddRow("A32000", "Andrew Square", 42.3297, -71.0568).
			AddRow("", "No id", 42.1, -71.1).
			AddRow("   ", "Blank id", 42.1, -71.1).
			AddRow("B32001", "No latitude", math.NaN(), -71.1).
			AddRow("B32002", "No longitude", 42.1, math.NaN()).
			AddRow("B32003", "Infinite", math.Inf(1), -71.1).
			AddRow("M32004", "Kendall", 42.3625, -71.0862),
	)

	stations, err := FetchStations(context.Background(), conn)
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, "A32000", stations[0].ID)
	assert.Equal(t, "Andrew Square", stations[0].Name)
	assert.InDelta(t, 42.3297, stations[0].Lat, 1e-9)
	assert.Equal(t, "M32004", stations[1].ID)
	assert.InDelta(t, -71.0862, stations[1].Lon, 1e-9)
	assert.Zero(t, stations[1].TotalTraffic)

	assert.NoError(t, mock.ExpectationsWereMet())
}
