package traffic

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReport(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	w, _ := Centered(480)
	stations := []Station{
		{ID: "A", Departures: 4, Arrivals: 0, TotalTraffic: 4},
		{ID: "B", Departures: 1, Arrivals: 1, TotalTraffic: 2},
	}

	r := NewReport(w, stations, now)
	_, err := uuid.Parse(r.ID)
	require.NoError(t, err)
	assert.Equal(t, "480", r.Window)
	assert.Equal(t, 480, r.Minute)
	assert.Equal(t, "8:00 AM", r.Label)
	assert.Equal(t, 4, r.MaxTraffic)
	assert.Equal(t, [2]int{3, 40}, r.RadiusRange)
	require.Len(t, r.Stations, 2)
	assert.Equal(t, FlowDepartures, r.Stations[0].Flow)
	assert.Equal(t, FlowBalanced, r.Stations[1].Flow)

	other := NewReport(Unbounded, nil, now)
	assert.NotEqual(t, r.ID, other.ID)
	assert.Equal(t, "all", other.Window)
	assert.Equal(t, -1, other.Minute)
	assert.Equal(t, 1, other.MaxTraffic)
	assert.Equal(t, [2]int{2, 25}, other.RadiusRange)
}

func TestReportJSONShape(t *testing.T) {
	r := NewReport(Unbounded, []Station{{ID: "A", Name: "Kendall", Departures: 0, Arrivals: 3, TotalTraffic: 3}}, time.Unix(0, 0).UTC())
	b, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	st := decoded["stations"].([]any)[0].(map[string]any)
	assert.Equal(t, "A", st["id"])
	assert.Equal(t, float64(3), st["totalTraffic"])
	assert.Equal(t, "arrivals", st["flow"])
	assert.Equal(t, "any time", decoded["label"])
	assert.Equal(t, []any{float64(2), float64(25)}, decoded["radiusRange"])
}
