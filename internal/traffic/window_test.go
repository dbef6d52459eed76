package traffic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oneTripPerMinute builds a store with exactly one departure and one arrival in every slot.
func oneTripPerMinute() *Store {
	records := make([]TripRecord, MinutesPerDay)
	for m := range records {
		records[m] = TripRecord{StartStationID: "S", EndStationID: "E", StartMinute: m, EndMinute: m}
	}
	return Build(records)
}

func minutes(trips []*TripRecord) []int {
	out := make([]int, len(trips))
	for i, t := range trips {
		out[i] = t.StartMinute
	}
	return out
}

func rangeInts(from, to int) []int {
	var out []int
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func TestCenteredValidation(t *testing.T) {
	for _, m := range []int{0, 1, 720, 1439} {
		w, err := Centered(m)
		require.NoError(t, err)
		assert.True(t, w.IsBounded())
		assert.Equal(t, m, w.Center())
	}
	for _, m := range []int{-1, -60, 1440, 5000} {
		_, err := Centered(m)
		assert.ErrorIs(t, err, ErrMinuteOutOfRange, "minute %d", m)
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow(-1)
	require.NoError(t, err)
	assert.Equal(t, Unbounded, w)
	assert.Equal(t, -1, w.Center())

	w, err = ParseWindow(480)
	require.NoError(t, err)
	assert.Equal(t, "480", w.Token())
	assert.Equal(t, "8:00 AM", w.Label())

	_, err = ParseWindow(-2)
	assert.ErrorIs(t, err, ErrMinuteOutOfRange)
}

func TestBounds(t *testing.T) {
	tests := []struct {
		center       int
		lower, upper int
	}{
		{center: 30, lower: 1410, upper: 90},
		{center: 0, lower: 1380, upper: 60},
		{center: 60, lower: 0, upper: 120},
		{center: 720, lower: 660, upper: 780},
		{center: 1380, lower: 1320, upper: 0},
		{center: 1439, lower: 1379, upper: 59},
	}
	for _, tt := range tests {
		w, err := Centered(tt.center)
		require.NoError(t, err)
		lower, upper, bounded := w.Bounds()
		assert.True(t, bounded)
		assert.Equal(t, tt.lower, lower, "center %d", tt.center)
		assert.Equal(t, tt.upper, upper, "center %d", tt.center)
	}
}

func TestSelectWindowUnboundedReturnsEverySlotInOrder(t *testing.T) {
	s := oneTripPerMinute()
	got := SelectWindow(s.Departures(), Unbounded)
	assert.Equal(t, rangeInts(0, MinutesPerDay), minutes(got))
}

func TestSelectWindowIsAlways120Slots(t *testing.T) {
	s := oneTripPerMinute()
	for c := 0; c < MinutesPerDay; c++ {
		w, err := Centered(c)
		require.NoError(t, err)
		got := SelectWindow(s.Departures(), w)
		require.Len(t, got, 2*WindowRadius, "center %d", c)

		seen := make(map[int]bool, len(got))
		for _, tr := range got {
			seen[tr.StartMinute] = true
		}
		require.Len(t, seen, 2*WindowRadius, "center %d has duplicate slots", c)
	}
}

func TestSelectWindowContiguous(t *testing.T) {
	s := oneTripPerMinute()
	w, _ := Centered(720)
	assert.Equal(t, rangeInts(660, 780), minutes(SelectWindow(s.Departures(), w)))
}

func TestSelectWindowWrapsMidnight(t *testing.T) {
	s := oneTripPerMinute()
	w, _ := Centered(30)
	want := append(rangeInts(1410, 1440), rangeInts(0, 90)...)
	assert.Equal(t, want, minutes(SelectWindow(s.Departures(), w)))
}

func TestSelectWindowIncludesLastMinuteAroundMidnight(t *testing.T) {
	s := Build([]TripRecord{{StartStationID: "A", EndStationID: "B", StartMinute: 1439, EndMinute: 5}})
	w, _ := Centered(0)
	got := SelectWindow(s.Departures(), w)
	require.Len(t, got, 1)
	assert.Equal(t, 1439, got[0].StartMinute)
}

func TestSelectWindowUpperBoundIsExclusive(t *testing.T) {
	s := Build([]TripRecord{
		{StartMinute: 540, EndMinute: 540},
		{StartMinute: 660, EndMinute: 660},
	})
	w, _ := Centered(600)
	got := SelectWindow(s.Departures(), w)
	require.Len(t, got, 1)
	assert.Equal(t, 540, got[0].StartMinute)
}

func TestSelectWindowReturnsFreshSlice(t *testing.T) {
	s := oneTripPerMinute()
	w, _ := Centered(100)
	a := SelectWindow(s.Departures(), w)
	a[0] = nil
	b := SelectWindow(s.Departures(), w)
	assert.NotNil(t, b[0])
	assert.Len(t, s.Departures()[40], 1)
}
