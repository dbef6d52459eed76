package snapshot

import (
	"context"
	"testing"
	"time"

	"bikewatching/internal/traffic"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "traffic:all", Key("all"))
	assert.Equal(t, "traffic:480", Key("480"))
}

func TestUnreachableRedisSkipsWrites(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Nothing listens on port 1; the dial fails immediately.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := newStore(ctx, client, time.Minute)
	defer s.Close()

	assert.False(t, s.Available())
	err := s.Save(ctx, traffic.NewReport(traffic.Unbounded, nil, time.Now()))
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = s.Latest(ctx, "all")
	require.ErrorIs(t, err, ErrUnavailable)
}

func newMiniStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := newStore(context.Background(), redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestSaveThenLatest(t *testing.T) {
	s, mr := newMiniStore(t, 90*time.Second)
	require.True(t, s.Available())
	ctx := context.Background()

	w, err := traffic.Centered(480)
	require.NoError(t, err)
	saved := traffic.NewReport(w, []traffic.Station{
		{ID: "M32004", Name: "Kendall", Departures: 3, Arrivals: 1, TotalTraffic: 4},
	}, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, s.Save(ctx, saved))

	assert.True(t, mr.Exists("traffic:480"))
	assert.Equal(t, 90*time.Second, mr.TTL("traffic:480"))

	got, err := s.Latest(ctx, "480")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "480", got.Window)
	assert.Equal(t, "8:00 AM", got.Label)
	assert.Equal(t, 4, got.MaxTraffic)
	assert.Equal(t, [2]int{3, 40}, got.RadiusRange)
	assert.True(t, saved.GeneratedAt.Equal(got.GeneratedAt))
	require.Len(t, got.Stations, 1)
	assert.Equal(t, "M32004", got.Stations[0].ID)
	assert.Equal(t, 3, got.Stations[0].Departures)
	assert.Equal(t, traffic.FlowDepartures, got.Stations[0].Flow)
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	s, _ := newMiniStore(t, time.Minute)
	ctx := context.Background()

	first := traffic.NewReport(traffic.Unbounded, nil, time.Now())
	second := traffic.NewReport(traffic.Unbounded, nil, time.Now())
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	got, err := s.Latest(ctx, "all")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestLatestMissingWindow(t *testing.T) {
	s, _ := newMiniStore(t, time.Minute)
	_, err := s.Latest(context.Background(), "15")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLatestExpiredSnapshot(t *testing.T) {
	s, mr := newMiniStore(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, traffic.NewReport(traffic.Unbounded, nil, time.Now())))

	mr.FastForward(2 * time.Minute)
	_, err := s.Latest(ctx, "all")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLatestCorruptSnapshot(t *testing.T) {
	s, mr := newMiniStore(t, time.Minute)
	require.NoError(t, mr.Set(Key("all"), "{not json"))

	_, err := s.Latest(context.Background(), "all")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
