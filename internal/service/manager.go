package service

import (
	"context"
	"sync"
	"time"

	"bikewatching/internal/traffic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type TripSource interface {
	LoadTrips(ctx context.Context) ([]traffic.RawTrip, error)
}

type StationSource interface {
	LoadStations(ctx context.Context) ([]traffic.Station, error)
}

type Publisher interface {
	PublishTraffic(r traffic.Report) error
}

type SnapshotStore interface {
	Save(ctx context.Context, r traffic.Report) error
}

type Metrics interface {
	ObserveLoad(d time.Duration, err error)
	ObserveDataset(stats traffic.Stats, stations int)
	ObserveAggregation(d time.Duration)
	SnapshotWritten(err error)
}

type Options struct {
	PublishInterval time.Duration
	RefreshInterval time.Duration
	Location        *time.Location

	// Optional sinks; nil disables them.
	Publisher Publisher
	Snapshots SnapshotStore
	Metrics   Metrics

	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager owns the current dataset: it loads trips and stations, swaps the
// bucket store atomically and answers or publishes windowed traffic.
type Manager struct {
	trips    TripSource
	stations StationSource
	opt      Options

	current traffic.Holder
	loadMu  sync.Mutex

	mu      sync.Mutex
	cancels []context.CancelFunc
	wg      sync.WaitGroup
}

func NewManager(trips TripSource, stations StationSource, opt Options) *Manager {
	if opt.Location == nil {
		opt.Location = time.Local
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &Manager{trips: trips, stations: stations, opt: opt}
}

// Load fetches both feeds and installs the new dataset. On error the
// previous dataset stays in place.
func (m *Manager) Load(ctx context.Context) (err error) {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	start := time.Now()
	defer func() {
		if m.opt.Metrics != nil {
			m.opt.Metrics.ObserveLoad(time.Since(start), err)
		}
	}()

	stations, err := m.stations.LoadStations(ctx)
	if err != nil {
		return errors.Wrap(err, "load stations")
	}
	raw, err := m.trips.LoadTrips(ctx)
	if err != nil {
		return errors.Wrap(err, "load trips")
	}

	store := traffic.Ingest(raw)
	stats := store.Stats()
	if stats.DroppedDepartures > 0 || stats.DroppedArrivals > 0 {
		log.Warnf("excluded %d departures and %d arrivals with unparseable timestamps", stats.DroppedDepartures, stats.DroppedArrivals)
	}

	m.current.Swap(&traffic.Dataset{Store: store, Stations: stations})
	if m.opt.Metrics != nil {
		m.opt.Metrics.ObserveDataset(stats, len(stations))
	}
	log.Infof("dataset loaded: %d trips, %d stations in %s", stats.Trips, len(stations), time.Since(start).Round(time.Millisecond))
	return nil
}

func (m *Manager) Ready() bool { return m.current.Loaded() }

func (m *Manager) Stations() []traffic.Station { return m.current.Load().Stations }

// Traffic aggregates the current dataset over w.
func (m *Manager) Traffic(w traffic.Window) traffic.Report {
	ds := m.current.Load()

	start := time.Now()
	counted := ds.Traffic(w)
	if m.opt.Metrics != nil {
		m.opt.Metrics.ObserveAggregation(time.Since(start))
	}
	return traffic.NewReport(w, counted, m.opt.Now())
}

// StationTraffic returns the counts of a single station over w.
func (m *Manager) StationTraffic(id string, w traffic.Window) (traffic.StationTraffic, bool) {
	ds := m.current.Load()
	s, ok := ds.Station(id)
	if !ok {
		return traffic.StationTraffic{}, false
	}
	counted := ds.Store.Aggregate(w, []traffic.Station{s})[0]
	return traffic.StationTraffic{Station: counted, Flow: counted.Flow()}, true
}

// CurrentWindow is the window centered on the present minute of day.
func (m *Manager) CurrentWindow() traffic.Window {
	w, err := traffic.Centered(traffic.MinuteOfDay(m.opt.Now().In(m.opt.Location)))
	if err != nil {
		// unreachable: MinuteOfDay of a non-zero time is always in range
		return traffic.Unbounded
	}
	return w
}

// PublishNow sends the current-minute and all-day reports to the configured sinks.
func (m *Manager) PublishNow(ctx context.Context) {
	if !m.Ready() {
		log.Debugf("skipping publish: no dataset loaded")
		return
	}
	for _, w := range []traffic.Window{m.CurrentWindow(), traffic.Unbounded} {
		r := m.Traffic(w)
		if m.opt.Publisher != nil {
			if err := m.opt.Publisher.PublishTraffic(r); err != nil {
				log.Errorf("publish error for window %s: %v", r.Window, err)
			}
		}
		if m.opt.Snapshots != nil {
			err := m.opt.Snapshots.Save(ctx, r)
			if m.opt.Metrics != nil {
				m.opt.Metrics.SnapshotWritten(err)
			}
			if err != nil {
				log.Warnf("snapshot save for window %s: %v", r.Window, err)
			}
		}
		log.Debugf("published traffic for %s (%d stations)", r.Label, len(r.Stations))
	}
}

// StartRefresher reloads the dataset every RefreshInterval. A failed reload
// is logged and the previous dataset keeps serving.
func (m *Manager) StartRefresher(ctx context.Context) {
	m.every(ctx, m.opt.RefreshInterval, false, func(ctx context.Context) {
		if err := m.Load(ctx); err != nil {
			log.Errorf("dataset refresh error: %v", err)
		}
	})
}

// StartPublisher publishes right away and then every PublishInterval. It does
// nothing when no sink is configured.
func (m *Manager) StartPublisher(ctx context.Context) {
	if m.opt.Publisher == nil && m.opt.Snapshots == nil {
		return
	}
	m.every(ctx, m.opt.PublishInterval, true, m.PublishNow)
}

// every runs fn on each tick until ctx is done or Stop is called, and once
// up front when immediate is set. Non-positive intervals disable the loop.
func (m *Manager) every(parent context.Context, interval time.Duration, immediate bool, fn func(context.Context)) {
	if interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	m.mu.Lock()
	m.cancels = append(m.cancels, cancel)
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if immediate {
			fn(ctx)
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}

// Stop cancels the background loops and waits for them to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancels := m.cancels
	m.cancels = nil
	m.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	m.wg.Wait()
}
