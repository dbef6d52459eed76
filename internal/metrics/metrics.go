package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type Collector struct {
	reg *prometheus.Registry

	TripsIngested     prometheus.Gauge
	Stations          prometheus.Gauge
	DroppedDepartures prometheus.Gauge
	DroppedArrivals   prometheus.Gauge

	DatasetLoads    *prometheus.CounterVec // result label: ok|error
	LoadDuration    prometheus.Histogram
	StoreSwaps      prometheus.Counter
	DBSwitches      *prometheus.CounterVec // reason label: update|ping_failure
	AggregationTime prometheus.Histogram

	HTTPRequests *prometheus.CounterVec // route, code

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	SnapshotWrites    prometheus.Counter
	SnapshotWriteErrs prometheus.Counter

	PublishInterval prometheus.Gauge // seconds
	RefreshInterval prometheus.Gauge // seconds
}

func NewCollector(publishInterval, refreshInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		TripsIngested: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikewatching_trips_ingested",
			Help: "Trips in the current dataset.",
		}),
		Stations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikewatching_stations",
			Help: "Stations in the current dataset.",
		}),
		DroppedDepartures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikewatching_dropped_departures",
			Help: "Trips of the current dataset left out of the departure index.",
		}),
		DroppedArrivals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikewatching_dropped_arrivals",
			Help: "Trips of the current dataset left out of the arrival index.",
		}),
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikewatching_dataset_loads_total",
			Help: "Dataset load attempts by result.",
		}, []string{"result"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bikewatching_dataset_load_duration_seconds",
			Help:    "Duration to fetch and index a dataset.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		StoreSwaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikewatching_store_swaps_total",
			Help: "Number of times a new bucket store replaced the previous one.",
		}),
		DBSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikewatching_db_switches_total",
			Help: "Number of database switches.",
		}, []string{"reason"}),
		AggregationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bikewatching_aggregation_duration_seconds",
			Help:    "Duration of a windowed station aggregation.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikewatching_http_requests_total",
			Help: "HTTP API requests by route and status code.",
		}, []string{"route", "code"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikewatching_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikewatching_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikewatching_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bikewatching_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		SnapshotWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikewatching_snapshot_writes_total",
			Help: "Traffic snapshots written to Redis.",
		}),
		SnapshotWriteErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikewatching_snapshot_write_errors_total",
			Help: "Failed traffic snapshot writes.",
		}),
		PublishInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikewatching_publish_interval_seconds",
			Help: "Publish interval in seconds.",
		}),
		RefreshInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikewatching_refresh_interval_seconds",
			Help: "Dataset refresh interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.TripsIngested, c.Stations, c.DroppedDepartures, c.DroppedArrivals,
		c.DatasetLoads, c.LoadDuration, c.StoreSwaps, c.DBSwitches, c.AggregationTime,
		c.HTTPRequests,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.SnapshotWrites, c.SnapshotWriteErrs,
		c.PublishInterval, c.RefreshInterval,
	)

	c.PublishInterval.Set(publishInterval.Seconds())
	c.RefreshInterval.Set(refreshInterval.Seconds())

	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
