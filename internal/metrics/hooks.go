package metrics

import (
	"strconv"
	"time"

	"bikewatching/internal/traffic"
)

// The methods below are safe on a nil *Collector so callers can run with
// metrics disabled.

func (c *Collector) ObserveLoad(d time.Duration, err error) {
	if c == nil {
		return
	}
	c.LoadDuration.Observe(d.Seconds())
	if err != nil {
		c.DatasetLoads.WithLabelValues("error").Inc()
		return
	}
	c.DatasetLoads.WithLabelValues("ok").Inc()
}

func (c *Collector) ObserveDataset(stats traffic.Stats, stations int) {
	if c == nil {
		return
	}
	c.TripsIngested.Set(float64(stats.Trips))
	c.DroppedDepartures.Set(float64(stats.DroppedDepartures))
	c.DroppedArrivals.Set(float64(stats.DroppedArrivals))
	c.Stations.Set(float64(stations))
	c.StoreSwaps.Inc()
}

func (c *Collector) ObserveAggregation(d time.Duration) {
	if c == nil {
		return
	}
	c.AggregationTime.Observe(d.Seconds())
}

func (c *Collector) DBSwitched(reason string) {
	if c == nil {
		return
	}
	c.DBSwitches.WithLabelValues(reason).Inc()
}

func (c *Collector) HTTPRequest(route string, code int) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (c *Collector) NATSPublishedInc() {
	if c != nil {
		c.NATSPublished.Inc()
	}
}

func (c *Collector) NATSPublishErrInc() {
	if c != nil {
		c.NATSPublishErrs.Inc()
	}
}

func (c *Collector) PublishObserve(d time.Duration) {
	if c != nil {
		c.PublishDuration.Observe(d.Seconds())
	}
}

func (c *Collector) NATSSetConnected(connected bool) {
	if c == nil {
		return
	}
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

func (c *Collector) SnapshotWritten(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.SnapshotWriteErrs.Inc()
		return
	}
	c.SnapshotWrites.Inc()
}
