package publisher

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bikewatching/internal/traffic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	closed   bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}
func (f *fakeConn) Drain() error { return nil }
func (f *fakeConn) Close()       { f.closed = true }

type countingMetrics struct {
	published, errs int
}

func (c *countingMetrics) NATSPublishedInc()            { c.published++ }
func (c *countingMetrics) NATSPublishErrInc()           { c.errs++ }
func (c *countingMetrics) PublishObserve(time.Duration) {}
func (c *countingMetrics) NATSSetConnected(bool)        {}

func TestSubjectToken(t *testing.T) {
	assert.Equal(t, "traffic", subjectToken(" traffic "))
	assert.Equal(t, "a_b_c", subjectToken("a.b c"))
	assert.Equal(t, "x__", subjectToken("x*>"))
	assert.Equal(t, "_", subjectToken(""))
}

func TestPublishTraffic(t *testing.T) {
	fc := &fakeConn{}
	m := &countingMetrics{}
	p := newPublisher(fc, "bikes.city", false, m)

	w, _ := traffic.Centered(480)
	r := traffic.NewReport(w, []traffic.Station{{ID: "A", Departures: 1, TotalTraffic: 1}}, time.Now())
	require.NoError(t, p.PublishTraffic(r))
	require.NoError(t, p.PublishTraffic(traffic.NewReport(traffic.Unbounded, nil, time.Now())))

	assert.Equal(t, []string{"bikes_city.480", "bikes_city.all"}, fc.subjects)
	var got traffic.Report
	require.NoError(t, json.Unmarshal(fc.payloads[0], &got))
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, traffic.FlowDepartures, got.Stations[0].Flow)
	assert.Equal(t, 2, m.published)

	p.Close()
	assert.True(t, fc.closed)
}

func TestPublishTrafficError(t *testing.T) {
	fc := &fakeConn{err: errors.New("no responders")}
	m := &countingMetrics{}
	p := newPublisher(fc, "traffic", false, m)

	err := p.PublishTraffic(traffic.NewReport(traffic.Unbounded, nil, time.Now()))
	assert.Error(t, err)
	assert.Equal(t, 1, m.errs)
}
