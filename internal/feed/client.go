package feed

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"bikewatching/internal/traffic"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Client loads the trips CSV and the GBFS station list from URLs or local files.
type Client struct {
	http        *http.Client
	loc         *time.Location
	tripsURL    string
	stationsURL string
}

func NewClient(tripsURL, stationsURL string, timeout time.Duration, loc *time.Location) *Client {
	return &Client{
		http:        &http.Client{Timeout: timeout},
		loc:         loc,
		tripsURL:    tripsURL,
		stationsURL: stationsURL,
	}
}

func (c *Client) LoadTrips(ctx context.Context) ([]traffic.RawTrip, error) {
	body, err := c.open(ctx, c.tripsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	trips, err := ReadTripsCSV(body, c.loc)
	if err != nil {
		return nil, errors.Wrapf(err, "trips %s", c.tripsURL)
	}
	log.Debugf("read %d trips from %s", len(trips), c.tripsURL)
	return trips, nil
}

func (c *Client) LoadStations(ctx context.Context) ([]traffic.Station, error) {
	body, err := c.open(ctx, c.stationsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	stations, err := DecodeStationInformation(body)
	if err != nil {
		return nil, errors.Wrapf(err, "stations %s", c.stationsURL)
	}
	log.Debugf("read %d stations from %s", len(stations), c.stationsURL)
	return stations, nil
}

// open fetches http(s) locations and opens anything else as a file path.
func (c *Client) open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		f, err := os.Open(strings.TrimPrefix(location, "file://"))
		if err != nil {
			return nil, errors.Wrap(err, "open feed file")
		}
		return f, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build feed request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", location)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.Wrapf(ErrUnexpectedStatus, "%s: %d", location, resp.StatusCode)
	}
	return resp.Body, nil
}
