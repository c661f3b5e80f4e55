// Package routerclient implements the Router Client (spec §4.A): an HTTP
// client against an OSRM-compatible routing service, backed by a
// persistent on-disk travel-time cache and a circuit breaker that isolates
// the rest of the engine from outages of the external service.
package routerclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jwmdev/schoolbus-fleet-core/model"
)

const maxCoordsPerRequest = 100

// Client is the Router Client. One Client is shared across all in-flight
// optimization jobs; its cache and counters are safe for concurrent use.
type Client struct {
	cfg  model.RouterConfig
	http *http.Client
	cb   *breaker
	cache *diskCache
	log  *logrus.Entry

	requests  atomic.Int64
	apiErrors atomic.Int64
}

// New constructs a Client for cfg. The cache file at cfg.CachePath (if set)
// is loaded synchronously before New returns.
func New(cfg model.RouterConfig, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	connectTimeout := time.Duration(cfg.ConnectTimeout) * time.Second
	readTimeout := time.Duration(cfg.ReadTimeout) * time.Second
	if connectTimeout <= 0 {
		connectTimeout = 3 * time.Second
	}
	if readTimeout <= 0 {
		readTimeout = 7 * time.Second
	}
	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := &http.Transport{DialContext: dialer.DialContext}
	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   connectTimeout + readTimeout,
			Transport: transport,
		},
		cb:    newBreaker(log.WithField("component", "breaker")),
		cache: newDiskCache(cfg.CachePath, log.WithField("component", "cache")),
		log:   log,
	}
	return c
}

// Close flushes the cache and stops its writer goroutine.
func (c *Client) Close() { c.cache.Close() }

// Counters is a read-only snapshot of the client's diagnostic counters.
type Counters struct {
	Requests        int64
	CacheHits       int64
	APIErrors       int64
	BreakerOpenings int64
	BreakerState    string
}

// Counters reads the client's counters without locking contention.
func (c *Client) Counters() Counters {
	return Counters{
		Requests:        c.requests.Load(),
		CacheHits:       c.cache.HitCount(),
		APIErrors:       c.apiErrors.Load(),
		BreakerOpenings: c.cb.Openings(),
		BreakerState:    c.cb.state().String(),
	}
}

// TravelTime returns the drive time, in whole minutes rounded up, from a to
// b. It never returns an error: a circuit-open or failed call yields
// (0, false); callers decide whether to apply the great-circle fallback via
// Fallback.
func (c *Client) TravelTime(ctx context.Context, a, b model.Location) (int, bool) {
	if minutes, ok := c.cache.Get(a.Latitude, a.Longitude, b.Latitude, b.Longitude); ok {
		return minutes, true
	}

	var minutes int
	err := c.cb.call(func() error {
		m, cerr := c.fetchRoute(ctx, a, b)
		if cerr != nil {
			return cerr
		}
		minutes = m
		return nil
	})
	if err != nil {
		c.apiErrors.Add(1)
		return 0, false
	}
	c.cache.Put(a.Latitude, a.Longitude, b.Latitude, b.Longitude, minutes)
	return minutes, true
}

// Fallback computes the great-circle fallback travel time at the
// configured mean speed. The caller decides whether to use it.
func (c *Client) Fallback(a, b model.Location, speedKMH float64) int {
	return fallbackMinutes(a.Latitude, a.Longitude, b.Latitude, b.Longitude, speedKMH)
}

// fetchRoute performs a single OSRM /route/v1/driving request, retrying
// once after 200ms on a timeout before surfacing the failure to the
// breaker.
func (c *Client) fetchRoute(ctx context.Context, a, b model.Location) (int, error) {
	minutes, err := c.doFetchRoute(ctx, a, b)
	if err == nil {
		return minutes, nil
	}
	if ctx.Err() != nil {
		return 0, err
	}
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		return 0, err
	}
	select {
	case <-time.After(200 * time.Millisecond):
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return c.doFetchRoute(ctx, a, b)
}

func (c *Client) doFetchRoute(ctx context.Context, a, b model.Location) (int, error) {
	c.requests.Add(1)
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.cfg.BaseURL, a.Longitude, a.Latitude, b.Longitude, b.Latitude)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return 0, fmt.Errorf("osrm %s: %d", url, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("osrm %s: unexpected status %d", url, resp.StatusCode)
	}

	var decoded struct {
		Routes []struct {
			Duration float64 `json:"duration"`
			Geometry struct {
				Coordinates [][2]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decode osrm response: %w", err)
	}
	if len(decoded.Routes) == 0 {
		return 0, fmt.Errorf("osrm: no route found")
	}
	return minutesRoundUp(decoded.Routes[0].Duration), nil
}

func minutesRoundUp(seconds float64) int {
	m := int(seconds / 60)
	if float64(m*60) < seconds {
		m++
	}
	return m
}

// Geometry fetches the polyline coordinates (lon, lat) for the road
// segment between a and b, or nil if unavailable.
func (c *Client) Geometry(ctx context.Context, a, b model.Location) [][2]float64 {
	var coords [][2]float64
	err := c.cb.call(func() error {
		url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson",
			c.cfg.BaseURL, a.Longitude, a.Latitude, b.Longitude, b.Latitude)
		req, rerr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if rerr != nil {
			return rerr
		}
		resp, rerr := c.http.Do(req)
		if rerr != nil {
			return rerr
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("osrm geometry: status %d", resp.StatusCode)
		}
		var decoded struct {
			Routes []struct {
				Geometry struct {
					Coordinates [][2]float64 `json:"coordinates"`
				} `json:"geometry"`
			} `json:"routes"`
		}
		if derr := json.NewDecoder(resp.Body).Decode(&decoded); derr != nil {
			return derr
		}
		if len(decoded.Routes) == 0 {
			return fmt.Errorf("osrm geometry: no route")
		}
		coords = decoded.Routes[0].Geometry.Coordinates
		return nil
	})
	if err != nil {
		c.apiErrors.Add(1)
		return nil
	}
	return coords
}
