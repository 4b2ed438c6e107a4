package observation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/i474232898/mywx-push/internal/station"
)

// CollectionError reports a failed collection; the cycle must not push.
type CollectionError struct {
	Host string
	Err  error
}

func (e *CollectionError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("collection failed: %v", e.Err)
	}
	return fmt.Sprintf("collection failed for %s: %v", e.Host, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

// Clients hands out station clients by host.
type Clients interface {
	Get(host string) station.Client
}

// Hosts lists the station sources to query. Only Primary is required.
type Hosts struct {
	Primary   string
	OutdoorAQ string
	IndoorAQ  string
}

// Collector queries the configured sources and builds one Observation.
type Collector struct {
	clients Clients
	hosts   Hosts
	logger  *slog.Logger
	now     func() time.Time
}

// NewCollector creates a Collector.
func NewCollector(clients Clients, hosts Hosts, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		clients: clients,
		hosts:   hosts,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the timestamp source.
func (c *Collector) WithClock(now func() time.Time) *Collector {
	c.now = now
	return c
}

// Collect runs one collection. Any failure is returned as *CollectionError.
func (c *Collector) Collect(ctx context.Context) (Observation, error) {
	// ts marks the start of collection, before any network call.
	ts := c.now()

	records, err := c.query(ctx, c.hosts.Primary)
	if err != nil {
		return nil, err
	}

	iss, err := station.Require(records, station.RecordISS)
	if err != nil {
		return nil, &CollectionError{Host: c.hosts.Primary, Err: err}
	}
	bar, err := station.Require(records, station.RecordBarometer)
	if err != nil {
		return nil, &CollectionError{Host: c.hosts.Primary, Err: err}
	}
	c.dump(c.hosts.Primary, iss, bar)

	obs, err := Normalize(ts, iss, bar)
	if err != nil {
		return nil, &CollectionError{Host: c.hosts.Primary, Err: err}
	}

	if c.hosts.OutdoorAQ != "" {
		rec, found, err := c.airQuality(ctx, c.hosts.OutdoorAQ)
		if err != nil {
			return nil, err
		}
		if found {
			aq, err := AirQuality(rec)
			if err != nil {
				return nil, &CollectionError{Host: c.hosts.OutdoorAQ, Err: err}
			}
			obs[KeyAirQuality] = aq
		}
	}

	if c.hosts.IndoorAQ != "" {
		rec, found, err := c.airQuality(ctx, c.hosts.IndoorAQ)
		if err != nil {
			return nil, err
		}
		if found {
			if err := AddIndoor(obs, rec); err != nil {
				return nil, &CollectionError{Host: c.hosts.IndoorAQ, Err: err}
			}
		}
	}

	return obs, nil
}

func (c *Collector) query(ctx context.Context, host string) ([]station.Record, error) {
	records, err := c.clients.Get(host).CurrentConditions(ctx)
	if err != nil {
		return nil, &CollectionError{Host: host, Err: err}
	}
	return records, nil
}

func (c *Collector) airQuality(ctx context.Context, host string) (station.Record, bool, error) {
	records, err := c.query(ctx, host)
	if err != nil {
		return station.Record{}, false, err
	}
	rec, ok := station.Select(records, station.RecordAirQuality)
	if !ok {
		c.logger.Debug("no air quality record", "host", host)
		return station.Record{}, false, nil
	}
	c.dump(host, rec)
	return rec, true, nil
}

func (c *Collector) dump(host string, records ...station.Record) {
	if !c.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, r := range records {
		c.logger.Debug("selected record", "host", host, "type", r.Type.String(), "values", r.Values)
	}
}
