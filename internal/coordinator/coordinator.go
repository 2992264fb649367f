// Package coordinator owns the canonical location and unit preference. It
// merges geolocation results and user selections under a fixed precedence
// rule and triggers a weather fetch whenever the (location, unit) pair changes.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-location-service/internal/domain"
	"github.com/couchcryptid/weather-location-service/internal/geolocation"
	"github.com/couchcryptid/weather-location-service/internal/observability"
	"github.com/couchcryptid/weather-location-service/internal/unitpref"
)

// Publisher receives an event for every accepted change of the canonical
// location or unit.
type Publisher interface {
	Publish(ctx context.Context, events ...domain.LocationChanged) error
}

// Snapshot is a point-in-time view of the coordinator.
type Snapshot struct {
	Location   string                 `json:"location"`
	Label      string                 `json:"label,omitempty"`
	Source     domain.Source          `json:"source,omitempty"`
	Unit       domain.Unit            `json:"unit"`
	Weather    *domain.WeatherPayload `json:"weather"`
	Background string                 `json:"background"`
	Fetching   bool                   `json:"fetching"`
	FetchedAt  time.Time              `json:"fetched_at,omitzero"`
}

// Config wires a Coordinator. Weather and Publisher may be nil.
type Config struct {
	Weather   domain.WeatherFetcher
	Units     *unitpref.Preference
	Publisher Publisher
	Clock     clockwork.Clock
	Metrics   *observability.Metrics
	Logger    *slog.Logger
}

// Coordinator implements geolocation.Listener and search.Emitter.
type Coordinator struct {
	weather   domain.WeatherFetcher
	units     *unitpref.Preference
	publisher Publisher
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
	ready     atomic.Bool

	mu        sync.Mutex
	location  string
	label     string
	source    domain.Source
	unit      domain.Unit
	payload   *domain.WeatherPayload
	inFlight  int
	fetchedAt time.Time
}

// New creates a Coordinator with no location and the Celsius unit.
func New(cfg Config) *Coordinator {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Coordinator{
		weather:   cfg.Weather,
		units:     cfg.Units,
		publisher: cfg.Publisher,
		clock:     clock,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.With("component", "coordinator"),
		unit:      domain.Celsius,
	}
}

// Start loads the persisted unit preference. A read failure keeps Celsius.
func (c *Coordinator) Start(ctx context.Context) {
	if c.units == nil {
		return
	}
	u, err := c.units.Load(ctx)
	if err != nil {
		c.logger.Warn("unit preference unavailable, using default", "error", err, "unit", u)
	}
	c.mu.Lock()
	c.unit = u
	c.mu.Unlock()
}

// CheckReadiness returns nil once the first geolocation attempt has reported,
// or an error describing why the service is not yet ready.
func (c *Coordinator) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("geolocation has not reported yet")
	}
	return nil
}

// GeolocationResolved applies a resolved place only while no canonical
// location has been set by any source.
func (c *Coordinator) GeolocationResolved(ctx context.Context, result geolocation.Result) {
	c.ready.Store(true)
	if !result.Resolved() {
		c.logger.Info("no geolocation available", "state", result.State)
		return
	}

	c.mu.Lock()
	if c.location != "" {
		current := c.location
		c.mu.Unlock()
		c.logger.Info("geolocation ignored, location already set",
			"geolocation", result.Location, "current", current)
		return
	}
	change, changed := c.setLocationLocked(result.Location, result.Location, domain.SourceGeolocation)
	c.mu.Unlock()

	if changed {
		c.apply(ctx, change)
	}
}

// UserSelected applies a user-chosen location unconditionally.
func (c *Coordinator) UserSelected(ctx context.Context, sel domain.Selection) {
	if sel.Location == "" {
		return
	}
	c.mu.Lock()
	change, changed := c.setLocationLocked(sel.Location, sel.Label, sel.Source)
	c.mu.Unlock()

	if changed {
		c.apply(ctx, change)
	}
}

// ToggleUnit flips the unit, persists it and refetches under the current
// location. The new unit is returned even if persisting it failed.
func (c *Coordinator) ToggleUnit(ctx context.Context) (domain.Unit, error) {
	c.mu.Lock()
	c.unit = c.unit.Toggle()
	change := c.eventLocked()
	c.mu.Unlock()

	var err error
	if c.units != nil {
		err = c.units.Save(ctx, change.Unit)
		if err != nil {
			c.logger.Warn("persist unit preference failed", "error", err, "unit", change.Unit)
		}
	}
	if change.Location != "" {
		c.apply(ctx, change)
	}
	return change.Unit, err
}

// Snapshot returns the canonical location, unit and last weather payload.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		Location:   c.location,
		Label:      c.label,
		Source:     c.source,
		Unit:       c.unit,
		Weather:    c.payload,
		Background: domain.ClassUnknown,
		Fetching:   c.inFlight > 0,
		FetchedAt:  c.fetchedAt,
	}
	if today, ok := c.payload.Today(); ok {
		s.Background = domain.ConditionClass(today.Icon)
	}
	return s
}

// setLocationLocked records the new location and reports whether the
// (location, unit) pair changed. Caller holds c.mu.
func (c *Coordinator) setLocationLocked(location, label string, source domain.Source) (domain.LocationChanged, bool) {
	changed := location != c.location
	c.location = location
	c.label = label
	c.source = source
	return c.eventLocked(), changed
}

func (c *Coordinator) eventLocked() domain.LocationChanged {
	return domain.NewLocationChanged(c.location, c.label, c.source, c.unit, c.clock.Now())
}

// apply publishes the change and fetches weather for the new pair. Fetches
// are not canceled; whichever response arrives last is kept.
func (c *Coordinator) apply(ctx context.Context, change domain.LocationChanged) {
	c.metrics.LocationChanges.WithLabelValues(string(change.Source)).Inc()
	c.logger.Info("canonical location changed",
		"location", change.Location, "source", change.Source, "unit", change.Unit)

	c.publish(ctx, change)
	c.fetch(ctx, change.Location, change.Unit)
}

func (c *Coordinator) publish(ctx context.Context, change domain.LocationChanged) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, change); err != nil {
		c.metrics.EventsPublished.WithLabelValues("error").Inc()
		c.logger.Warn("publish location change failed", "error", err, "location", change.Location)
		return
	}
	c.metrics.EventsPublished.WithLabelValues("success").Inc()
}

func (c *Coordinator) fetch(ctx context.Context, location string, unit domain.Unit) {
	if c.weather == nil {
		return
	}
	c.mu.Lock()
	c.inFlight++
	c.mu.Unlock()

	payload := c.weather.FetchWeather(ctx, location, unit)

	outcome := "success"
	if payload == nil {
		outcome = "empty"
	}
	c.metrics.WeatherFetches.WithLabelValues(outcome).Inc()

	c.mu.Lock()
	c.inFlight--
	c.payload = payload
	c.fetchedAt = c.clock.Now()
	c.mu.Unlock()
}
