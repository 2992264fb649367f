// Package geolocation turns the device position into a place name, using the
// location cache to skip the device and the network while a recent result is
// still fresh.
package geolocation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/weather-location-service/internal/domain"
	"github.com/couchcryptid/weather-location-service/internal/loccache"
	"github.com/couchcryptid/weather-location-service/internal/observability"
)

// DefaultTimeout bounds the wait for device coordinates.
const DefaultTimeout = 5 * time.Second

// ErrResolutionInProgress is returned by Resolve while another attempt runs.
var ErrResolutionInProgress = errors.New("geolocation resolution already in progress")

// State is the resolver's position in its lifecycle. Every state other than
// Idle and Acquiring is terminal for the attempt.
type State string

const (
	StateIdle        State = "idle"
	StateAcquiring   State = "acquiring"
	StateResolved    State = "resolved"
	StateUnavailable State = "unavailable"
	StateDenied      State = "denied"
	StateTimedOut    State = "timed_out"
)

// Result is the outcome of one resolution attempt.
type Result struct {
	State       State
	Location    string
	Coordinates domain.Coordinates
	FromCache   bool
	Err         error
}

// Resolved reports whether the attempt produced a location.
func (r Result) Resolved() bool {
	return r.State == StateResolved && r.Location != ""
}

// Listener receives the result of every attempt exactly once.
type Listener interface {
	GeolocationResolved(ctx context.Context, result Result)
}

// Status is a point-in-time view of the resolver.
type Status struct {
	State    State  `json:"state"`
	Location string `json:"location,omitempty"`
	Loading  bool   `json:"loading"`
	Error    string `json:"error,omitempty"`
}

// Resolver runs geolocation attempts one at a time.
type Resolver struct {
	cache    *loccache.Cache
	locator  domain.DeviceLocator
	geocoder domain.Geocoder
	listener Listener
	timeout  time.Duration
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	last    Result
	running bool
}

// Config wires a Resolver. A nil Locator means geolocation is unsupported.
type Config struct {
	Cache    *loccache.Cache
	Locator  domain.DeviceLocator
	Geocoder domain.Geocoder
	Listener Listener
	Timeout  time.Duration
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// New creates an idle Resolver.
func New(cfg Config) *Resolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		cache:    cfg.Cache,
		locator:  cfg.Locator,
		geocoder: cfg.Geocoder,
		listener: cfg.Listener,
		timeout:  timeout,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With("component", "geolocation"),
		state:    StateIdle,
	}
}

// SetListener replaces the listener notified after each attempt.
func (r *Resolver) SetListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listener = l
}

// Resolve runs one attempt and reports it to the listener. Device and lookup
// failures are reported through Result, never as an error; the only error is
// ErrResolutionInProgress, returned without side effects.
func (r *Resolver) Resolve(ctx context.Context) (Result, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return Result{}, ErrResolutionInProgress
	}
	r.running = true
	r.state = StateAcquiring
	listener := r.listener
	r.mu.Unlock()

	result := r.attempt(ctx)

	r.mu.Lock()
	r.state = result.State
	r.last = result
	r.running = false
	r.mu.Unlock()

	r.metrics.GeolocationResolutions.WithLabelValues(string(result.State)).Inc()
	r.logger.Info("geolocation attempt finished",
		"state", result.State, "location", result.Location, "from_cache", result.FromCache, "error", result.Err)

	if listener != nil {
		listener.GeolocationResolved(ctx, result)
	}
	return result, nil
}

// Status returns the current state and the last result.
func (r *Resolver) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Status{State: r.state, Loading: r.state == StateAcquiring, Location: r.last.Location}
	if r.last.Err != nil {
		s.Error = r.last.Err.Error()
	}
	return s
}

func (r *Resolver) attempt(ctx context.Context) Result {
	if r.cache != nil {
		entry, found, fresh := r.cache.Fresh(ctx)
		switch {
		case fresh:
			r.metrics.LocationCacheLookups.WithLabelValues("hit").Inc()
			return Result{State: StateResolved, Location: entry.Value, FromCache: true}
		case found:
			r.metrics.LocationCacheLookups.WithLabelValues("stale").Inc()
		default:
			r.metrics.LocationCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	if r.locator == nil {
		return Result{State: StateUnavailable, Err: domain.ErrPositionUnavailable}
	}

	coords, err := r.locate(ctx)
	if err != nil {
		return Result{State: classify(err), Err: err}
	}

	name := coords.Label()
	place, err := r.geocoder.ReverseLookup(ctx, coords)
	if err != nil {
		// The coordinate label is used for this attempt only; it is not cached.
		r.logger.Warn("reverse lookup failed, using coordinates", "coords", coords.String(), "error", err)
		return Result{State: StateResolved, Location: name, Coordinates: coords}
	}

	name = domain.DerivePlaceName(place.Address, coords)
	if r.cache != nil {
		if err := r.cache.Write(ctx, name); err != nil {
			r.logger.Warn("location cache write failed", "error", err)
		}
	}
	return Result{State: StateResolved, Location: name, Coordinates: coords}
}

func (r *Resolver) locate(ctx context.Context) (domain.Coordinates, error) {
	lctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	coords, err := r.locator.Locate(lctx)
	if err != nil && errors.Is(lctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrPermissionDenied) {
		return domain.Coordinates{}, domain.ErrTimeout
	}
	return coords, err
}

func classify(err error) State {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return StateDenied
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return StateTimedOut
	default:
		return StateUnavailable
	}
}
