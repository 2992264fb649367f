// Package search implements search-as-you-type over the geocoding gateway:
// debounced lookups, a sequence guard that drops superseded responses, and
// the dropdown state shown to the user.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-location-service/internal/debounce"
	"github.com/couchcryptid/weather-location-service/internal/domain"
	"github.com/couchcryptid/weather-location-service/internal/observability"
)

// DefaultDebounce is the quiet period before a lookup is issued.
const DefaultDebounce = 300 * time.Millisecond

// ErrNoSuggestion is returned by Choose for an index outside the current list.
var ErrNoSuggestion = errors.New("no suggestion at index")

// errorMessage is the text recorded when a lookup fails.
const errorMessage = "Failed to fetch locations"

// Emitter receives the locations the user commits to.
type Emitter interface {
	UserSelected(ctx context.Context, sel domain.Selection)
}

// State is a snapshot of the search box.
type State struct {
	Query        string                   `json:"query"`
	Sequence     uint64                   `json:"sequence"`
	Suggestions  []domain.PlaceSuggestion `json:"suggestions"`
	DropdownOpen bool                     `json:"dropdown_open"`
	Loading      bool                     `json:"loading"`
	Error        string                   `json:"error,omitempty"`
	NoResults    bool                     `json:"no_results"`
}

// Config wires an Engine.
type Config struct {
	Geocoder domain.Geocoder
	Emitter  Emitter
	Clock    clockwork.Clock
	Debounce time.Duration
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// Engine owns the search box state. All methods are safe for concurrent use;
// gateway calls are made without holding the lock.
type Engine struct {
	geocoder  domain.Geocoder
	emitter   Emitter
	debouncer *debounce.Debouncer
	metrics   *observability.Metrics
	logger    *slog.Logger

	// ctx scopes debounced lookups, which have no caller context.
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
}

// New creates an Engine with an empty query.
func New(cfg Config) *Engine {
	delay := cfg.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		geocoder: cfg.Geocoder,
		emitter:  cfg.Emitter,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With("component", "search"),
		ctx:      ctx,
		cancel:   cancel,
	}
	e.debouncer = debounce.New(cfg.Clock, delay, func() {
		e.metrics.SearchLookups.WithLabelValues("debounced").Inc()
	})
	return e
}

// SetEmitter replaces the receiver of user selections.
func (e *Engine) SetEmitter(em Emitter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emitter = em
}

// QueryChanged records text and schedules a lookup after the quiet period.
// Each call supersedes every earlier lookup, pending or in flight.
func (e *Engine) QueryChanged(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if text != e.state.Query {
		e.state.Query = text
		e.state.Suggestions = nil
		e.state.Error = ""
		e.state.NoResults = false
	}
	e.state.Sequence++
	seq := e.state.Sequence

	// Scheduling under mu keeps the debouncer's pending lookup in sequence order.
	e.debouncer.Schedule(func() { e.lookup(seq, text) })
}

func (e *Engine) lookup(seq uint64, text string) {
	query := strings.TrimSpace(text)

	e.mu.Lock()
	if seq != e.state.Sequence {
		e.mu.Unlock()
		e.metrics.SearchLookups.WithLabelValues("stale").Inc()
		return
	}
	if domain.MeaningfulLength(query) < domain.MinQueryLength {
		e.state.Suggestions = nil
		e.state.DropdownOpen = false
		e.state.Loading = false
		e.state.NoResults = false
		e.mu.Unlock()
		e.metrics.SearchLookups.WithLabelValues("skipped").Inc()
		return
	}
	e.state.Loading = true
	e.state.Error = ""
	e.mu.Unlock()

	start := time.Now()
	results, err := e.geocoder.ForwardSearch(e.ctx, query)
	e.metrics.SearchLookupDuration.Observe(time.Since(start).Seconds())

	e.mu.Lock()
	defer e.mu.Unlock()

	if seq != e.state.Sequence {
		e.metrics.SearchLookups.WithLabelValues("stale").Inc()
		e.logger.Debug("dropping superseded suggestions", "query", query, "sequence", seq, "current", e.state.Sequence)
		return
	}

	e.state.Loading = false
	switch {
	case err != nil:
		e.metrics.SearchLookups.WithLabelValues("error").Inc()
		e.logger.Warn("suggestion lookup failed", "query", query, "error", err)
		e.state.Suggestions = nil
		e.state.Error = errorMessage
		e.state.NoResults = false
		e.state.DropdownOpen = true
	case len(results) == 0:
		e.metrics.SearchLookups.WithLabelValues("empty").Inc()
		e.state.Suggestions = nil
		e.state.NoResults = true
		e.state.DropdownOpen = true
	default:
		e.metrics.SearchLookups.WithLabelValues("success").Inc()
		e.state.Suggestions = results
		e.state.NoResults = false
		e.state.DropdownOpen = true
	}
}

// SuggestionChosen commits s as the user's location. A suggestion without a
// display name is named by reverse lookup, falling back to its coordinate label.
func (e *Engine) SuggestionChosen(ctx context.Context, s domain.PlaceSuggestion) error {
	coords := s.Coordinates()
	if coords.IsZero() && strings.TrimSpace(s.DisplayName) == "" {
		return fmt.Errorf("choose suggestion: %w", domain.ErrEmptyQuery)
	}

	emitter := e.reset()

	label := strings.TrimSpace(s.DisplayName)
	if label == "" {
		label = e.nameFor(ctx, coords)
	}
	location := label
	if !coords.IsZero() {
		location = coords.String()
	}

	if emitter != nil {
		emitter.UserSelected(ctx, domain.Selection{Location: location, Label: label, Source: domain.SourceSelection})
	}
	return nil
}

// Choose commits the suggestion at index in the current list.
func (e *Engine) Choose(ctx context.Context, index int) error {
	e.mu.Lock()
	if index < 0 || index >= len(e.state.Suggestions) {
		e.mu.Unlock()
		return fmt.Errorf("%w %d", ErrNoSuggestion, index)
	}
	s := e.state.Suggestions[index]
	e.mu.Unlock()
	return e.SuggestionChosen(ctx, s)
}

// SubmitRaw commits text as a free-form location without a gateway call.
func (e *Engine) SubmitRaw(ctx context.Context, text string) error {
	location := strings.TrimSpace(text)
	if location == "" {
		return fmt.Errorf("submit: %w", domain.ErrEmptyQuery)
	}

	emitter := e.reset()
	if emitter != nil {
		emitter.UserSelected(ctx, domain.Selection{Location: location, Label: location, Source: domain.SourceSearch})
	}
	return nil
}

// Enter chooses the first suggestion when the dropdown shows any, otherwise
// submits the current query as typed. Suggestions hidden by Dismiss are not
// chosen.
func (e *Engine) Enter(ctx context.Context) error {
	e.mu.Lock()
	var first *domain.PlaceSuggestion
	if e.state.DropdownOpen && len(e.state.Suggestions) > 0 {
		s := e.state.Suggestions[0]
		first = &s
	}
	query := e.state.Query
	e.mu.Unlock()

	if first != nil {
		return e.SuggestionChosen(ctx, *first)
	}
	return e.SubmitRaw(ctx, query)
}

// Dismiss closes the dropdown and keeps the query.
func (e *Engine) Dismiss() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.DropdownOpen = false
}

// Focus reopens the dropdown.
func (e *Engine) Focus() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.DropdownOpen = true
}

// Clear empties the query and drops any pending or in-flight lookup.
func (e *Engine) Clear() {
	e.reset()
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	s.Suggestions = append([]domain.PlaceSuggestion(nil), e.state.Suggestions...)
	return s
}

// Close stops pending lookups and cancels in-flight ones.
func (e *Engine) Close() {
	e.debouncer.Cancel()
	e.cancel()
}

// reset clears the search box and invalidates every outstanding lookup. It
// returns the emitter to notify.
func (e *Engine) reset() Emitter {
	e.mu.Lock()
	e.state = State{Sequence: e.state.Sequence + 1}
	emitter := e.emitter
	e.mu.Unlock()

	e.debouncer.Cancel()
	return emitter
}

func (e *Engine) nameFor(ctx context.Context, coords domain.Coordinates) string {
	place, err := e.geocoder.ReverseLookup(ctx, coords)
	if err != nil {
		e.logger.Warn("reverse lookup for suggestion failed", "coords", coords.String(), "error", err)
		return coords.Label()
	}
	if name := strings.TrimSpace(place.DisplayName); name != "" {
		return name
	}
	return domain.DerivePlaceName(place.Address, coords)
}
