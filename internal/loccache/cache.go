// Package loccache holds the single-slot cache of the last geolocation
// result. An entry is fresh for TTL after it was written; stale entries are
// ignored on read but never evicted.
package loccache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-location-service/internal/store"
)

// Key is the persistence key of the single cache slot.
const Key = "cachedLocation"

// TTL is how long a cached location stays fresh.
const TTL = 10 * time.Minute

// Entry is a cached display name and the time it was stored.
type Entry struct {
	Value    string    `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Cache reads and writes the cached location through a Store.
type Cache struct {
	store  store.Store
	clock  clockwork.Clock
	logger *slog.Logger
}

// New returns a Cache over s. A nil clock uses real time.
func New(s store.Store, clock clockwork.Clock, logger *slog.Logger) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{store: s, clock: clock, logger: logger.With("component", "location_cache")}
}

// Read returns the stored entry. Missing, unreadable or corrupt entries are
// reported as absent.
func (c *Cache) Read(ctx context.Context) (Entry, bool) {
	raw, err := c.store.Load(ctx, Key)
	if errors.Is(err, store.ErrNotFound) {
		return Entry{}, false
	}
	if err != nil {
		c.logger.Warn("location cache read failed", "error", err)
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Value == "" || entry.StoredAt.IsZero() {
		c.logger.Warn("ignoring corrupt location cache entry", "error", err)
		return Entry{}, false
	}
	return entry, true
}

// Write overwrites the slot with value stamped at the current time.
func (c *Cache) Write(ctx context.Context, value string) error {
	raw, err := json.Marshal(Entry{Value: value, StoredAt: c.clock.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode location cache entry: %w", err)
	}
	if err := c.store.Save(ctx, Key, raw); err != nil {
		return fmt.Errorf("save location cache entry: %w", err)
	}
	return nil
}

// IsFresh reports whether entry is younger than TTL. An entry stamped in the
// future is stale.
func (c *Cache) IsFresh(entry Entry) bool {
	age := c.clock.Since(entry.StoredAt)
	return age >= 0 && age < TTL
}

// Fresh returns the stored entry only when it is still fresh. The second
// result distinguishes a stale entry from a missing one.
func (c *Cache) Fresh(ctx context.Context) (entry Entry, found, fresh bool) {
	entry, found = c.Read(ctx)
	if !found {
		return Entry{}, false, false
	}
	return entry, true, c.IsFresh(entry)
}

// Clear removes the slot.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx, Key); err != nil {
		return fmt.Errorf("clear location cache: %w", err)
	}
	return nil
}
