// Package unitpref persists the temperature unit preference.
package unitpref

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/weather-location-service/internal/domain"
	"github.com/couchcryptid/weather-location-service/internal/store"
)

// Key is the persistence key of the unit preference.
const Key = "unit"

// Preference reads and writes the unit through a Store.
type Preference struct {
	store store.Store
}

// New returns a Preference over s.
func New(s store.Store) *Preference {
	return &Preference{store: s}
}

// Load returns the stored unit, or Celsius when nothing was stored.
func (p *Preference) Load(ctx context.Context) (domain.Unit, error) {
	raw, err := p.store.Load(ctx, Key)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Celsius, nil
	}
	if err != nil {
		return domain.Celsius, fmt.Errorf("load unit preference: %w", err)
	}
	return domain.ParseUnit(string(raw)), nil
}

// Save persists u.
func (p *Preference) Save(ctx context.Context, u domain.Unit) error {
	if err := p.store.Save(ctx, Key, []byte(u)); err != nil {
		return fmt.Errorf("save unit preference: %w", err)
	}
	return nil
}
