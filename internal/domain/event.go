package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LocationChanged is published every time the canonical location or unit
// changes.
type LocationChanged struct {
	ID        string    `json:"id"`
	Location  string    `json:"location"`
	Label     string    `json:"label,omitempty"`
	Source    Source    `json:"source"`
	Unit      Unit      `json:"unit"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewLocationChanged stamps a change event with a fresh ID.
func NewLocationChanged(location, label string, source Source, unit Unit, at time.Time) LocationChanged {
	return LocationChanged{
		ID:        uuid.NewString(),
		Location:  location,
		Label:     label,
		Source:    source,
		Unit:      unit,
		ChangedAt: at.UTC(),
	}
}

// OutputEvent is the serialized form destined for the event topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// SerializeLocationChanged marshals an event into its wire form.
func SerializeLocationChanged(event LocationChanged) (OutputEvent, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize location event: %w", err)
	}
	return OutputEvent{
		Key:   []byte(event.Location),
		Value: data,
		Headers: map[string]string{
			"source":     string(event.Source),
			"changed_at": event.ChangedAt.Format(time.RFC3339),
		},
	}, nil
}
