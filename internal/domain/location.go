package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mmcloughlin/geohash"
)

// MinQueryLength is the number of meaningful characters a search needs
// before it is sent to the geocoder.
const MinQueryLength = 2

// suggestionKeyPrecision is the geohash length used for derived suggestion
// IDs. Nine characters is a ~5m cell, enough to tell neighbouring places apart.
const suggestionKeyPrecision = 9

// Coordinates is a WGS-84 latitude/longitude pair read from a device.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String renders the "lat,lon" form accepted as a canonical location.
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// Label renders the two-decimal "lat, lon" display fallback.
func (c Coordinates) Label() string {
	return fmt.Sprintf("%.2f, %.2f", c.Latitude, c.Longitude)
}

// IsZero reports whether no position was recorded.
func (c Coordinates) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// PlaceSuggestion is one candidate place returned by the geocoder.
type PlaceSuggestion struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"display_name"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Address     map[string]string `json:"address,omitempty"`
	Kind        string            `json:"kind,omitempty"`
}

// Coordinates returns the suggestion's position.
func (p PlaceSuggestion) Coordinates() Coordinates {
	return Coordinates{Latitude: p.Latitude, Longitude: p.Longitude}
}

// SuggestionKey returns id when the provider supplied one, otherwise a
// geohash of the position so every suggestion has a stable key.
func SuggestionKey(id string, lat, lon float64) string {
	if id != "" {
		return id
	}
	return geohash.EncodeWithPrecision(lat, lon, suggestionKeyPrecision)
}

// MeaningfulLength counts the runes left after trimming surrounding whitespace.
func MeaningfulLength(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}

// Source identifies which input produced the canonical location.
type Source string

const (
	SourceNone        Source = ""
	SourceGeolocation Source = "geolocation"
	SourceSearch      Source = "search"
	SourceSelection   Source = "selection"
)

// IsUser reports whether the source is an explicit user action.
func (s Source) IsUser() bool {
	return s == SourceSearch || s == SourceSelection
}

// Selection is a location emitted by the search engine on behalf of the user.
type Selection struct {
	Location string `json:"location"`
	Label    string `json:"label"`
	Source   Source `json:"source"`
}

// Unit is the temperature unit preference.
type Unit string

const (
	Celsius    Unit = "C"
	Fahrenheit Unit = "F"
)

// ParseUnit maps a stored value to a Unit, defaulting to Celsius.
func ParseUnit(s string) Unit {
	if strings.EqualFold(strings.TrimSpace(s), string(Fahrenheit)) {
		return Fahrenheit
	}
	return Celsius
}

// Toggle flips between Celsius and Fahrenheit.
func (u Unit) Toggle() Unit {
	if u == Fahrenheit {
		return Celsius
	}
	return Fahrenheit
}
