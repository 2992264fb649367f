package domain

import (
	"context"
	"strings"
)

// WeatherFetcher is the downstream weather collaborator. It returns nil on
// any failure and never reports errors to the caller. location is either a
// free-form place name or a "lat,lon" pair.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, location string, unit Unit) *WeatherPayload
}

// WeatherPayload is the day-indexed forecast for one location.
type WeatherPayload struct {
	ResolvedAddress string       `json:"resolved_address"`
	Timezone        string       `json:"timezone,omitempty"`
	Latitude        float64      `json:"latitude,omitempty"`
	Longitude       float64      `json:"longitude,omitempty"`
	Days            []WeatherDay `json:"days"`
}

// Today returns the first day of the payload, if any.
func (p *WeatherPayload) Today() (WeatherDay, bool) {
	if p == nil || len(p.Days) == 0 {
		return WeatherDay{}, false
	}
	return p.Days[0], true
}

// WeatherDay is one entry of the forecast.
type WeatherDay struct {
	Date        string  `json:"date"`
	Temp        float64 `json:"temp"`
	TempMax     float64 `json:"temp_max"`
	TempMin     float64 `json:"temp_min"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	PrecipProb  float64 `json:"precip_prob"`
	Conditions  string  `json:"conditions"`
	Description string  `json:"description,omitempty"`
	Icon        string  `json:"icon"`
}

// Condition classes used to pick a dashboard background.
const (
	ClassClear   = "clear"
	ClassCloudy  = "cloudy"
	ClassRain    = "rain"
	ClassSnow    = "snow"
	ClassStorm   = "storm"
	ClassFog     = "fog"
	ClassWind    = "wind"
	ClassUnknown = "unknown"
)

// conditionKeywords is checked in order; the first keyword found in the icon
// name decides the class.
var conditionKeywords = []struct {
	keyword string
	class   string
}{
	{"thunder", ClassStorm},
	{"snow", ClassSnow},
	{"sleet", ClassSnow},
	{"hail", ClassSnow},
	{"rain", ClassRain},
	{"showers", ClassRain},
	{"fog", ClassFog},
	{"wind", ClassWind},
	{"cloudy", ClassCloudy},
	{"clear", ClassClear},
}

// ConditionClass maps a provider icon name (e.g. "partly-cloudy-day") to a
// background class. Icons that match no keyword are ClassUnknown.
func ConditionClass(icon string) string {
	icon = strings.ToLower(strings.TrimSpace(icon))
	if icon == "" {
		return ClassUnknown
	}
	for _, k := range conditionKeywords {
		if strings.Contains(icon, k.keyword) {
			return k.class
		}
	}
	return ClassUnknown
}
