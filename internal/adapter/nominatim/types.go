package nominatim

import "github.com/couchcryptid/weather-location-service/internal/domain"

// searchResult is one entry of the /search response (format=jsonv2).
type searchResult struct {
	PlaceID     int64    `json:"place_id"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name"`
	Type        string   `json:"type"`
	Category    string   `json:"category"`
	Address     *address `json:"address,omitempty"`
}

// reverseResult is the /reverse response. A position that resolves to
// nothing comes back as 200 with Error set.
type reverseResult struct {
	PlaceID     int64   `json:"place_id"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type"`
	Address     address `json:"address"`
	Error       string  `json:"error,omitempty"`
}

type address struct {
	Road        string `json:"road,omitempty"`
	Suburb      string `json:"suburb,omitempty"`
	Village     string `json:"village,omitempty"`
	Town        string `json:"town,omitempty"`
	City        string `json:"city,omitempty"`
	County      string `json:"county,omitempty"`
	State       string `json:"state,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// toMap flattens the populated components into domain address keys.
func (a *address) toMap() map[string]string {
	if a == nil {
		return nil
	}
	m := make(map[string]string)
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set("road", a.Road)
	set("suburb", a.Suburb)
	set(domain.AddressVillage, a.Village)
	set(domain.AddressTown, a.Town)
	set(domain.AddressCity, a.City)
	set(domain.AddressCounty, a.County)
	set(domain.AddressState, a.State)
	set(domain.AddressPostcode, a.Postcode)
	set(domain.AddressCountry, a.Country)
	set("country_code", a.CountryCode)
	if len(m) == 0 {
		return nil
	}
	return m
}
