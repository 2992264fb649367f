package domain

// Address component keys shared by the geocoding adapters.
const (
	AddressCity     = "city"
	AddressTown     = "town"
	AddressVillage  = "village"
	AddressState    = "state"
	AddressCounty   = "county"
	AddressCountry  = "country"
	AddressPostcode = "postcode"
)

// placeNamePreference is the order in which address components are tried
// when naming a device position.
var placeNamePreference = []string{AddressCity, AddressTown, AddressState, AddressCountry}

// DerivePlaceName names a position from its reverse-geocoded address: the
// first present of city, town, state, country. When none is present the
// two-decimal coordinate label is used.
func DerivePlaceName(address map[string]string, coords Coordinates) string {
	for _, key := range placeNamePreference {
		if v := address[key]; v != "" {
			return v
		}
	}
	return coords.Label()
}

// SuggestionDetail is the short secondary line shown under a suggestion:
// city, then state, then country.
func SuggestionDetail(address map[string]string) string {
	for _, key := range []string{AddressCity, AddressState, AddressCountry} {
		if v := address[key]; v != "" {
			return v
		}
	}
	return ""
}
