// Package domain models the location inputs of a weather dashboard and the
// rules that decide which one drives the weather fetch.
//
// # Location Sources
//
// Three sources compete for the canonical location:
//
//	geolocation  device coordinates, named via reverse geocoding
//	search       raw text the user submitted (Enter with no suggestion list)
//	selection    a suggestion the user picked from the forward-search list
//
// The canonical location is a single string, either a free-form place name
// ("Kampala") or a "lat,lon" pair ("0.3476,32.5825"). The weather collaborator
// accepts both forms.
//
// # Precedence
//
// A geolocation result is applied only while no canonical location exists.
// Search and selection always overwrite, including a geolocation value that
// was already applied. Once the user has chosen, a late geolocation result is
// dropped without triggering a fetch.
//
// # Place Names
//
// Device positions are named from the reverse-geocoded address, taking the
// first present of:
//
//	city → town → state → country
//
// and falling back to the two-decimal coordinate label "12.34, 56.78". See
// [DerivePlaceName].
//
// # Search Input
//
// Queries shorter than [MinQueryLength] meaningful characters (after trimming)
// are never sent to the geocoder. Suggestions keep the provider's order. When
// a provider omits a place id, [SuggestionKey] derives one from a geohash of
// the position.
//
// # Error Taxonomy
//
//	ErrNetwork              transport failure or non-success status (see NetworkError)
//	ErrPermissionDenied     user declined device geolocation
//	ErrPositionUnavailable  no signal or no geolocation support
//	ErrTimeout              device did not answer within the bounded wait
//	ErrEmptyQuery           search text below MinQueryLength
//
// An empty forward-search result is a valid outcome, not an error. Responses
// superseded by a newer query are dropped internally and never surfaced.
package domain
