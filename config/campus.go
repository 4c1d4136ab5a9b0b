package config

import "strings"

// Campus represents a campus configuration
type Campus struct {
	Name         string  `json:"name"`
	CenterLat    float64 `json:"center_lat"`
	CenterLng    float64 `json:"center_lng"`
	RadiusMeters float64 `json:"radius_meters"`
}

// DefaultCampus is the Rutgers–New Brunswick search rectangle (~10 km half-width).
var DefaultCampus = Campus{
	Name:         "rutgers-new-brunswick",
	CenterLat:    40.50250,
	CenterLng:    -74.44861,
	RadiusMeters: 10000,
}

// SubvenueTypes are the nearby-search categories relevant to campus venues.
// The places provider rejects more than 5 types per call.
var SubvenueTypes = []string{
	"restaurant",
	"cafe",
	"fast_food_restaurant",
	"food_court",
	"gym",
}

// placeAliases maps colloquial campus names to search queries the places
// provider resolves reliably.
var placeAliases = []struct {
	keyword string
	query   string
}{
	{"busch", "Busch Student Center Rutgers"},
	{"college ave", "College Ave Student Center Rutgers"},
	{"college avenue", "College Ave Student Center Rutgers"},
	{"cac", "College Ave Student Center Rutgers"},
	{"livingston", "Livingston Student Center Rutgers"},
	{"livi", "Livingston Student Center Rutgers"},
	{"cook", "Cook Student Center Rutgers"},
	{"douglass", "Douglass Student Center Rutgers"},
	{"doug", "Douglass Student Center Rutgers"},
	{"alexander", "Alexander Library Rutgers"},
}

// venueKeywords suppress alias normalization: when the query names a specific
// dining/food venue, it is searched as-is instead of being snapped to a
// student center.
var venueKeywords = []string{"dining", "cafe", "starbucks", "restaurant", "food", "market"}

// NormalizePlaceQuery rewrites colloquial campus names ("livi", "cac") into
// full search queries. Queries naming a specific venue pass through verbatim.
func NormalizePlaceQuery(query string) string {
	lower := strings.ToLower(query)
	for _, kw := range venueKeywords {
		if strings.Contains(lower, kw) {
			return query
		}
	}
	for _, alias := range placeAliases {
		if strings.Contains(lower, alias.keyword) {
			return alias.query
		}
	}
	return query
}
