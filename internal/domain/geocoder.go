package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lng              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0 to 1.0 provider confidence score
}

// Found reports whether the provider matched anything.
func (r GeocodingResult) Found() bool {
	return r.FormattedAddress != ""
}

// Geocoder resolves free-text places to coordinates for drive-time lookups.
type Geocoder interface {
	// ForwardGeocode converts a free-text location to coordinates. A zero
	// result with a nil error means nothing matched.
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)
}
