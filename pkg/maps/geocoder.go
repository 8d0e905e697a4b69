package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// Geocoder resolves a free-text address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lng float64, err error)
}

// GoogleGeocoder implements Geocoder against the Google Maps Geocoding API.
type GoogleGeocoder struct {
	client *maps.Client
}

// NewGoogleGeocoder creates a geocoder with the given API key.
func NewGoogleGeocoder(apiKey string) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleGeocoder{client: client}, nil
}

// Geocode returns the best-match coordinates for an address.
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (float64, float64, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return 0, 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("no geocode results for %q", address)
	}
	loc := results[0].Geometry.Location
	return loc.Lat, loc.Lng, nil
}
