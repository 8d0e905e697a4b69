package models

import "time"

// RouteStop is one stop handed to the optimization service: an address
// plus coordinates when already geocoded.
type RouteStop struct {
	ID        string   `json:"id"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lng,omitempty"`
}

// StartLocation is the depot the optimized route departs from.
type StartLocation struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Address   string  `json:"address"`
}

// OptimizedRoute is the session-scoped result of one optimization call.
// It lives in the operator's route session until cleared or replaced;
// the ordering is ephemeral unless captured into a DailyRouteAssignment.
type OptimizedRoute struct {
	OptimizedOrder    []int         `json:"optimized_order"`
	TotalDistance     float64       `json:"total_distance"` // kilometers
	TotalDuration     int           `json:"total_duration"` // minutes
	Deliveries        []RouteStop   `json:"deliveries"`
	StartLocation     StartLocation `json:"start_location"`
	GeocodingFailures int           `json:"geocoding_failures,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// OptimizeRouteRequest starts an ad hoc optimization session over any
// pending deliveries, independent of the daily grouping.
type OptimizeRouteRequest struct {
	Deliveries    []RouteStop    `json:"deliveries" validate:"required,dive"`
	StartLocation *StartLocation `json:"start_location,omitempty"`
}

// SaveRouteRequest persists geocoding results discovered during the
// current session's optimization. The route name is cosmetic feedback
// only; no named-route entity is stored.
type SaveRouteRequest struct {
	Name      string `json:"name" validate:"required,min=2"`
	DriverID  string `json:"driver_id" validate:"required,uuid4"`
	VehicleID string `json:"vehicle_id,omitempty" validate:"omitempty,uuid4"`
}
