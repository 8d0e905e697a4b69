package models

import "time"

// Delivery status values. A delivery that is no longer pending is never
// eligible for inclusion in a new route assignment.
const (
	DeliveryStatusPending    = "pending"
	DeliveryStatusInProgress = "in_progress"
	DeliveryStatusCompleted  = "completed"
	DeliveryStatusCancelled  = "cancelled"
)

// Delivery represents a single delivery job scheduled for a calendar date.
// Latitude/Longitude are populated lazily by geocoding backfill and reused
// on subsequent optimizations.
type Delivery struct {
	ID              string    `json:"id"`
	DeliveryNumber  string    `json:"delivery_number"`
	CustomerName    string    `json:"customer_name"`
	CustomerAddress string    `json:"customer_address"`
	Status          string    `json:"status"`
	ScheduledDate   time.Time `json:"scheduled_date"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateDeliveryRequest is the body for creating a delivery from the dispatch flow.
type CreateDeliveryRequest struct {
	DeliveryNumber  string   `json:"delivery_number" validate:"required,min=3"`
	CustomerName    string   `json:"customer_name" validate:"required,min=2"`
	CustomerAddress string   `json:"customer_address" validate:"required,min=5"`
	ScheduledDate   string   `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	Latitude        *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude       *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// UpdateDeliveryRequest carries the fields an operator may change on a delivery.
type UpdateDeliveryRequest struct {
	CustomerName    *string  `json:"customer_name,omitempty" validate:"omitempty,min=2"`
	CustomerAddress *string  `json:"customer_address,omitempty" validate:"omitempty,min=5"`
	ScheduledDate   *string  `json:"scheduled_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status          *string  `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Latitude        *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude       *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// DeliveryFilter narrows delivery reads. Zero values mean "no filter".
type DeliveryFilter struct {
	FromDate time.Time
	ToDate   time.Time
	Status   string
	IDs      []string
}
