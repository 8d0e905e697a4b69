package models

import "time"

// Vehicle status values.
const (
	VehicleStatusAvailable   = "available"
	VehicleStatusInUse       = "in_use"
	VehicleStatusMaintenance = "maintenance"
)

// Vehicle represents a fleet vehicle that can be bound to a driver.
type Vehicle struct {
	ID                 string    `json:"id"`
	RegistrationNumber string    `json:"registration_number"`
	Model              string    `json:"model"`
	CapacityKg         float64   `json:"capacity_kg"`
	Status             string    `json:"status"`
	DriverID           *string   `json:"driver_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type CreateVehicleRequest struct {
	RegistrationNumber string  `json:"registration_number" validate:"required,min=4,max=20"`
	Model              string  `json:"model" validate:"required,min=2"`
	CapacityKg         float64 `json:"capacity_kg" validate:"required,gt=0"`
}

type UpdateVehicleRequest struct {
	Model      *string  `json:"model,omitempty" validate:"omitempty,min=2"`
	CapacityKg *float64 `json:"capacity_kg,omitempty" validate:"omitempty,gt=0"`
	Status     *string  `json:"status,omitempty" validate:"omitempty,oneof=available in_use maintenance"`
	DriverID   *string  `json:"driver_id,omitempty" validate:"omitempty,uuid4"`
}
