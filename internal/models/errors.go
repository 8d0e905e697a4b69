package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when a write collides with existing state,
	// e.g. registering an email that is already taken.
	ErrConflict = errors.New("resource already exists")

	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrForbidden is returned when the caller's role does not permit the action.
	ErrForbidden = errors.New("insufficient permissions")

	// ErrNoDeliveriesSelected is returned when an optimization is requested
	// with an empty delivery selection. No remote call is made.
	ErrNoDeliveriesSelected = errors.New("no deliveries selected")

	// ErrNoRouteToSave is returned when a route save is requested without
	// a current optimized route in the session.
	ErrNoRouteToSave = errors.New("no optimized route to save")

	// ErrNoAssignmentsForDate is returned when a date-wide optimization is
	// requested for a date that has no route assignments.
	ErrNoAssignmentsForDate = errors.New("no route assignments for the requested date")

	// ErrNoValidCoordinates is returned when a navigation link is requested
	// for a stop list where no stop carries coordinates.
	ErrNoValidCoordinates = errors.New("no stops with valid coordinates")
)

// DeliveriesAlreadyAssignedError reports a create-assignment request that
// references deliveries already held by another active assignment. The
// conflicting ids are surfaced so the UI can highlight them.
type DeliveriesAlreadyAssignedError struct {
	DeliveryIDs []string
}

func (e *DeliveriesAlreadyAssignedError) Error() string {
	return fmt.Sprintf("deliveries already assigned: %s", strings.Join(e.DeliveryIDs, ", "))
}

// ErrorResponse is the generic JSON error body returned by handlers.
type ErrorResponse struct {
	Message string `json:"message"`
}
