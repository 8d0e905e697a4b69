package models

import "time"

// Assignment status values. Transitions are forward-only:
// planned -> in_progress -> completed. Only the initial planned state is
// driven by the engine; later transitions arrive via partial updates.
const (
	AssignmentStatusPlanned    = "planned"
	AssignmentStatusInProgress = "in_progress"
	AssignmentStatusCompleted  = "completed"
)

// DailyRouteAssignment binds one driver to a set of deliveries for one
// calendar date. OptimizedOrder, when non-empty, is a permutation of
// indices into DeliveryIDs.
type DailyRouteAssignment struct {
	ID                string    `json:"id"`
	AssignmentDate    time.Time `json:"assignment_date"`
	DriverID          string    `json:"driver_id"`
	DriverName        string    `json:"driver_name,omitempty"`
	DeliveryIDs       []string  `json:"delivery_ids"`
	OptimizedOrder    []int     `json:"optimized_order"`
	TotalDistance     float64   `json:"total_distance"`      // kilometers
	EstimatedDuration int       `json:"estimated_duration"`  // minutes
	Status            string    `json:"status"`
	CreatedBy         string    `json:"created_by"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateAssignmentRequest is the body for assigning deliveries to a driver
// for one date.
type CreateAssignmentRequest struct {
	AssignmentDate string   `json:"assignment_date" validate:"required,datetime=2006-01-02"`
	DriverID       string   `json:"driver_id" validate:"required,uuid4"`
	DeliveryIDs    []string `json:"delivery_ids" validate:"required,min=1,unique,dive,uuid4"`
}

// UpdateAssignmentRequest carries partial updates: optimization write-back
// or a status transition. Nil fields are left untouched.
type UpdateAssignmentRequest struct {
	Status            *string  `json:"status,omitempty" validate:"omitempty,oneof=planned in_progress completed"`
	OptimizedOrder    *[]int   `json:"optimized_order,omitempty"`
	TotalDistance     *float64 `json:"total_distance,omitempty" validate:"omitempty,gte=0"`
	EstimatedDuration *int     `json:"estimated_duration,omitempty" validate:"omitempty,gte=0"`
}

// DateGroup is the per-day view of assignment state over a loaded range.
// It is recomputed from the assignment and delivery stores on every read
// and never persisted.
type DateGroup struct {
	Date            string                  `json:"date"`
	Assignments     []*DailyRouteAssignment `json:"assignments"`
	TotalDrivers    int                     `json:"total_drivers"`
	TotalDeliveries int                     `json:"total_deliveries"`
	TotalDistance   float64                 `json:"total_distance"`
	TotalDuration   int                     `json:"total_duration"`
	UnassignedCount int                     `json:"unassigned_count"`
}

// Quick filter shorthands for the assignment date range. A quick filter
// overrides an explicit custom range except when it is QuickFilterCustom.
const (
	QuickFilterToday    = "today"
	QuickFilterThisWeek = "this-week"
	QuickFilterNext7    = "next-7-days"
	QuickFilterCustom   = "custom"
)
