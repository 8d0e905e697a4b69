package models

import "time"

// Leave request status values.
const (
	LeaveStatusPending  = "pending"
	LeaveStatusApproved = "approved"
	LeaveStatusRejected = "rejected"
)

// LeaveRequest is an employee's request for time off. Decisions trigger
// an email notification to the requester.
type LeaveRequest struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	LeaveType  string    `json:"leave_type"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	DecidedBy  *string   `json:"decided_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateLeaveRequest struct {
	LeaveType string `json:"leave_type" validate:"required,oneof=annual sick unpaid other"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" validate:"required,min=5"`
}

// DecideLeaveRequest approves or rejects a pending leave request.
type DecideLeaveRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}
