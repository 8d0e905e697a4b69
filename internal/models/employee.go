package models

import "time"

// Employee roles. Drivers and admins both appear in the driver directory
// used by route assignment.
const (
	RoleAdmin    = "admin"
	RoleDriver   = "driver"
	RoleEmployee = "employee"
)

// Employee represents a staff profile with a role-based capability set.
type Employee struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	AuthProvider string    `json:"auth_provider"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName joins first and last name for display and driver-name search.
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

type SignupRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=50"`
	LastName  string `json:"last_name" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"required,oneof=admin driver employee"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	Employee    *Employee `json:"employee"`
}

// UpdateEmployeeRequest defines fields that can be updated on a profile.
// Role changes are admin-only and enforced in the service layer.
type UpdateEmployeeRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=2,max=50"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=2,max=50"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=admin driver employee"`
	IsActive  *bool   `json:"is_active,omitempty"`
}
