package pending

import (
	"time"
)

// AssignStaffDTO seeds the new school staff profile when a pending user
// is placed on the school side.
type AssignStaffDTO struct {
	StaffType string `json:"staff_type,omitempty" validate:"omitempty,oneof=teaching non_teaching"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// AssignSystemUserDTO seeds the new ministry profile.
type AssignSystemUserDTO struct {
	Organization  string `json:"organization,omitempty"`
	PositionTitle string `json:"position_title,omitempty"`
}

// PendingUser is the reconciler's row: an active account with no profile
// and no registration in flight.
type PendingUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}
