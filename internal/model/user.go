package model

import "time"

// Role enumerates user roles.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleSupervisor  Role = "supervisor"
	RoleSuperadmin  Role = "superadmin"
)

// Admin reports whether the role may reach the monitoring surface.
func (r Role) Admin() bool {
	return r == RoleSupervisor || r == RoleSuperadmin
}

// User is a platform account: a tryout participant or an administrator.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	SchoolID     *int      `json:"school_id,omitempty"`
	ClassID      *int      `json:"class_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest is the payload for logging in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}
