package models

import (
	"time"
)

// Role represents a user's system-level permission level.
// It governs user administration only; project and task permissions
// are derived from project membership, never from this role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User represents an authenticated account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser creates a new User with initialized timestamps.
func NewUser(username, email string, role Role) *User {
	now := time.Now()
	return &User{
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin returns true if user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ParseRole converts a string to Role.
func ParseRole(s string) Role {
	if s == "admin" {
		return RoleAdmin
	}
	return RoleUser
}
