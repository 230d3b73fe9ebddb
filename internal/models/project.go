package models

import (
	"time"
)

// ProjectRole represents a member's permission level within a project.
type ProjectRole string

const (
	ProjectRoleManager ProjectRole = "manager"
	ProjectRoleMember  ProjectRole = "member"
)

// ParseProjectRole converts a string to ProjectRole.
// Unknown values default to member.
func ParseProjectRole(s string) ProjectRole {
	if s == "manager" || s == "Manager" {
		return ProjectRoleManager
	}
	return ProjectRoleMember
}

// ProjectStatus represents a project's lifecycle state.
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
)

// ValidProjectStatus returns true if s is a known project status.
func ValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

// ProjectMember represents a user's membership in a project.
// The owner is not stored as a member row; ownership is tracked on the
// project itself and grants manager rights implicitly.
type ProjectMember struct {
	ProjectID string      `json:"project_id"`
	UserID    string      `json:"user_id"`
	Username  string      `json:"username,omitempty"`
	Email     string      `json:"email,omitempty"`
	Role      ProjectRole `json:"role"`
}

// Project represents a team project grouping tasks and members.
type Project struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	OwnerID     string           `json:"owner_id"`
	Status      ProjectStatus    `json:"status"`
	StartDate   time.Time        `json:"start_date"`
	EndDate     time.Time        `json:"end_date"`
	Members     []*ProjectMember `json:"members,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewProject creates a new Project owned by ownerID with initialized timestamps.
func NewProject(name, description, ownerID string) *Project {
	now := time.Now()
	return &Project{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		Status:      ProjectPlanning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsOwner returns true if userID owns the project.
func (p *Project) IsOwner(userID string) bool {
	return userID != "" && p.OwnerID == userID
}

// IsManager returns true if userID is the owner or holds the manager
// role on the project. The owner is always a manager, listed or not.
func (p *Project) IsManager(userID string) bool {
	if p.IsOwner(userID) {
		return true
	}
	for _, m := range p.Members {
		if m.UserID == userID && m.Role == ProjectRoleManager {
			return true
		}
	}
	return false
}

// IsMember returns true if userID is the owner or listed as a member
// with any role.
func (p *Project) IsMember(userID string) bool {
	if p.IsOwner(userID) {
		return true
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
