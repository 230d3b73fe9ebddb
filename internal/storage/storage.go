// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"

	"github.com/taskforge-hq/taskforge/internal/models"
)

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error
	// EnsureAdminUser creates default admin if no users exist using secure bootstrap credentials.
	EnsureAdminUser() error

	// Repository accessors
	Users() UserRepository
	Projects() ProjectRepository
	Tasks() TaskRepository
	Tokens() TokenRepository
}

// UserRepository defines operations for user management.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// ProjectRepository defines operations for project and membership management.
// GetByID returns the project with its member list populated so callers can
// evaluate role predicates without a second query.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
	// List returns every project. Used by admin tooling.
	List(ctx context.Context) ([]*models.Project, error)
	// ListForUser returns projects the user owns, is a member of, or
	// holds a task in, without duplicates.
	ListForUser(ctx context.Context, userID string) ([]*models.Project, error)
	AddMember(ctx context.Context, projectID, userID string, role models.ProjectRole) error
	RemoveMember(ctx context.Context, projectID, userID string) error
	GetMembers(ctx context.Context, projectID string) ([]*models.ProjectMember, error)
}

// TaskRepository defines operations for task management.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
	// DeleteByProject removes every task in the project. Used by the
	// project delete cascade.
	DeleteByProject(ctx context.Context, projectID string) (int64, error)
	// ListByProject returns all tasks in the project regardless of caller.
	ListByProject(ctx context.Context, projectID string) ([]*models.Task, error)
	// ListByProjectForUser returns the project's tasks where the user is
	// assignee or reporter.
	ListByProjectForUser(ctx context.Context, projectID, userID string) ([]*models.Task, error)
	// ListForUser returns tasks across all projects where the user is
	// assignee or reporter.
	ListForUser(ctx context.Context, userID string) ([]*models.Task, error)
	// HasTaskInProject reports whether the user is assignee or reporter
	// of any task in the project.
	HasTaskInProject(ctx context.Context, projectID, userID string) (bool, error)

	AddComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, taskID string) ([]*models.Comment, error)
	AddAttachment(ctx context.Context, att *models.Attachment) error
	GetAttachment(ctx context.Context, id string) (*models.Attachment, error)
	ListAttachments(ctx context.Context, taskID string) ([]*models.Attachment, error)
}

// TokenRepository defines operations for refresh token management.
type TokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
