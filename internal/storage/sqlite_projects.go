package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/taskforge-hq/taskforge/internal/models"
)

type sqliteProjectRepo struct {
	db *sql.DB
}

func (r *sqliteProjectRepo) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (id, name, description, owner_id, status, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		project.ID, project.Name, project.Description, project.OwnerID, project.Status,
		nullTime(project.StartDate), nullTime(project.EndDate),
		project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *sqliteProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := `
		SELECT id, name, description, owner_id, status, start_date, end_date, created_at, updated_at
		FROM projects WHERE id = ?
	`
	project := &models.Project{}
	var description sql.NullString
	var startDate, endDate sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID, &project.Name, &description, &project.OwnerID, &project.Status,
		&startDate, &endDate,
		&project.CreatedAt, &project.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	project.Description = description.String
	project.StartDate = startDate.Time
	project.EndDate = endDate.Time

	// Role checks need the member list, so load it with the project.
	members, err := r.GetMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	project.Members = members
	return project, nil
}

func (r *sqliteProjectRepo) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects SET name = ?, description = ?, status = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		project.Name, project.Description, project.Status,
		nullTime(project.StartDate), nullTime(project.EndDate), project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("project not found: %s", project.ID)
	}
	return nil
}

func (r *sqliteProjectRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

func (r *sqliteProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	query := `
		SELECT id, name, description, owner_id, status, start_date, end_date, created_at, updated_at
		FROM projects
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{}
		var description sql.NullString
		var startDate, endDate sql.NullTime
		err := rows.Scan(
			&project.ID, &project.Name, &description, &project.OwnerID, &project.Status,
			&startDate, &endDate,
			&project.CreatedAt, &project.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		project.Description = description.String
		project.StartDate = startDate.Time
		project.EndDate = endDate.Time
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *sqliteProjectRepo) ListForUser(ctx context.Context, userID string) ([]*models.Project, error) {
	// Owned, member of, or holding a task as assignee or reporter.
	query := `
		SELECT DISTINCT p.id, p.name, p.description, p.owner_id, p.status, p.start_date, p.end_date, p.created_at, p.updated_at
		FROM projects p
		LEFT JOIN project_members pm ON p.id = pm.project_id AND pm.user_id = ?
		LEFT JOIN tasks t ON p.id = t.project_id AND (t.assignee_id = ? OR t.reporter_id = ?)
		WHERE p.owner_id = ? OR pm.user_id IS NOT NULL OR t.id IS NOT NULL
		ORDER BY p.name
	`
	rows, err := r.db.QueryContext(ctx, query, userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects for user: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{}
		var description sql.NullString
		var startDate, endDate sql.NullTime
		err := rows.Scan(
			&project.ID, &project.Name, &description, &project.OwnerID, &project.Status,
			&startDate, &endDate,
			&project.CreatedAt, &project.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		project.Description = description.String
		project.StartDate = startDate.Time
		project.EndDate = endDate.Time
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *sqliteProjectRepo) AddMember(ctx context.Context, projectID, userID string, role models.ProjectRole) error {
	query := `
		INSERT OR REPLACE INTO project_members (project_id, user_id, role)
		VALUES (?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, projectID, userID, role)
	if err != nil {
		return fmt.Errorf("add project member: %w", err)
	}
	return nil
}

func (r *sqliteProjectRepo) RemoveMember(ctx context.Context, projectID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM project_members WHERE project_id = ? AND user_id = ?",
		projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove project member: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("user not in project")
	}
	return nil
}

func (r *sqliteProjectRepo) GetMembers(ctx context.Context, projectID string) ([]*models.ProjectMember, error) {
	query := `
		SELECT pm.project_id, u.id, u.username, u.email, pm.role
		FROM users u
		INNER JOIN project_members pm ON u.id = pm.user_id
		WHERE pm.project_id = ?
		ORDER BY u.username
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project members: %w", err)
	}
	defer rows.Close()

	var members []*models.ProjectMember
	for rows.Next() {
		member := &models.ProjectMember{}
		err := rows.Scan(&member.ProjectID, &member.UserID, &member.Username, &member.Email, &member.Role)
		if err != nil {
			return nil, fmt.Errorf("scan project member: %w", err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// nullTime maps the zero time to NULL for storage.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
