package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taskforge-hq/taskforge/internal/models"
)

type sqliteTaskRepo struct {
	db *sql.DB
}

const taskColumns = `id, project_id, title, description, status, priority, assignee_id, reporter_id,
	due_date, estimated_hours, actual_hours, created_at, updated_at`

func (r *sqliteTaskRepo) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.ProjectID, task.Title, task.Description, task.Status, task.Priority,
		nullString(task.AssigneeID), task.ReporterID,
		task.DueDate, task.EstimatedHours, task.ActualHours,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *sqliteTaskRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return task, nil
}

func (r *sqliteTaskRepo) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, assignee_id = ?,
			due_date = ?, estimated_hours = ?, actual_hours = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		task.Title, task.Description, task.Status, task.Priority, nullString(task.AssigneeID),
		task.DueDate, task.EstimatedHours, task.ActualHours, task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task not found: %s", task.ID)
	}
	return nil
}

func (r *sqliteTaskRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task not found: %s", id)
	}
	return nil
}

func (r *sqliteTaskRepo) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE project_id = ?", projectID)
	if err != nil {
		return 0, fmt.Errorf("delete project tasks: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func (r *sqliteTaskRepo) ListByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ? ORDER BY created_at`
	return r.queryTasks(ctx, "list project tasks", query, projectID)
}

func (r *sqliteTaskRepo) ListByProjectForUser(ctx context.Context, projectID, userID string) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + ` FROM tasks
		WHERE project_id = ? AND (assignee_id = ? OR reporter_id = ?)
		ORDER BY created_at
	`
	return r.queryTasks(ctx, "list project tasks for user", query, projectID, userID, userID)
}

func (r *sqliteTaskRepo) ListForUser(ctx context.Context, userID string) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + ` FROM tasks
		WHERE assignee_id = ? OR reporter_id = ?
		ORDER BY created_at
	`
	return r.queryTasks(ctx, "list tasks for user", query, userID, userID)
}

func (r *sqliteTaskRepo) HasTaskInProject(ctx context.Context, projectID, userID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM tasks
			WHERE project_id = ? AND (assignee_id = ? OR reporter_id = ?)
		)
	`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, projectID, userID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check task in project: %w", err)
	}
	return exists, nil
}

func (r *sqliteTaskRepo) AddComment(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO task_comments (id, task_id, author_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		comment.ID, comment.TaskID, comment.AuthorID, comment.Content, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *sqliteTaskRepo) ListComments(ctx context.Context, taskID string) ([]*models.Comment, error) {
	query := `
		SELECT c.id, c.task_id, c.author_id, u.username, c.content, c.created_at
		FROM task_comments c
		INNER JOIN users u ON c.author_id = u.id
		WHERE c.task_id = ?
		ORDER BY c.created_at
	`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		comment := &models.Comment{}
		err := rows.Scan(
			&comment.ID, &comment.TaskID, &comment.AuthorID, &comment.Author,
			&comment.Content, &comment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

func (r *sqliteTaskRepo) AddAttachment(ctx context.Context, att *models.Attachment) error {
	query := `
		INSERT INTO task_attachments (id, task_id, filename, storage_key, mime_type, size, uploaded_by, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		att.ID, att.TaskID, att.Filename, att.StorageKey, att.MimeType, att.Size,
		att.UploadedBy, att.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

func (r *sqliteTaskRepo) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	query := `
		SELECT id, task_id, filename, storage_key, mime_type, size, uploaded_by, uploaded_at
		FROM task_attachments WHERE id = ?
	`
	att := &models.Attachment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&att.ID, &att.TaskID, &att.Filename, &att.StorageKey, &att.MimeType, &att.Size,
		&att.UploadedBy, &att.UploadedAt,
	)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	return att, nil
}

func (r *sqliteTaskRepo) ListAttachments(ctx context.Context, taskID string) ([]*models.Attachment, error) {
	query := `
		SELECT id, task_id, filename, storage_key, mime_type, size, uploaded_by, uploaded_at
		FROM task_attachments WHERE task_id = ?
		ORDER BY uploaded_at
	`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var atts []*models.Attachment
	for rows.Next() {
		att := &models.Attachment{}
		err := rows.Scan(
			&att.ID, &att.TaskID, &att.Filename, &att.StorageKey, &att.MimeType, &att.Size,
			&att.UploadedBy, &att.UploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		atts = append(atts, att)
	}
	return atts, rows.Err()
}

func (r *sqliteTaskRepo) queryTasks(ctx context.Context, op, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var description sql.NullString
	var assignee sql.NullString
	var dueDate sql.NullTime
	err := row.Scan(
		&task.ID, &task.ProjectID, &task.Title, &description, &task.Status, &task.Priority,
		&assignee, &task.ReporterID,
		&dueDate, &task.EstimatedHours, &task.ActualHours,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Description = description.String
	task.AssigneeID = assignee.String
	if dueDate.Valid {
		t := dueDate.Time
		task.DueDate = &t
	}
	return task, nil
}

// nullString maps the empty string to NULL for storage.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
