package models

import (
	"time"
)

// TaskStatus represents a task's workflow state.
//
// The canonical domain has four states. Board and list views collapse
// review/done into a single "Completed" column; "Completed" is accepted
// as an input alias for done, and done is the only terminal state.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskDone       TaskStatus = "done"
)

// TaskStatuses lists the valid task statuses in workflow order.
var TaskStatuses = []TaskStatus{TaskTodo, TaskInProgress, TaskReview, TaskDone}

// ParseTaskStatus converts a string to TaskStatus, accepting both the
// canonical values and the display aliases used by board views.
// Returns false if the value is not in the status domain.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch s {
	case "todo", "To-Do":
		return TaskTodo, true
	case "in_progress", "In Progress":
		return TaskInProgress, true
	case "review", "Review":
		return TaskReview, true
	case "done", "Done", "Completed":
		return TaskDone, true
	}
	return "", false
}

// IsTerminal returns true for the terminal workflow state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskDone
}

// TaskPriority represents a task's priority level.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// ParseTaskPriority converts a string to TaskPriority.
// Returns false if the value is not in the priority domain.
func ParseTaskPriority(s string) (TaskPriority, bool) {
	switch s {
	case "low", "Low":
		return PriorityLow, true
	case "medium", "Medium":
		return PriorityMedium, true
	case "high", "High":
		return PriorityHigh, true
	}
	return "", false
}

// Task represents a unit of work within a project.
type Task struct {
	ID             string       `json:"id"`
	ProjectID      string       `json:"project_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	AssigneeID     string       `json:"assignee_id,omitempty"` // empty = unassigned
	ReporterID     string       `json:"reporter_id"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	EstimatedHours float64      `json:"estimated_hours"`
	ActualHours    float64      `json:"actual_hours"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewTask creates a new Task in the initial workflow state,
// reported by reporterID.
func NewTask(projectID, title, reporterID string) *Task {
	now := time.Now()
	return &Task{
		ProjectID:  projectID,
		Title:      title,
		ReporterID: reporterID,
		Status:     TaskTodo,
		Priority:   PriorityMedium,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsOverdue returns true if the task has a due date in the past and is
// not in the terminal state.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && !t.Status.IsTerminal()
}

// Comment represents a comment on a task. Comments are append-only.
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	AuthorID  string    `json:"author_id"`
	Author    string    `json:"author,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment represents file metadata attached to a task. The blob
// itself lives in the file store under StorageKey.
type Attachment struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	Filename   string    `json:"filename"`
	StorageKey string    `json:"-"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}
