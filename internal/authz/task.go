package authz

import (
	"time"

	"github.com/taskforge-hq/taskforge/internal/models"
)

// NonManagerTaskFields is the update allow-list for assignees and
// reporters who are not project managers.
var NonManagerTaskFields = []string{"status", "actual_hours", "description"}

// ManagerTaskFields is the full update allow-list, available to
// project managers only.
var ManagerTaskFields = []string{
	"title", "description", "status", "priority",
	"due_date", "assignee_id", "estimated_hours", "actual_hours",
}

var taskStatusValues = []string{"todo", "in_progress", "review", "done"}
var taskPriorityValues = []string{"low", "medium", "high"}

// AuthorizeTaskCreate decides whether creatorID may create a task in
// the project with the given assignee ("" = unassigned). The reporter
// is always the creator; the caller sets that after a nil return.
func AuthorizeTaskCreate(p *models.Project, creatorID, assigneeID string) *Error {
	if !p.IsMember(creatorID) {
		return denied("only project members can create tasks")
	}
	if assigneeID != "" && !p.IsMember(assigneeID) {
		return &Error{Kind: KindInvalidAssignee, Message: "assignee must be a project member"}
	}
	return nil
}

// AuthorizeTaskView decides whether userID may read the task detail.
// Stricter than project-level read: only the assignee and the reporter
// see a task, not arbitrary project members.
func AuthorizeTaskView(t *models.Task, userID string) *Error {
	if userID != "" && (t.AssigneeID == userID || t.ReporterID == userID) {
		return nil
	}
	return denied("you can only view tasks assigned to you or created by you")
}

// AuthorizeTaskDelete decides whether userID may delete the task.
// Reporter only. Not managers, not the owner, not the assignee.
// Deletion cascades to the owning project's task list at the caller.
func AuthorizeTaskDelete(t *models.Task, userID string) *Error {
	if t.ReporterID != userID {
		return denied("only the task reporter can delete the task")
	}
	return nil
}

// AuthorizeComment decides whether userID may append a comment or an
// attachment to a task in the project. Any project member may.
func AuthorizeComment(p *models.Project, userID string) *Error {
	if !p.IsMember(userID) {
		return denied("only project members can comment on tasks")
	}
	return nil
}

// TaskPatch is an explicit field-presence update request. Fields holds
// the JSON field names present in the request body; a pointer is set
// iff its field name appears in Fields. Status and Priority arrive raw
// so enum membership is decided here, not at the transport.
type TaskPatch struct {
	Fields []string

	Title          *string
	Description    *string
	Status         *string
	Priority       *string
	Assignee       *string // non-nil empty string unassigns
	DueDate        *time.Time
	EstimatedHours *float64
	ActualHours    *float64
}

// TaskUpdate is a validated, typed patch ready to apply.
type TaskUpdate struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	Assignee       *string
	DueDate        *time.Time
	EstimatedHours *float64
	ActualHours    *float64
}

// Apply writes the update onto the task. All-or-nothing: Apply is only
// reachable after AuthorizeTaskUpdate returned it without error.
func (u *TaskUpdate) Apply(t *models.Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Assignee != nil {
		t.AssigneeID = *u.Assignee
	}
	if u.DueDate != nil {
		t.DueDate = u.DueDate
	}
	if u.EstimatedHours != nil {
		t.EstimatedHours = *u.EstimatedHours
	}
	if u.ActualHours != nil {
		t.ActualHours = *u.ActualHours
	}
	t.UpdatedAt = time.Now()
}

// AuthorizeTaskUpdate decides whether userID may apply the patch to
// the task, given the owning project snapshot. On success it returns
// the typed update to apply; on rejection, the specific decision error.
//
// Managers may touch every allow-listed field; assignees and reporters
// only {status, actual_hours, description}. Any field outside the
// acting role's allow-list rejects the whole request.
func AuthorizeTaskUpdate(p *models.Project, t *models.Task, userID string, patch *TaskPatch) (*TaskUpdate, *Error) {
	isManager := p.IsManager(userID)
	isAssignee := userID != "" && t.AssigneeID == userID
	isReporter := userID != "" && t.ReporterID == userID

	if !isManager && !isAssignee && !isReporter {
		return nil, denied("only project managers, the assignee, or the reporter can update a task")
	}

	allowed := ManagerTaskFields
	if !isManager {
		allowed = NonManagerTaskFields
	}
	if offending := subtract(patch.Fields, allowed); len(offending) > 0 {
		return nil, invalid("you don't have permission to update these fields", offending, allowed)
	}

	update := &TaskUpdate{
		Title:       patch.Title,
		Description: patch.Description,
		DueDate:     patch.DueDate,
	}

	if patch.Status != nil {
		status, ok := models.ParseTaskStatus(*patch.Status)
		if !ok {
			return nil, invalid("invalid status value", []string{"status"}, taskStatusValues)
		}
		update.Status = &status
	}

	if patch.Priority != nil {
		priority, ok := models.ParseTaskPriority(*patch.Priority)
		if !ok {
			return nil, invalid("invalid priority value", []string{"priority"}, taskPriorityValues)
		}
		update.Priority = &priority
	}

	if patch.Assignee != nil {
		// Empty unassigns; anything else must be a current member.
		if *patch.Assignee != "" && !p.IsMember(*patch.Assignee) {
			return nil, &Error{Kind: KindInvalidAssignee, Message: "assignee must be a project member"}
		}
		update.Assignee = patch.Assignee
	}

	if patch.EstimatedHours != nil {
		if *patch.EstimatedHours < 0 {
			return nil, invalid("estimated_hours must not be negative", []string{"estimated_hours"}, nil)
		}
		update.EstimatedHours = patch.EstimatedHours
	}
	if patch.ActualHours != nil {
		if *patch.ActualHours < 0 {
			return nil, invalid("actual_hours must not be negative", []string{"actual_hours"}, nil)
		}
		update.ActualHours = patch.ActualHours
	}

	return update, nil
}
