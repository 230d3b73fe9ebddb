package stats

import (
	"testing"
	"time"

	"github.com/taskforge-hq/taskforge/internal/models"
)

func task(status models.TaskStatus, priority models.TaskPriority) *models.Task {
	return &models.Task{
		Status:   status,
		Priority: priority,
	}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, time.Now())

	if s.TotalTasks != 0 {
		t.Errorf("total = %d, want 0", s.TotalTasks)
	}
	if s.CompletionRate != 0 {
		t.Errorf("completion rate = %v, want 0", s.CompletionRate)
	}
	// Zero counts are still present
	if len(s.ByStatus) != 4 {
		t.Errorf("status buckets = %d, want 4", len(s.ByStatus))
	}
	if len(s.ByPriority) != 3 {
		t.Errorf("priority buckets = %d, want 3", len(s.ByPriority))
	}
}

func TestCompute_Counts(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	overdueTask := task(models.TaskInProgress, models.PriorityHigh)
	overdueTask.DueDate = &past
	overdueTask.AssigneeID = "u-1"
	overdueTask.EstimatedHours = 4
	overdueTask.ActualHours = 6

	doneLate := task(models.TaskDone, models.PriorityMedium)
	doneLate.DueDate = &past // done tasks are never overdue
	doneLate.AssigneeID = "u-2"
	doneLate.EstimatedHours = 2
	doneLate.ActualHours = 1.5

	pending := task(models.TaskTodo, models.PriorityLow)
	pending.DueDate = &future

	tasks := []*models.Task{overdueTask, doneLate, pending}
	s := Compute(tasks, now)

	if s.TotalTasks != 3 {
		t.Fatalf("total = %d, want 3", s.TotalTasks)
	}
	if s.ByStatus[models.TaskInProgress] != 1 || s.ByStatus[models.TaskDone] != 1 || s.ByStatus[models.TaskTodo] != 1 {
		t.Errorf("status counts = %v", s.ByStatus)
	}
	if s.ByStatus[models.TaskReview] != 0 {
		t.Errorf("review count = %d, want 0", s.ByStatus[models.TaskReview])
	}
	if s.ByPriority[models.PriorityHigh] != 1 {
		t.Errorf("priority counts = %v", s.ByPriority)
	}
	if s.Overdue != 1 {
		t.Errorf("overdue = %d, want 1", s.Overdue)
	}
	if s.Unassigned != 1 {
		t.Errorf("unassigned = %d, want 1", s.Unassigned)
	}
	if s.EstimatedHours != 6 || s.ActualHours != 7.5 {
		t.Errorf("hours = %v / %v, want 6 / 7.5", s.EstimatedHours, s.ActualHours)
	}
	if want := 1.0 / 3.0; s.CompletionRate != want {
		t.Errorf("completion rate = %v, want %v", s.CompletionRate, want)
	}
}
