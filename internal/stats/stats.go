// Package stats computes project task statistics.
package stats

import (
	"time"

	"github.com/taskforge-hq/taskforge/internal/models"
)

// ProjectStats summarizes the tasks of a single project.
type ProjectStats struct {
	TotalTasks     int                         `json:"total_tasks"`
	ByStatus       map[models.TaskStatus]int   `json:"by_status"`
	ByPriority     map[models.TaskPriority]int `json:"by_priority"`
	Overdue        int                         `json:"overdue"`
	Unassigned     int                         `json:"unassigned"`
	EstimatedHours float64                     `json:"estimated_hours"`
	ActualHours    float64                     `json:"actual_hours"`
	CompletionRate float64                     `json:"completion_rate"`
}

// Compute aggregates the given tasks as of now. Every status and
// priority appears in the maps even when its count is zero, so clients
// can render fixed columns.
func Compute(tasks []*models.Task, now time.Time) *ProjectStats {
	s := &ProjectStats{
		ByStatus:   make(map[models.TaskStatus]int, len(models.TaskStatuses)),
		ByPriority: make(map[models.TaskPriority]int, 3),
	}
	for _, st := range models.TaskStatuses {
		s.ByStatus[st] = 0
	}
	for _, p := range []models.TaskPriority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh} {
		s.ByPriority[p] = 0
	}

	for _, t := range tasks {
		s.TotalTasks++
		s.ByStatus[t.Status]++
		s.ByPriority[t.Priority]++
		if t.IsOverdue(now) {
			s.Overdue++
		}
		if t.AssigneeID == "" {
			s.Unassigned++
		}
		s.EstimatedHours += t.EstimatedHours
		s.ActualHours += t.ActualHours
	}

	if s.TotalTasks > 0 {
		s.CompletionRate = float64(s.ByStatus[models.TaskDone]) / float64(s.TotalTasks)
	}
	return s
}
