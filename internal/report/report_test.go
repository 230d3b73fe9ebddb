package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/taskforge-hq/taskforge/internal/models"
)

func TestWrite(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(72 * time.Hour)

	project := &models.Project{
		ID:          "p-1",
		Name:        "Launch",
		Description: "Q3 launch prep",
		OwnerID:     "u-1",
		Status:      models.ProjectActive,
		StartDate:   now.AddDate(0, -1, 0),
		EndDate:     now.AddDate(0, 2, 0),
		Members: []*models.ProjectMember{
			{UserID: "u-2", Username: "alice", Role: models.ProjectRoleManager},
			{UserID: "u-3", Username: "bob", Role: models.ProjectRoleMember},
		},
	}

	tasks := []*models.Task{
		{
			ID: "t-1", ProjectID: "p-1", Title: "Write copy",
			Status: models.TaskInProgress, Priority: models.PriorityHigh,
			AssigneeID: "u-2", ReporterID: "u-3", DueDate: &due,
			Description: "Landing page text",
		},
		{
			ID: "t-2", ProjectID: "p-1", Title: "Ship it",
			Status: models.TaskTodo, Priority: models.PriorityMedium,
			ReporterID: "u-2",
		},
	}

	var buf bytes.Buffer
	err := Write(&buf, &Data{
		Project:     project,
		Tasks:       tasks,
		Assignees:   map[string]string{"u-2": "alice"},
		GeneratedAt: now,
	})
	if err != nil {
		t.Fatalf("write report: %v", err)
	}

	if buf.Len() == 0 {
		t.Fatal("report should not be empty")
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output should be a PDF document")
	}
}

func TestWrite_EmptyProject(t *testing.T) {
	project := &models.Project{ID: "p-1", Name: "Empty", Status: models.ProjectPlanning}

	var buf bytes.Buffer
	err := Write(&buf, &Data{
		Project:     project,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output should be a PDF document")
	}
}
