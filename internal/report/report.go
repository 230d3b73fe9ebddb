// Package report renders project reports as PDF documents.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/taskforge-hq/taskforge/internal/models"
	"github.com/taskforge-hq/taskforge/internal/stats"
)

// Data bundles everything a project report needs. Assignees maps user
// IDs to display names for the task details section.
type Data struct {
	Project     *models.Project
	Tasks       []*models.Task
	Assignees   map[string]string
	GeneratedAt time.Time
}

// Write renders the report PDF to w.
func Write(w io.Writer, d *Data) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Project Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	writeProjectDetails(pdf, d.Project)
	writeTeamMembers(pdf, d.Project)
	writeTaskStatistics(pdf, stats.Compute(d.Tasks, d.GeneratedAt))
	writeTaskDetails(pdf, d.Tasks, d.Assignees)

	pdf.SetY(-20)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Report generated on "+d.GeneratedAt.Format("2006-01-02 15:04"), "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

func writeProjectDetails(pdf *fpdf.Fpdf, p *models.Project) {
	heading(pdf, "Project Details")
	line(pdf, "Name: "+p.Name)
	line(pdf, "Description: "+p.Description)
	line(pdf, "Status: "+string(p.Status))
	line(pdf, "Start Date: "+formatDate(p.StartDate))
	line(pdf, "End Date: "+formatDate(p.EndDate))
	pdf.Ln(4)
}

func writeTeamMembers(pdf *fpdf.Fpdf, p *models.Project) {
	heading(pdf, "Team Members")
	for _, m := range p.Members {
		line(pdf, fmt.Sprintf("%s (%s)", m.Username, m.Role))
	}
	if len(p.Members) == 0 {
		line(pdf, "No members")
	}
	pdf.Ln(4)
}

func writeTaskStatistics(pdf *fpdf.Fpdf, s *stats.ProjectStats) {
	heading(pdf, "Task Statistics")
	line(pdf, fmt.Sprintf("Total Tasks: %d", s.TotalTasks))
	line(pdf, fmt.Sprintf("Done: %d", s.ByStatus[models.TaskDone]))
	line(pdf, fmt.Sprintf("In Review: %d", s.ByStatus[models.TaskReview]))
	line(pdf, fmt.Sprintf("In Progress: %d", s.ByStatus[models.TaskInProgress]))
	line(pdf, fmt.Sprintf("To Do: %d", s.ByStatus[models.TaskTodo]))
	line(pdf, fmt.Sprintf("Overdue: %d", s.Overdue))
	pdf.Ln(2)
	line(pdf, fmt.Sprintf("High Priority: %d", s.ByPriority[models.PriorityHigh]))
	line(pdf, fmt.Sprintf("Medium Priority: %d", s.ByPriority[models.PriorityMedium]))
	line(pdf, fmt.Sprintf("Low Priority: %d", s.ByPriority[models.PriorityLow]))
	pdf.Ln(2)
	line(pdf, fmt.Sprintf("Estimated Hours: %.1f", s.EstimatedHours))
	line(pdf, fmt.Sprintf("Actual Hours: %.1f", s.ActualHours))
	pdf.Ln(4)
}

func writeTaskDetails(pdf *fpdf.Fpdf, tasks []*models.Task, assignees map[string]string) {
	heading(pdf, "Task Details")
	for _, t := range tasks {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, t.Title, "", 1, "L", false, 0, "")
		line(pdf, "Status: "+string(t.Status))
		line(pdf, "Priority: "+string(t.Priority))
		line(pdf, "Assignee: "+assigneeName(t, assignees))
		if t.DueDate != nil {
			line(pdf, "Due Date: "+formatDate(*t.DueDate))
		}
		if t.Description != "" {
			line(pdf, "Description: "+t.Description)
		}
		pdf.Ln(3)
	}
	if len(tasks) == 0 {
		line(pdf, "No tasks")
	}
}

func heading(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
}

func line(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 6, text, "", "L", false)
}

func assigneeName(t *models.Task, assignees map[string]string) string {
	if t.AssigneeID == "" {
		return "Unassigned"
	}
	if name, ok := assignees[t.AssigneeID]; ok {
		return name
	}
	return t.AssigneeID
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
