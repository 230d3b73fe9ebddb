package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskforge-hq/taskforge/internal/api/middleware"
	"github.com/taskforge-hq/taskforge/internal/authz"
	"github.com/taskforge-hq/taskforge/internal/metrics"
	"github.com/taskforge-hq/taskforge/internal/models"
	"github.com/taskforge-hq/taskforge/internal/report"
	"github.com/taskforge-hq/taskforge/internal/stats"
	"github.com/taskforge-hq/taskforge/internal/storage"
)

// Response helpers (same pattern as users)
type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
	Allowed []string `json:"allowed,omitempty"`
}
type dataResponse struct {
	Data any `json:"data"`
}

const (
	errCodeBadRequest    = "BAD_REQUEST"
	errCodeInternalError = "INTERNAL_ERROR"
	errCodeNotFound      = "NOT_FOUND"
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}})
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

func jsonCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

func jsonNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// jsonAuthzError maps a rejected decision to its transport status.
func jsonAuthzError(w http.ResponseWriter, e *authz.Error) {
	status := http.StatusBadRequest
	switch e.Kind {
	case authz.KindNotFound:
		status = http.StatusNotFound
	case authz.KindAccessDenied:
		status = http.StatusForbidden
	case authz.KindAlreadyMember:
		status = http.StatusConflict
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{
		Code:    string(e.Kind),
		Message: e.Message,
		Fields:  e.Fields,
		Allowed: e.Allowed,
	}})
}

// Response types
type ProjectResponse struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	OwnerID     string                  `json:"owner_id"`
	Status      string                  `json:"status"`
	StartDate   string                  `json:"start_date,omitempty"`
	EndDate     string                  `json:"end_date,omitempty"`
	Members     []*models.ProjectMember `json:"members,omitempty"`
	CreatedAt   string                  `json:"created_at"`
	UpdatedAt   string                  `json:"updated_at"`
}

type Handler struct {
	storage storage.Storage
}

func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// Request types
type CreateRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	StartDate   string             `json:"start_date"`
	EndDate     string             `json:"end_date"`
	Members     []AddMemberRequest `json:"members"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// List returns the projects visible to the caller: owned, joined, or
// holding at least one of their tasks.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	projects, err := h.storage.Projects().ListForUser(ctx, userID)
	if err != nil {
		log.Printf("list projects error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	resp := make([]*ProjectResponse, len(projects))
	for i, p := range projects {
		resp[i] = projectToResponse(p)
	}
	jsonOK(w, resp)
}

// Create creates a new project owned by the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if err := ValidateName(req.Name); err != nil {
		jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), err.Error())
		return
	}
	startDate, err := ParseDate(req.StartDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), "start_date: "+err.Error())
		return
	}
	if strings.TrimSpace(req.EndDate) == "" {
		jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), "end_date is required")
		return
	}
	endDate, err := ParseDate(req.EndDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), "end_date: "+err.Error())
		return
	}
	for _, m := range req.Members {
		if m.Role != "" && m.Role != "manager" && m.Role != "member" {
			jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), "member role must be manager or member")
			return
		}
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	project := models.NewProject(strings.TrimSpace(req.Name), strings.TrimSpace(req.Description), userID)
	project.ID = uuid.New().String()
	project.StartDate = startDate
	project.EndDate = endDate

	if err := h.storage.Projects().Create(ctx, project); err != nil {
		log.Printf("create project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	// Initial members, default role member. The owner is implicit and
	// unknown users are skipped rather than failing the created project.
	for _, m := range req.Members {
		if m.UserID == "" || project.IsMember(m.UserID) {
			continue
		}
		user, err := h.storage.Users().GetByID(ctx, m.UserID)
		if err != nil {
			log.Printf("create project error: get member %s: %v", m.UserID, err)
			jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
			return
		}
		if user == nil {
			log.Printf("create project: skipping unknown initial member %s", m.UserID)
			continue
		}
		role := models.ParseProjectRole(m.Role)
		if err := h.storage.Projects().AddMember(ctx, project.ID, m.UserID, role); err != nil {
			log.Printf("create project error: add member %s: %v", m.UserID, err)
			jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
			return
		}
		project.Members = append(project.Members, &models.ProjectMember{
			ProjectID: project.ID,
			UserID:    user.ID,
			Username:  user.Username,
			Email:     user.Email,
			Role:      role,
		})
	}

	metrics.ProjectsCreatedTotal.Inc()
	log.Printf("project created: %s (%s) owner %s", project.Name, project.ID, userID)
	jsonCreated(w, projectToResponse(project))
}

// GetByID returns a project. Members always see it; non-members only
// when they hold a task in it.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	hasTask := false
	if !project.IsMember(userID) {
		var err error
		hasTask, err = h.storage.Tasks().HasTaskInProject(ctx, project.ID, userID)
		if err != nil {
			log.Printf("get project error: check tasks: %v", err)
			jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
			return
		}
	}

	if e := authz.AuthorizeProjectView(project, userID, hasTask); e != nil {
		jsonAuthzError(w, e)
		return
	}

	jsonOK(w, projectToResponse(project))
}

// Update applies a partial update. Only name, description, status, and
// end_date may change; the field allow-list is checked before the
// caller's role.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	fields := make([]string, 0, len(raw))
	for f := range raw {
		fields = append(fields, f)
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	if e := authz.AuthorizeProjectUpdate(project, userID, fields); e != nil {
		jsonAuthzError(w, e)
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		EndDate     *string `json:"end_date"`
	}
	if err := unmarshalFields(raw, &req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		if err := ValidateName(*req.Name); err != nil {
			jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), err.Error())
			return
		}
		project.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		status := models.ProjectStatus(*req.Status)
		if !models.ValidProjectStatus(status) {
			jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), "status must be planning, active, completed, or on_hold")
			return
		}
		project.Status = status
	}
	if req.EndDate != nil {
		endDate, err := ParseDate(*req.EndDate)
		if err != nil {
			jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), "end_date: "+err.Error())
			return
		}
		project.EndDate = endDate
	}

	project.UpdatedAt = time.Now()

	if err := h.storage.Projects().Update(ctx, project); err != nil {
		log.Printf("update project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	log.Printf("project updated: %s (%s) by %s", project.Name, project.ID, userID)
	jsonOK(w, projectToResponse(project))
}

// Delete removes the project and every task in it. Owner only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	if e := authz.AuthorizeProjectDelete(project, userID); e != nil {
		jsonAuthzError(w, e)
		return
	}

	// Tasks go first so a failure leaves the project intact.
	removed, err := h.storage.Tasks().DeleteByProject(ctx, project.ID)
	if err != nil {
		log.Printf("delete project error: cascade tasks: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	if err := h.storage.Projects().Delete(ctx, project.ID); err != nil {
		log.Printf("delete project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.ProjectsDeletedTotal.Inc()
	metrics.TasksDeletedTotal.Add(float64(removed))
	log.Printf("project deleted: %s (%s) by %s, %d tasks removed", project.Name, project.ID, userID, removed)
	jsonNoContent(w)
}

// GetMembers returns the project's member list. Same read rule as the
// project itself: members always, non-members only when they hold a
// task in the project.
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	hasTask := false
	if !project.IsMember(userID) {
		var err error
		hasTask, err = h.storage.Tasks().HasTaskInProject(ctx, project.ID, userID)
		if err != nil {
			log.Printf("get project members error: check tasks: %v", err)
			jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
			return
		}
	}

	if e := authz.AuthorizeProjectView(project, userID, hasTask); e != nil {
		jsonAuthzError(w, e)
		return
	}

	members, err := h.storage.Projects().GetMembers(ctx, project.ID)
	if err != nil {
		log.Printf("get project members error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	jsonOK(w, members)
}

// AddMember adds a user to the project. Managers only.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), "user_id is required")
		return
	}
	if req.Role != "" && req.Role != "manager" && req.Role != "member" {
		jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), "role must be manager or member")
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	if e := authz.AuthorizeAddMember(project, userID, req.UserID); e != nil {
		jsonAuthzError(w, e)
		return
	}

	user, err := h.storage.Users().GetByID(ctx, req.UserID)
	if err != nil {
		log.Printf("add member error: get user: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "user not found")
		return
	}

	role := models.ParseProjectRole(req.Role)
	if err := h.storage.Projects().AddMember(ctx, project.ID, req.UserID, role); err != nil {
		log.Printf("add member error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	log.Printf("member %s added to project %s as %s by %s", req.UserID, project.ID, role, userID)
	jsonNoContent(w)
}

// RemoveMember removes a user from the project. Managers only, and the
// owner can never be removed.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userId")
	if targetID == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "user id required")
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	if e := authz.AuthorizeRemoveMember(project, userID, targetID); e != nil {
		jsonAuthzError(w, e)
		return
	}

	if err := h.storage.Projects().RemoveMember(ctx, project.ID, targetID); err != nil {
		log.Printf("remove member error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	log.Printf("member %s removed from project %s by %s", targetID, project.ID, userID)
	jsonNoContent(w)
}

// Stats returns aggregate task statistics for the project. Members only.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	if e := authz.AuthorizeProjectStats(project, userID); e != nil {
		jsonAuthzError(w, e)
		return
	}

	tasks, err := h.storage.Tasks().ListByProject(ctx, project.ID)
	if err != nil {
		log.Printf("project stats error: list tasks: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	jsonOK(w, stats.Compute(tasks, time.Now()))
}

// StatsMine returns aggregate statistics over the caller's own tasks
// in the project, the ones they hold as assignee or reporter. Members
// only.
func (h *Handler) StatsMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	if e := authz.AuthorizeProjectStats(project, userID); e != nil {
		jsonAuthzError(w, e)
		return
	}

	tasks, err := h.storage.Tasks().ListByProjectForUser(ctx, project.ID, userID)
	if err != nil {
		log.Printf("project stats error: list tasks for user: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	jsonOK(w, stats.Compute(tasks, time.Now()))
}

// Report renders the project report as a PDF download. Members only.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	if e := authz.AuthorizeProjectStats(project, userID); e != nil {
		jsonAuthzError(w, e)
		return
	}

	tasks, err := h.storage.Tasks().ListByProject(ctx, project.ID)
	if err != nil {
		log.Printf("project report error: list tasks: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	assignees, err := h.resolveAssignees(ctx, project, tasks)
	if err != nil {
		log.Printf("project report error: resolve assignees: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	var buf bytes.Buffer
	err = report.Write(&buf, &report.Data{
		Project:     project,
		Tasks:       tasks,
		Assignees:   assignees,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		log.Printf("project report error: render: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.ReportsGeneratedTotal.Inc()
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "project-report-"+project.ID+".pdf"))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("project report error: write response: %v", err)
	}
}

// resolveAssignees maps assignee IDs to display names. Member rows
// cover most of them; the rest are looked up individually.
func (h *Handler) resolveAssignees(ctx context.Context, project *models.Project, tasks []*models.Task) (map[string]string, error) {
	names := make(map[string]string)
	for _, m := range project.Members {
		names[m.UserID] = m.Username
	}
	for _, t := range tasks {
		if t.AssigneeID == "" {
			continue
		}
		if _, ok := names[t.AssigneeID]; ok {
			continue
		}
		user, err := h.storage.Users().GetByID(ctx, t.AssigneeID)
		if err != nil {
			return nil, err
		}
		if user != nil {
			names[t.AssigneeID] = user.Username
		}
	}
	return names, nil
}

// loadProject fetches the project from the URL parameter, writing the
// error response itself when the lookup fails.
func (h *Handler) loadProject(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "project id required")
		return nil, false
	}

	project, err := h.storage.Projects().GetByID(r.Context(), id)
	if err != nil {
		log.Printf("get project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return nil, false
	}
	if project == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "project not found")
		return nil, false
	}
	return project, true
}

// unmarshalFields re-decodes the raw field map into the typed request.
func unmarshalFields(raw map[string]json.RawMessage, dst any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, dst)
}

func projectToResponse(p *models.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		Status:      string(p.Status),
		StartDate:   formatDate(p.StartDate),
		EndDate:     formatDate(p.EndDate),
		Members:     p.Members,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
