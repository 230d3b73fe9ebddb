package tasks

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskforge-hq/taskforge/internal/api/middleware"
	"github.com/taskforge-hq/taskforge/internal/authz"
	"github.com/taskforge-hq/taskforge/internal/files"
	"github.com/taskforge-hq/taskforge/internal/metrics"
	"github.com/taskforge-hq/taskforge/internal/models"
	"github.com/taskforge-hq/taskforge/internal/storage"
)

// maxAttachmentSize caps uploads at 10 MiB.
const maxAttachmentSize = 10 << 20

// Response helpers (same pattern as projects)
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

type Handler struct {
	storage storage.Storage
	files   *files.Store
}

func NewHandler(store storage.Storage, fileStore *files.Store) *Handler {
	return &Handler{storage: store, files: fileStore}
}

// Request types
type CreateRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Priority       string  `json:"priority"`
	AssigneeID     string  `json:"assignee_id"`
	DueDate        string  `json:"due_date"`
	EstimatedHours float64 `json:"estimated_hours"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

// ListByProject returns the project's tasks. Managers see every task;
// plain members only the ones they hold as assignee or reporter.
func (h *Handler) ListByProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	if !project.IsMember(userID) {
		jsonAuthzError(w, &authz.Error{Kind: authz.KindAccessDenied, Message: "only project members can list tasks"})
		return
	}

	var tasks []*models.Task
	var err error
	if project.IsManager(userID) {
		tasks, err = h.storage.Tasks().ListByProject(ctx, project.ID)
	} else {
		tasks, err = h.storage.Tasks().ListByProjectForUser(ctx, project.ID, userID)
	}
	if err != nil {
		log.Printf("list tasks error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	jsonOK(w, tasks)
}

// Create creates a task in the project. The caller becomes the
// reporter; the assignee, when given, must already be a member.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if err := ValidateTitle(req.Title); err != nil {
		jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), err.Error())
		return
	}
	dueDate, err := ParseDueDate(req.DueDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), err.Error())
		return
	}
	if req.EstimatedHours < 0 {
		jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), "estimated_hours must not be negative")
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	if e := authz.AuthorizeTaskCreate(project, userID, req.AssigneeID); e != nil {
		jsonAuthzError(w, e)
		return
	}

	task := models.NewTask(project.ID, strings.TrimSpace(req.Title), userID)
	task.ID = uuid.New().String()
	task.Description = strings.TrimSpace(req.Description)
	task.AssigneeID = req.AssigneeID
	task.DueDate = dueDate
	task.EstimatedHours = req.EstimatedHours

	if req.Priority != "" {
		priority, valid := models.ParseTaskPriority(req.Priority)
		if !valid {
			jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), "priority must be low, medium, or high")
			return
		}
		task.Priority = priority
	}

	if err := h.storage.Tasks().Create(ctx, task); err != nil {
		log.Printf("create task error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.TasksCreatedTotal.Inc()
	log.Printf("task created: %s (%s) in project %s by %s", task.Title, task.ID, project.ID, userID)
	jsonCreated(w, task)
}

// Mine returns every task the caller holds as assignee or reporter,
// across all projects.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	tasks, err := h.storage.Tasks().ListForUser(ctx, userID)
	if err != nil {
		log.Printf("list my tasks error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	jsonOK(w, tasks)
}

// GetByID returns a task. Only its assignee and reporter may read it.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}

	if e := authz.AuthorizeTaskView(task, userID); e != nil {
		jsonAuthzError(w, e)
		return
	}

	jsonOK(w, task)
}

// Update applies a partial update. Managers may touch every updatable
// field; assignees and reporters only status, actual_hours, and
// description. A single field outside the caller's allow-list rejects
// the whole request.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	patch, err := buildPatch(raw)
	if err != nil {
		jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), err.Error())
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	project, ok := h.loadTaskProject(w, r, task)
	if !ok {
		return
	}

	update, e := authz.AuthorizeTaskUpdate(project, task, userID, patch)
	if e != nil {
		jsonAuthzError(w, e)
		return
	}

	prevStatus := task.Status
	update.Apply(task)

	if err := h.storage.Tasks().Update(ctx, task); err != nil {
		log.Printf("update task error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	if task.Status == models.TaskDone && prevStatus != models.TaskDone {
		metrics.TasksCompletedTotal.Inc()
	}
	log.Printf("task updated: %s (%s) by %s", task.Title, task.ID, userID)
	jsonOK(w, task)
}

// Delete removes a task and its attachment blobs. Reporter only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}

	if e := authz.AuthorizeTaskDelete(task, userID); e != nil {
		jsonAuthzError(w, e)
		return
	}

	attachments, err := h.storage.Tasks().ListAttachments(ctx, task.ID)
	if err != nil {
		log.Printf("delete task error: list attachments: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	if err := h.storage.Tasks().Delete(ctx, task.ID); err != nil {
		log.Printf("delete task error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	// Blob cleanup after the row is gone; a leftover blob is harmless.
	for _, att := range attachments {
		if err := h.files.Delete(att.StorageKey); err != nil {
			log.Printf("delete task: remove blob %s: %v", att.StorageKey, err)
		}
	}

	metrics.TasksDeletedTotal.Inc()
	log.Printf("task deleted: %s (%s) by %s", task.Title, task.ID, userID)
	jsonNoContent(w)
}

// ListComments returns a task's comments, oldest first. Members only.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	project, ok := h.loadTaskProject(w, r, task)
	if !ok {
		return
	}

	if e := authz.AuthorizeComment(project, userID); e != nil {
		jsonAuthzError(w, e)
		return
	}

	comments, err := h.storage.Tasks().ListComments(ctx, task.ID)
	if err != nil {
		log.Printf("list comments error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	jsonOK(w, comments)
}

// AddComment appends a comment to a task. Members only; comments are
// never edited or removed.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}
	if err := ValidateCommentContent(req.Content); err != nil {
		jsonError(w, http.StatusBadRequest, string(authz.KindValidationFailed), err.Error())
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	project, ok := h.loadTaskProject(w, r, task)
	if !ok {
		return
	}

	if e := authz.AuthorizeComment(project, userID); e != nil {
		jsonAuthzError(w, e)
		return
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		TaskID:    task.ID,
		AuthorID:  userID,
		Author:    middleware.GetUsername(ctx),
		Content:   strings.TrimSpace(req.Content),
		CreatedAt: time.Now(),
	}

	if err := h.storage.Tasks().AddComment(ctx, comment); err != nil {
		log.Printf("add comment error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	jsonCreated(w, comment)
}

// ListAttachments returns a task's attachment metadata. Members only.
func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	project, ok := h.loadTaskProject(w, r, task)
	if !ok {
		return
	}

	if e := authz.AuthorizeComment(project, userID); e != nil {
		jsonAuthzError(w, e)
		return
	}

	attachments, err := h.storage.Tasks().ListAttachments(ctx, task.ID)
	if err != nil {
		log.Printf("list attachments error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	jsonOK(w, attachments)
}

// Upload stores a multipart file as a task attachment. Members only.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	project, ok := h.loadTaskProject(w, r, task)
	if !ok {
		return
	}

	if e := authz.AuthorizeComment(project, userID); e != nil {
		jsonAuthzError(w, e)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "multipart field 'file' required")
		return
	}
	defer file.Close()

	key, size, err := h.files.Save(file)
	if err != nil {
		log.Printf("upload attachment error: save blob: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	att := &models.Attachment{
		ID:         uuid.New().String(),
		TaskID:     task.ID,
		Filename:   header.Filename,
		StorageKey: key,
		MimeType:   mimeType,
		Size:       size,
		UploadedBy: userID,
		UploadedAt: time.Now(),
	}

	if err := h.storage.Tasks().AddAttachment(ctx, att); err != nil {
		log.Printf("upload attachment error: %v", err)
		if rmErr := h.files.Delete(key); rmErr != nil {
			log.Printf("upload attachment: remove orphan blob %s: %v", key, rmErr)
		}
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.AttachmentBytesTotal.Add(float64(att.Size))
	log.Printf("attachment uploaded: %s (%d bytes) to task %s by %s", att.Filename, att.Size, task.ID, userID)
	jsonCreated(w, att)
}

// Download streams an attachment blob. Members only.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	attachmentID := chi.URLParam(r, "attachmentId")
	if attachmentID == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "attachment id required")
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}
	project, ok := h.loadTaskProject(w, r, task)
	if !ok {
		return
	}

	if e := authz.AuthorizeComment(project, userID); e != nil {
		jsonAuthzError(w, e)
		return
	}

	att, err := h.storage.Tasks().GetAttachment(ctx, attachmentID)
	if err != nil {
		log.Printf("download attachment error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if att == nil || att.TaskID != task.ID {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "attachment not found")
		return
	}

	blob, err := h.files.Open(att.StorageKey)
	if err != nil {
		log.Printf("download attachment error: open blob: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	defer blob.Close()

	w.Header().Set("Content-Type", att.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", att.Size))
	if _, err := io.Copy(w, blob); err != nil {
		log.Printf("download attachment error: stream: %v", err)
	}
}

// buildPatch converts the raw request body into an explicit
// field-presence patch. Unknown fields pass through so the allow-list
// check can name them in its rejection.
func buildPatch(raw map[string]json.RawMessage) (*authz.TaskPatch, error) {
	patch := &authz.TaskPatch{Fields: make([]string, 0, len(raw))}
	for f := range raw {
		patch.Fields = append(patch.Fields, f)
	}

	var req struct {
		Title          *string  `json:"title"`
		Description    *string  `json:"description"`
		Status         *string  `json:"status"`
		Priority       *string  `json:"priority"`
		Assignee       *string  `json:"assignee_id"`
		DueDate        *string  `json:"due_date"`
		EstimatedHours *float64 `json:"estimated_hours"`
		ActualHours    *float64 `json:"actual_hours"`
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(buf, &req); err != nil {
		return nil, fmt.Errorf("invalid request body")
	}

	patch.Title = req.Title
	patch.Description = req.Description
	patch.Status = req.Status
	patch.Priority = req.Priority
	patch.Assignee = req.Assignee
	patch.EstimatedHours = req.EstimatedHours
	patch.ActualHours = req.ActualHours

	if req.DueDate != nil {
		due, err := ParseDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		patch.DueDate = due
	}

	return patch, nil
}

// loadProject fetches the project from the URL "id" parameter, used by
// the project-scoped task routes.
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

// loadTask fetches the task from the URL "id" parameter.
func (h *Handler) loadTask(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "task id required")
		return nil, false
	}

	task, err := h.storage.Tasks().GetByID(r.Context(), id)
	if err != nil {
		log.Printf("get task error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return nil, false
	}
	if task == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "task not found")
		return nil, false
	}
	return task, true
}

// loadTaskProject fetches the project owning the task for role checks.
func (h *Handler) loadTaskProject(w http.ResponseWriter, r *http.Request, task *models.Task) (*models.Project, bool) {
	project, err := h.storage.Projects().GetByID(r.Context(), task.ProjectID)
	if err != nil {
		log.Printf("get task project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return nil, false
	}
	if project == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "project not found")
		return nil, false
	}
	return project, true
}
