package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taskforge-hq/taskforge/internal/api/middleware"
	"github.com/taskforge-hq/taskforge/internal/files"
	"github.com/taskforge-hq/taskforge/internal/models"
	"github.com/taskforge-hq/taskforge/internal/storage"
)

// Mock repositories
type mockProjectRepository struct {
	projects []*models.Project
}

func (m *mockProjectRepository) Create(ctx context.Context, project *models.Project) error {
	m.projects = append(m.projects, project)
	return nil
}

func (m *mockProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockProjectRepository) Update(ctx context.Context, project *models.Project) error {
	return nil
}

func (m *mockProjectRepository) Delete(ctx context.Context, id string) error { return nil }

func (m *mockProjectRepository) List(ctx context.Context) ([]*models.Project, error) {
	return m.projects, nil
}

func (m *mockProjectRepository) ListForUser(ctx context.Context, userID string) ([]*models.Project, error) {
	return m.projects, nil
}

func (m *mockProjectRepository) AddMember(ctx context.Context, projectID, userID string, role models.ProjectRole) error {
	return nil
}

func (m *mockProjectRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	return nil
}

func (m *mockProjectRepository) GetMembers(ctx context.Context, projectID string) ([]*models.ProjectMember, error) {
	return nil, nil
}

type mockTaskRepository struct {
	tasks       []*models.Task
	comments    []*models.Comment
	attachments []*models.Attachment
}

func (m *mockTaskRepository) Create(ctx context.Context, task *models.Task) error {
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockTaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	for _, t := range m.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTaskRepository) Update(ctx context.Context, task *models.Task) error {
	for i, t := range m.tasks {
		if t.ID == task.ID {
			m.tasks[i] = task
			return nil
		}
	}
	return nil
}

func (m *mockTaskRepository) Delete(ctx context.Context, id string) error {
	for i, t := range m.tasks {
		if t.ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockTaskRepository) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	return 0, nil
}

func (m *mockTaskRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTaskRepository) ListByProjectForUser(ctx context.Context, projectID, userID string) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID && (t.AssigneeID == userID || t.ReporterID == userID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTaskRepository) ListForUser(ctx context.Context, userID string) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range m.tasks {
		if t.AssigneeID == userID || t.ReporterID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTaskRepository) HasTaskInProject(ctx context.Context, projectID, userID string) (bool, error) {
	return false, nil
}

func (m *mockTaskRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	m.comments = append(m.comments, comment)
	return nil
}

func (m *mockTaskRepository) ListComments(ctx context.Context, taskID string) ([]*models.Comment, error) {
	var out []*models.Comment
	for _, c := range m.comments {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockTaskRepository) AddAttachment(ctx context.Context, att *models.Attachment) error {
	m.attachments = append(m.attachments, att)
	return nil
}

func (m *mockTaskRepository) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	for _, a := range m.attachments {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockTaskRepository) ListAttachments(ctx context.Context, taskID string) ([]*models.Attachment, error) {
	var out []*models.Attachment
	for _, a := range m.attachments {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockUserRepository struct {
	users []*models.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error { return nil }

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *models.User) error { return nil }
func (m *mockUserRepository) Delete(ctx context.Context, id string) error         { return nil }

func (m *mockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	return m.users, nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

type mockStorage struct {
	projectRepo *mockProjectRepository
	taskRepo    *mockTaskRepository
	userRepo    *mockUserRepository
}

func (m *mockStorage) Open() error                         { return nil }
func (m *mockStorage) Close() error                        { return nil }
func (m *mockStorage) Migrate() error                      { return nil }
func (m *mockStorage) EnsureAdminUser() error              { return nil }
func (m *mockStorage) Users() storage.UserRepository       { return m.userRepo }
func (m *mockStorage) Projects() storage.ProjectRepository { return m.projectRepo }
func (m *mockStorage) Tasks() storage.TaskRepository       { return m.taskRepo }
func (m *mockStorage) Tokens() storage.TokenRepository     { return nil }

func newTestHandler(t *testing.T) (*Handler, *mockProjectRepository, *mockTaskRepository) {
	t.Helper()
	projectRepo := &mockProjectRepository{}
	taskRepo := &mockTaskRepository{}
	store := &mockStorage{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		userRepo:    &mockUserRepository{},
	}
	fileStore, err := files.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("create file store: %v", err)
	}
	return NewHandler(store, fileStore), projectRepo, taskRepo
}

func testProject(id, ownerID string) *models.Project {
	now := time.Now()
	return &models.Project{
		ID:        id,
		Name:      "Project " + id,
		OwnerID:   ownerID,
		Status:    models.ProjectActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func addMember(p *models.Project, userID string, role models.ProjectRole) {
	p.Members = append(p.Members, &models.ProjectMember{ProjectID: p.ID, UserID: userID, Role: role})
}

func testTask(id, projectID, assigneeID, reporterID string) *models.Task {
	now := time.Now()
	return &models.Task{
		ID:         id,
		ProjectID:  projectID,
		Title:      "Task " + id,
		Status:     models.TaskTodo,
		Priority:   models.PriorityMedium,
		AssigneeID: assigneeID,
		ReporterID: reporterID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func authedRequest(method, target, body, userID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithUser(req.Context(), userID, "user-"+userID, models.RoleUser))
}

func withURLParams(req *http.Request, pairs ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(pairs); i += 2 {
		rctx.URLParams.Add(pairs[i], pairs[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) *models.Task {
	t.Helper()
	var resp struct {
		Data *models.Task `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Data
}

func TestCreate_MemberBecomesReporter(t *testing.T) {
	handler, projectRepo, taskRepo := newTestHandler(t)
	p := testProject("proj-1", "alice")
	addMember(p, "bob", models.ProjectRoleMember)
	projectRepo.projects = []*models.Project{p}

	body := `{"title": "Fix login flow", "priority": "high", "due_date": "2026-10-01"}`
	req := withURLParams(authedRequest("POST", "/api/v1/projects/proj-1/tasks", body, "bob"), "id", "proj-1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	task := decodeTask(t, rec)
	if task.ReporterID != "bob" {
		t.Errorf("reporter = %q, want 'bob'", task.ReporterID)
	}
	if task.Status != models.TaskTodo {
		t.Errorf("status = %q, want todo", task.Status)
	}
	if task.Priority != models.PriorityHigh {
		t.Errorf("priority = %q, want high", task.Priority)
	}
	if len(taskRepo.tasks) != 1 {
		t.Errorf("stored tasks = %d, want 1", len(taskRepo.tasks))
	}
}

func TestCreate_NonMemberDenied(t *testing.T) {
	handler, projectRepo, _ := newTestHandler(t)
	projectRepo.projects = []*models.Project{testProject("proj-1", "alice")}

	body := `{"title": "Sneaky task"}`
	req := withURLParams(authedRequest("POST", "/api/v1/projects/proj-1/tasks", body, "mallory"), "id", "proj-1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestCreate_NonMemberAssignee(t *testing.T) {
	handler, projectRepo, _ := newTestHandler(t)
	projectRepo.projects = []*models.Project{testProject("proj-1", "alice")}

	body := `{"title": "Task", "assignee_id": "mallory"}`
	req := withURLParams(authedRequest("POST", "/api/v1/projects/proj-1/tasks", body, "alice"), "id", "proj-1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
	if e := decodeError(t, rec); e.Code != "INVALID_ASSIGNEE" {
		t.Errorf("code = %q, want INVALID_ASSIGNEE", e.Code)
	}
}

func TestGetByID_AssigneeOrReporterOnly(t *testing.T) {
	handler, projectRepo, taskRepo := newTestHandler(t)
	p := testProject("proj-1", "alice")
	addMember(p, "bob", models.ProjectRoleMember)
	addMember(p, "carol", models.ProjectRoleMember)
	projectRepo.projects = []*models.Project{p}
	taskRepo.tasks = []*models.Task{testTask("task-1", "proj-1", "bob", "alice")}

	tests := []struct {
		caller string
		want   int
	}{
		{"bob", http.StatusOK},    // assignee
		{"alice", http.StatusOK},  // reporter
		{"carol", http.StatusForbidden}, // member, but neither
	}

	for _, tc := range tests {
		t.Run(tc.caller, func(t *testing.T) {
			req := withURLParams(authedRequest("GET", "/api/v1/tasks/task-1", "", tc.caller), "id", "task-1")
			rec := httptest.NewRecorder()
			handler.GetByID(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestUpdate_AssigneeFieldSubset(t *testing.T) {
	handler, projectRepo, taskRepo := newTestHandler(t)
	p := testProject("proj-1", "alice")
	addMember(p, "bob", models.ProjectRoleMember)
	projectRepo.projects = []*models.Project{p}
	taskRepo.tasks = []*models.Task{testTask("task-1", "proj-1", "bob", "alice")}

	// Allowed subset passes
	body := `{"status": "in_progress", "actual_hours": 2.5}`
	req := withURLParams(authedRequest("PATCH", "/api/v1/tasks/task-1", body, "bob"), "id", "task-1")
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	task := decodeTask(t, rec)
	if task.Status != models.TaskInProgress {
		t.Errorf("status = %q, want in_progress", task.Status)
	}
	if task.ActualHours != 2.5 {
		t.Errorf("actual_hours = %v, want 2.5", task.ActualHours)
	}

	// title is manager-only; the whole request is rejected
	body = `{"status": "done", "title": "Renamed"}`
	req = withURLParams(authedRequest("PATCH", "/api/v1/tasks/task-1", body, "bob"), "id", "task-1")
	rec = httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	e := decodeError(t, rec)
	if e.Code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", e.Code)
	}
	if len(e.Fields) != 1 || e.Fields[0] != "title" {
		t.Errorf("fields = %v, want [title]", e.Fields)
	}
	if updated, _ := taskRepo.GetByID(context.Background(), "task-1"); updated.Status == models.TaskDone {
		t.Error("rejected request still changed the status")
	}
}

func TestUpdate_CompletedAlias(t *testing.T) {
	handler, projectRepo, taskRepo := newTestHandler(t)
	p := testProject("proj-1", "alice")
	addMember(p, "bob", models.ProjectRoleMember)
	projectRepo.projects = []*models.Project{p}
	taskRepo.tasks = []*models.Task{testTask("task-1", "proj-1", "bob", "alice")}

	body := `{"status": "Completed"}`
	req := withURLParams(authedRequest("PATCH", "/api/v1/tasks/task-1", body, "bob"), "id", "task-1")
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if task := decodeTask(t, rec); task.Status != models.TaskDone {
		t.Errorf("status = %q, want done", task.Status)
	}
}

func TestUpdate_ManagerReassigns(t *testing.T) {
	handler, projectRepo, taskRepo := newTestHandler(t)
	p := testProject("proj-1", "alice")
	addMember(p, "bob", models.ProjectRoleMember)
	addMember(p, "carol", models.ProjectRoleMember)
	projectRepo.projects = []*models.Project{p}
	taskRepo.tasks = []*models.Task{testTask("task-1", "proj-1", "bob", "bob")}

	body := `{"assignee_id": "carol", "title": "Retitled", "priority": "low"}`
	req := withURLParams(authedRequest("PATCH", "/api/v1/tasks/task-1", body, "alice"), "id", "task-1")
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	task := decodeTask(t, rec)
	if task.AssigneeID != "carol" {
		t.Errorf("assignee = %q, want 'carol'", task.AssigneeID)
	}
	if task.Title != "Retitled" {
		t.Errorf("title = %q, want 'Retitled'", task.Title)
	}

	// Reassigning to a non-member fails
	body = `{"assignee_id": "mallory"}`
	req = withURLParams(authedRequest("PATCH", "/api/v1/tasks/task-1", body, "alice"), "id", "task-1")
	rec = httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if e := decodeError(t, rec); e.Code != "INVALID_ASSIGNEE" {
		t.Errorf("code = %q, want INVALID_ASSIGNEE", e.Code)
	}

	// Empty assignee unassigns
	body = `{"assignee_id": ""}`
	req = withURLParams(authedRequest("PATCH", "/api/v1/tasks/task-1", body, "alice"), "id", "task-1")
	rec = httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if task := decodeTask(t, rec); task.AssigneeID != "" {
		t.Errorf("assignee = %q, want unassigned", task.AssigneeID)
	}
}

func TestDelete_ReporterOnly(t *testing.T) {
	handler, projectRepo, taskRepo := newTestHandler(t)
	p := testProject("proj-1", "alice")
	addMember(p, "bob", models.ProjectRoleMember)
	projectRepo.projects = []*models.Project{p}
	taskRepo.tasks = []*models.Task{testTask("task-1", "proj-1", "alice", "bob")}

	// The owner is not the reporter; denied
	req := withURLParams(authedRequest("DELETE", "/api/v1/tasks/task-1", "", "alice"), "id", "task-1")
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("owner delete status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	// The reporter may delete
	req = withURLParams(authedRequest("DELETE", "/api/v1/tasks/task-1", "", "bob"), "id", "task-1")
	rec = httptest.NewRecorder()
	handler.Delete(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reporter delete status = %d, want %d; body: %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}
	if len(taskRepo.tasks) != 0 {
		t.Errorf("remaining tasks = %d, want 0", len(taskRepo.tasks))
	}
}

func TestListByProject_RoleScoped(t *testing.T) {
	handler, projectRepo, taskRepo := newTestHandler(t)
	p := testProject("proj-1", "alice")
	addMember(p, "bob", models.ProjectRoleMember)
	projectRepo.projects = []*models.Project{p}
	taskRepo.tasks = []*models.Task{
		testTask("task-1", "proj-1", "bob", "alice"),
		testTask("task-2", "proj-1", "", "alice"),
	}

	// The owner sees every task
	req := withURLParams(authedRequest("GET", "/api/v1/projects/proj-1/tasks", "", "alice"), "id", "proj-1")
	rec := httptest.NewRecorder()
	handler.ListByProject(rec, req)

	var resp struct {
		Data []*models.Task `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("owner task count = %d, want 2", len(resp.Data))
	}

	// A plain member sees only their own
	req = withURLParams(authedRequest("GET", "/api/v1/projects/proj-1/tasks", "", "bob"), "id", "proj-1")
	rec = httptest.NewRecorder()
	handler.ListByProject(rec, req)

	resp.Data = nil
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Errorf("member task count = %d, want 1", len(resp.Data))
	}
}

func TestComments_MembersOnly(t *testing.T) {
	handler, projectRepo, taskRepo := newTestHandler(t)
	p := testProject("proj-1", "alice")
	addMember(p, "bob", models.ProjectRoleMember)
	projectRepo.projects = []*models.Project{p}
	taskRepo.tasks = []*models.Task{testTask("task-1", "proj-1", "bob", "alice")}

	body := `{"content": "Looks good to me"}`
	req := withURLParams(authedRequest("POST", "/api/v1/tasks/task-1/comments", body, "bob"), "id", "task-1")
	rec := httptest.NewRecorder()
	handler.AddComment(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if len(taskRepo.comments) != 1 {
		t.Fatalf("stored comments = %d, want 1", len(taskRepo.comments))
	}
	if taskRepo.comments[0].AuthorID != "bob" {
		t.Errorf("author = %q, want 'bob'", taskRepo.comments[0].AuthorID)
	}

	// Outsiders cannot comment
	req = withURLParams(authedRequest("POST", "/api/v1/tasks/task-1/comments", body, "mallory"), "id", "task-1")
	rec = httptest.NewRecorder()
	handler.AddComment(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("outsider status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestAttachments_UploadAndDownload(t *testing.T) {
	handler, projectRepo, taskRepo := newTestHandler(t)
	p := testProject("proj-1", "alice")
	projectRepo.projects = []*models.Project{p}
	taskRepo.tasks = []*models.Task{testTask("task-1", "proj-1", "", "alice")}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("meeting notes"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/tasks/task-1/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = req.WithContext(middleware.WithUser(req.Context(), "alice", "alice", models.RoleUser))
	req = withURLParams(req, "id", "task-1")
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp struct {
		Data *models.Attachment `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Filename != "notes.txt" {
		t.Errorf("filename = %q, want 'notes.txt'", resp.Data.Filename)
	}
	if resp.Data.Size != int64(len("meeting notes")) {
		t.Errorf("size = %d, want %d", resp.Data.Size, len("meeting notes"))
	}

	dlReq := withURLParams(
		authedRequest("GET", "/api/v1/tasks/task-1/attachments/"+resp.Data.ID, "", "alice"),
		"id", "task-1", "attachmentId", resp.Data.ID,
	)
	dlRec := httptest.NewRecorder()
	handler.Download(dlRec, dlReq)

	if dlRec.Code != http.StatusOK {
		t.Fatalf("download status = %d, want %d; body: %s", dlRec.Code, http.StatusOK, dlRec.Body.String())
	}
	if dlRec.Body.String() != "meeting notes" {
		t.Errorf("downloaded body = %q, want 'meeting notes'", dlRec.Body.String())
	}
}

func TestMine_AcrossProjects(t *testing.T) {
	handler, projectRepo, taskRepo := newTestHandler(t)
	projectRepo.projects = []*models.Project{testProject("proj-1", "alice"), testProject("proj-2", "carol")}
	taskRepo.tasks = []*models.Task{
		testTask("task-1", "proj-1", "bob", "alice"),
		testTask("task-2", "proj-2", "", "bob"),
		testTask("task-3", "proj-2", "carol", "carol"),
	}

	req := authedRequest("GET", "/api/v1/tasks/mine", "", "bob")
	rec := httptest.NewRecorder()
	handler.Mine(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Data []*models.Task `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("task count = %d, want 2", len(resp.Data))
	}
}
