package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskforge-hq/taskforge/internal/models"
	"github.com/taskforge-hq/taskforge/internal/storage"
)

// testServer creates a test server backed by a temp SQLite database.
func testServer(t *testing.T) (*Server, storage.Storage) {
	t.Helper()

	dir := t.TempDir()
	store := storage.NewSQLiteStorage(filepath.Join(dir, "test.db"))
	if err := store.Open(); err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate storage: %v", err)
	}

	cfg := &Config{
		Address:          ":0",
		JWTSecret:        []byte("test-jwt-secret-32-bytes-long!!!"),
		FileStoreDir:     filepath.Join(dir, "attachments"),
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  24 * time.Hour,
		RateLimitPerIP:   100,
		RateLimitPerUser: 100,
		LockoutThreshold: 5,
		LockoutDuration:  30 * time.Minute,
		Verbose:          false,
	}

	srv, err := New(cfg, store)
	if err != nil {
		t.Fatalf("create server: %v", err)
	}

	return srv, store
}

// createTestUser creates a user in the database for testing
func createTestUser(t *testing.T, store storage.Storage, username, password string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           "test-" + username,
		Username:     username,
		Email:        username + "@test.com",
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	return user
}

// handler returns the HTTP handler for the server
func handler(srv *Server) http.Handler {
	return srv.server.Handler
}

// login authenticates username via the API and returns the access token.
func login(t *testing.T, srv *Server, username, password string) string {
	t.Helper()

	body := `{"username":"` + username + `","password":"` + password + `"}`
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(srv).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d; body: %s", username, rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.Data.AccessToken
}

// doJSON runs an authenticated JSON request against the server.
func doJSON(t *testing.T, srv *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler(srv).ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	handler(srv).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	srv, _ := testServer(t)

	body := `{"username":"newuser","email":"newuser@test.com","password":"TestPassword123!"}`
	rec := doJSON(t, srv, "POST", "/api/v1/auth/register", "", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeData(t, rec, &resp)
	if resp.AccessToken == "" {
		t.Error("expected non-empty access_token")
	}
	if resp.RefreshToken == "" {
		t.Error("expected non-empty refresh_token")
	}

	// The new account can log in
	login(t, srv, "newuser", "TestPassword123!")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	srv, store := testServer(t)

	createTestUser(t, store, "taken", "TestPassword123!", models.RoleUser)

	body := `{"username":"taken","email":"other@test.com","password":"TestPassword123!"}`
	rec := doJSON(t, srv, "POST", "/api/v1/auth/register", "", body)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv, store := testServer(t)

	createTestUser(t, store, "testuser", "TestPassword123!", models.RoleUser)

	rec := doJSON(t, srv, "POST", "/api/v1/auth/login", "", `{"username":"testuser","password":"wrongpassword"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRefresh_Success(t *testing.T) {
	srv, store := testServer(t)

	createTestUser(t, store, "testuser", "TestPassword123!", models.RoleUser)

	loginRec := doJSON(t, srv, "POST", "/api/v1/auth/login", "", `{"username":"testuser","password":"TestPassword123!"}`)
	var loginResp struct {
		RefreshToken string `json:"refresh_token"`
	}
	decodeData(t, loginRec, &loginResp)

	rec := doJSON(t, srv, "POST", "/api/v1/auth/refresh", "", `{"refresh_token":"`+loginResp.RefreshToken+`"}`)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestProtectedEndpoint_NoToken(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv, "GET", "/api/v1/users/me", "", "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestUserDirectory_OpenToMembers(t *testing.T) {
	srv, store := testServer(t)

	createTestUser(t, store, "regular", "TestPassword123!", models.RoleUser)
	token := login(t, srv, "regular", "TestPassword123!")

	rec := doJSON(t, srv, "GET", "/api/v1/users", token, "")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestCreateUser_AdminOnly(t *testing.T) {
	srv, store := testServer(t)

	createTestUser(t, store, "regular", "TestPassword123!", models.RoleUser)
	createTestUser(t, store, "admin", "TestPassword123!", models.RoleAdmin)

	body := `{"username":"fresh","email":"fresh@test.com","password":"TestPassword123!","role":"user"}`

	userToken := login(t, srv, "regular", "TestPassword123!")
	rec := doJSON(t, srv, "POST", "/api/v1/users", userToken, body)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin create: status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	adminToken := login(t, srv, "admin", "TestPassword123!")
	rec = doJSON(t, srv, "POST", "/api/v1/users", adminToken, body)
	if rec.Code != http.StatusCreated {
		t.Errorf("admin create: status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
}

func TestLogout(t *testing.T) {
	srv, store := testServer(t)

	createTestUser(t, store, "testuser", "TestPassword123!", models.RoleUser)

	loginRec := doJSON(t, srv, "POST", "/api/v1/auth/login", "", `{"username":"testuser","password":"TestPassword123!"}`)
	var loginResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeData(t, loginRec, &loginResp)

	rec := doJSON(t, srv, "POST", "/api/v1/auth/logout", loginResp.AccessToken,
		`{"refresh_token":"`+loginResp.RefreshToken+`"}`)
	if rec.Code != http.StatusNoContent {
		t.Errorf("logout: status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	// Try to refresh with revoked token
	rec = doJSON(t, srv, "POST", "/api/v1/auth/refresh", "", `{"refresh_token":"`+loginResp.RefreshToken+`"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestProjectTaskFlow walks a project through its life: the owner
// creates it, adds a member, files a task for them, the member works
// the task, and the owner finally deletes the project with its tasks.
func TestProjectTaskFlow(t *testing.T) {
	srv, store := testServer(t)

	alice := createTestUser(t, store, "alice", "TestPassword123!", models.RoleUser)
	bob := createTestUser(t, store, "bob", "TestPassword123!", models.RoleUser)
	createTestUser(t, store, "carol", "TestPassword123!", models.RoleUser)

	aliceToken := login(t, srv, "alice", "TestPassword123!")
	bobToken := login(t, srv, "bob", "TestPassword123!")
	carolToken := login(t, srv, "carol", "TestPassword123!")

	// Alice creates a project and becomes its owner.
	rec := doJSON(t, srv, "POST", "/api/v1/projects", aliceToken,
		`{"name":"Website Redesign","description":"Q4 launch","end_date":"2026-12-31"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var project struct {
		ID      string `json:"id"`
		OwnerID string `json:"owner_id"`
		Status  string `json:"status"`
	}
	decodeData(t, rec, &project)
	if project.OwnerID != alice.ID {
		t.Errorf("owner_id = %q, want %q", project.OwnerID, alice.ID)
	}
	if project.Status != "planning" {
		t.Errorf("status = %q, want planning", project.Status)
	}

	// Bob is not yet a member and cannot see it.
	rec = doJSON(t, srv, "GET", "/api/v1/projects/"+project.ID, bobToken, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger view: status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	// Alice adds Bob as a member.
	rec = doJSON(t, srv, "POST", "/api/v1/projects/"+project.ID+"/members", aliceToken,
		`{"user_id":"`+bob.ID+`","role":"member"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("add member: status = %d; body: %s", rec.Code, rec.Body.String())
	}

	// Bob cannot add members himself.
	rec = doJSON(t, srv, "POST", "/api/v1/projects/"+project.ID+"/members", bobToken,
		`{"user_id":"test-carol","role":"member"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("member adds member: status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	// Alice files a task for Bob.
	rec = doJSON(t, srv, "POST", "/api/v1/projects/"+project.ID+"/tasks", aliceToken,
		`{"title":"Design homepage","assignee_id":"`+bob.ID+`","priority":"high"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var task struct {
		ID         string `json:"id"`
		ReporterID string `json:"reporter_id"`
	}
	decodeData(t, rec, &task)
	if task.ReporterID != alice.ID {
		t.Errorf("reporter_id = %q, want %q", task.ReporterID, alice.ID)
	}

	// Bob moves the task along.
	rec = doJSON(t, srv, "PATCH", "/api/v1/tasks/"+task.ID, bobToken,
		`{"status":"in_progress","actual_hours":2}`)
	if rec.Code != http.StatusOK {
		t.Errorf("assignee update: status = %d; body: %s", rec.Code, rec.Body.String())
	}

	// But he cannot retitle it.
	rec = doJSON(t, srv, "PATCH", "/api/v1/tasks/"+task.ID, bobToken, `{"title":"Different"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("assignee retitle: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	// Carol has no project role and cannot see the task.
	rec = doJSON(t, srv, "GET", "/api/v1/tasks/"+task.ID, carolToken, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("outsider task view: status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	// Stats are visible to members.
	rec = doJSON(t, srv, "GET", "/api/v1/projects/"+project.ID+"/stats", bobToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var projStats struct {
		TotalTasks int `json:"total_tasks"`
	}
	decodeData(t, rec, &projStats)
	if projStats.TotalTasks != 1 {
		t.Errorf("total_tasks = %d, want 1", projStats.TotalTasks)
	}

	// Only the owner may delete, and deletion takes the tasks with it.
	rec = doJSON(t, srv, "DELETE", "/api/v1/projects/"+project.ID, bobToken, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("member delete: status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = doJSON(t, srv, "DELETE", "/api/v1/projects/"+project.ID, aliceToken, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete: status = %d; body: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, "GET", "/api/v1/tasks/"+task.ID, aliceToken, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("task after cascade: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
