package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskforge-hq/taskforge/internal/metrics"
	"github.com/taskforge-hq/taskforge/internal/models"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{2,31}$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

const (
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeConflict         = "CONFLICT"
)

// RegisterRequest is the request body for self-service registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	LoginResponse
}

func jsonCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(dataResponse{Data: data}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// Register handles self-service account creation. New accounts always
// get the regular user role; admins are created through the CLI.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if !usernameRegex.MatchString(req.Username) {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed,
			"username must start with a letter and contain 3 to 32 letters, numbers, underscores, or hyphens")
		return
	}
	if !emailRegex.MatchString(req.Email) || len(req.Email) > 255 {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "invalid email format")
		return
	}
	if err := ValidatePasswordOrError(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, err.Error())
		return
	}

	ctx := r.Context()

	// Check username uniqueness
	existing, err := h.storage.Users().GetByUsername(ctx, req.Username)
	if err != nil {
		log.Printf("register error: check username: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, errCodeConflict, "username already exists")
		return
	}

	// Check email uniqueness
	existing, err = h.storage.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		log.Printf("register error: check email: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, errCodeConflict, "email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("register error: hash password: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	user := models.NewUser(req.Username, req.Email, models.RoleUser)
	user.ID = uuid.New().String()
	user.PasswordHash = string(hash)

	if err := h.storage.Users().Create(ctx, user); err != nil {
		log.Printf("register error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	// Sign the new user in immediately
	accessToken, err := h.jwtService.GenerateToken(user)
	if err != nil {
		log.Printf("register error: generate access token: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	refreshToken, err := h.tokenService.CreateRefreshToken(ctx, user.ID)
	if err != nil {
		log.Printf("register error: generate refresh token: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.AuthTokensIssued.WithLabelValues("access").Inc()
	metrics.AuthTokensIssued.WithLabelValues("refresh").Inc()
	log.Printf("user registered: %s (%s)", user.Username, user.ID)

	jsonCreated(w, &RegisterResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		LoginResponse: LoginResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    h.jwtService.TTLSeconds(),
			TokenType:    "Bearer",
		},
	})
}
