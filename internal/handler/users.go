package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/foodcourt/api/internal/auth"
	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/model"
	"github.com/go-chi/chi/v5"
)

// UserAdmin defines the account methods needed by admin user handlers.
// Satisfied by *service.UserService; narrow interface for testability.
type UserAdmin interface {
	List(ctx context.Context, role string) ([]model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Signup(ctx context.Context, in auth.SignupInput) (*model.User, error)
}

// UserHandler handles admin account endpoints.
type UserHandler struct {
	users UserAdmin
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users UserAdmin) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterRoutes registers user endpoints on the given Chi router.
// Expected to be mounted inside the admin subrouter: /admin/users
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
}

// List handles GET /admin/users?role=.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role != "" && !enum.ValidUserRole(role) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}

	users, err := h.users.List(r.Context(), role)
	if err != nil {
		writeServiceError(w, "list users", err)
		return
	}

	resp := make([]userResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /admin/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(*user))
}

// Create handles POST /admin/users. Unlike public signup, the role is
// required so admins can add other admins.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Role == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role is required"})
		return
	}

	user, err := h.users.Signup(r.Context(), auth.SignupInput{
		Username:  req.Username,
		Email:     req.Email,
		Name:      req.Name,
		Password:  req.Password,
		Role:      req.Role,
		StudentID: req.StudentID,
	})
	if err != nil {
		writeServiceError(w, "create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(*user))
}
