package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/foodcourt/api/internal/app"
	"github.com/foodcourt/api/internal/auth"
	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/middleware"
	"github.com/foodcourt/api/internal/model"
	"github.com/foodcourt/api/internal/records"
	"github.com/foodcourt/api/internal/service"
	"github.com/go-chi/chi/v5"
)

// UserServicer defines the account methods needed by auth handlers.
// Satisfied by *service.UserService; narrow interface for testability.
type UserServicer interface {
	Signup(ctx context.Context, in auth.SignupInput) (*model.User, error)
	Authenticate(ctx context.Context, username, password, role string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	ResetPassword(ctx context.Context, username, email string) (string, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	users     UserServicer
	shop      Dispatcher
	jwtSecret string
}

// NewAuthHandler creates a new AuthHandler. shop is used to end the caller's
// session on logout.
func NewAuthHandler(users UserServicer, shop Dispatcher, jwtSecret string) *AuthHandler {
	return &AuthHandler{users: users, shop: shop, jwtSecret: jwtSecret}
}

// RegisterRoutes registers the public auth endpoints on the given Chi router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.Signup)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/reset-password", h.ResetPassword)
}

// RegisterAuthenticatedRoutes registers endpoints that need a valid token.
func (h *AuthHandler) RegisterAuthenticatedRoutes(r chi.Router) {
	r.Post("/auth/logout", h.Logout)
	r.Post("/auth/change-password", h.ChangePassword)
	r.Get("/me", h.Me)
}

// --- Request / Response types ---

type signupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	StudentID string `json:"student_id"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type resetPasswordRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

// --- Handlers ---

// Signup handles POST /auth/signup. Only student accounts can sign up;
// admins are seeded or created under /admin/users.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Role != "" && req.Role != enum.UserRoleStudent && enum.ValidUserRole(req.Role) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "only student accounts can sign up"})
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
		writeServiceError(w, "signup", err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(*user))
}

// Login handles username + password authentication.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and password are required"})
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}
		writeServiceError(w, "login", err)
		return
	}

	h.respondWithTokens(w, *user)
}

// Refresh exchanges a valid refresh token for a new access + refresh token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "refresh_token is required"})
		return
	}

	userID, err := auth.ValidateRefreshToken(h.jwtSecret, req.RefreshToken)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "user not found"})
			return
		}
		writeServiceError(w, "refresh", err)
		return
	}

	h.respondWithTokens(w, *user)
}

// ResetPassword handles POST /auth/reset-password. The temporary password is
// returned in the response since no mail channel exists.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Username == "" || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and email are required"})
		return
	}

	temp, err := h.users.ResetPassword(r.Context(), req.Username, req.Email)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeServiceError(w, "reset password", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"temporary_password": temp})
}

// ChangePassword handles POST /auth/change-password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	err := h.users.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeServiceError(w, "change password", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Logout handles POST /auth/logout: it clears the caller's cart and session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	s, err := h.shop.Session(r.Context(), userFromClaims(claims))
	if err != nil {
		writeServiceError(w, "logout", err)
		return
	}
	if _, err := h.shop.Dispatch(r.Context(), s, app.Logout{}); err != nil {
		writeServiceError(w, "logout", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	user, err := h.users.Get(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, "get current user", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(*user))
}

// --- Helpers ---

func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, user model.User) {
	accessToken, err := auth.GenerateToken(h.jwtSecret, user.ID, user.Name, user.Role)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	refreshToken, err := auth.GenerateRefreshToken(h.jwtSecret, user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         toUserResponse(user),
	})
}

// userFromClaims rebuilds the session user carried by an access token.
func userFromClaims(c *auth.Claims) model.User {
	return model.User{ID: c.UserID, Name: c.Name, Role: c.Role}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}
