package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/foodcourt/api/internal/auth"
	"github.com/foodcourt/api/internal/enum"
	"github.com/foodcourt/api/internal/model"
	"github.com/google/uuid"
)

// Account errors.
var (
	ErrUserExists         = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid username, password, or role")
	ErrUserNotFound       = errors.New("user not found with provided username and email")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// tempPasswordLength is the length of passwords issued by ResetPassword.
const tempPasswordLength = 8

// UserStore is the part of the users table the service uses.
// Satisfied by *records.Table[model.User]; narrow interface for testability.
type UserStore interface {
	All(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id string) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	Patch(ctx context.Context, id string, fields map[string]any) (model.User, error)
}

// UserService manages accounts and credentials.
type UserService struct {
	store UserStore
	now   func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore) *UserService {
	return &UserService{store: store, now: time.Now}
}

// Signup validates and creates an account. Students must carry a student id;
// other roles never store one.
func (s *UserService) Signup(ctx context.Context, in auth.SignupInput) (*model.User, error) {
	if in.Role == "" {
		in.Role = enum.UserRoleStudent
	}
	if err := auth.ValidateSignup(in); err != nil {
		return nil, err
	}

	users, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if u.Username == in.Username || strings.EqualFold(u.Email, in.Email) {
			return nil, ErrUserExists
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	studentID := ""
	if in.Role == enum.UserRoleStudent {
		studentID = in.StudentID
	}
	created, err := s.store.Create(ctx, model.User{
		ID:        uuid.NewString(),
		Username:  in.Username,
		Email:     in.Email,
		Name:      in.Name,
		Password:  hash,
		Role:      in.Role,
		StudentID: studentID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &created, nil
}

// Authenticate checks username and password. A non-empty role must match the
// account's role.
func (s *UserService) Authenticate(ctx context.Context, username, password, role string) (*model.User, error) {
	u, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil || !auth.CheckPassword(u.Password, password) || (role != "" && u.Role != role) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Get fetches an account by id.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns accounts ordered by username, optionally limited to one role.
func (s *UserService) List(ctx context.Context, role string) ([]model.User, error) {
	users, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// ResetPassword replaces the password of the account matching username and
// email with a random temporary one and returns it.
func (s *UserService) ResetPassword(ctx context.Context, username, email string) (string, error) {
	u, err := s.findByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if u == nil || !strings.EqualFold(u.Email, email) {
		return "", ErrUserNotFound
	}

	temp := strings.ReplaceAll(uuid.NewString(), "-", "")[:tempPasswordLength]
	hash, err := auth.HashPassword(temp)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.store.Patch(ctx, u.ID, map[string]any{"password": hash}); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}
	return temp, nil
}

// ChangePassword verifies the current password and stores the new one.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.Password, current) {
		return ErrWrongPassword
	}
	if err := auth.ValidatePassword(next); err != nil {
		return err
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.store.Patch(ctx, userID, map[string]any{"password": hash}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// EnsureAdmin creates an admin account with username and password unless the
// username is taken. It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	existing, err := s.findByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	_, err = s.Signup(ctx, auth.SignupInput{
		Username: username,
		Email:    email,
		Name:     "Administrator",
		Password: password,
		Role:     enum.UserRoleAdmin,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *UserService) findByUsername(ctx context.Context, username string) (*model.User, error) {
	users, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, nil
}
