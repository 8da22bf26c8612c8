package auth

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/foodcourt/api/internal/enum"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

var (
	ErrUsernameRequired  = errors.New("username is required")
	ErrNameRequired      = errors.New("name is required")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrPasswordTooShort  = errors.New("password must be at least 6 characters")
	ErrStudentIDRequired = errors.New("student_id is required for students")
	ErrInvalidRole       = errors.New("invalid role")
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword checks the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// SignupInput is the account data checked by ValidateSignup.
type SignupInput struct {
	Username  string
	Email     string
	Name      string
	Password  string
	Role      string
	StudentID string
}

// ValidateSignup checks a new account. An empty role means student.
func ValidateSignup(in SignupInput) error {
	if strings.TrimSpace(in.Username) == "" {
		return ErrUsernameRequired
	}
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if !ValidEmail(in.Email) {
		return ErrInvalidEmail
	}
	if err := ValidatePassword(in.Password); err != nil {
		return err
	}
	switch in.Role {
	case "", enum.UserRoleStudent:
		if strings.TrimSpace(in.StudentID) == "" {
			return ErrStudentIDRequired
		}
	case enum.UserRoleAdmin:
	default:
		return ErrInvalidRole
	}
	return nil
}

// IsValidationError reports whether err came from signup or password checks.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrUsernameRequired, ErrNameRequired, ErrInvalidEmail,
		ErrPasswordTooShort, ErrStudentIDRequired, ErrInvalidRole,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ValidEmail reports whether s is a bare address like user@host.tld.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}
