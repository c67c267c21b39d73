package user

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/event-market/event-market/internal/domain/apperr"
)

// Well-known role names.
const (
	RoleUser      = "user"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
	RoleAgent     = "agent"
)

// BuiltinRoles lists the roles provisioned at startup.
var BuiltinRoles = []string{RoleUser, RoleOrganizer, RoleAdmin, RoleAgent}

// Type represents a user type.
type Type string

const (
	TypeHuman Type = "HUMAN"
	TypeAgent Type = "AGENT"
)

// Status represents user status.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusDisabled Status = "DISABLED"
)

var (
	ErrUserNotFound = fmt.Errorf("user %w", apperr.ErrNotFound)
	ErrRoleNotFound = fmt.Errorf("role %w", apperr.ErrNotFound)
	ErrUnknownRole  = fmt.Errorf("%w: unknown role", apperr.ErrValidation)
)

// Role is a named permission group. Pushes and role-addressed notifications
// match on either the id or the name.
type Role struct {
	ID        int64     `json:"id"`
	RoleID    uuid.UUID `json:"roleId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// User represents an account (human or service agent).
type User struct {
	ID           int64     `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	RoleID       uuid.UUID `json:"roleId"`
	Type         Type      `json:"type"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func NormalizeRoleName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]{2,30}[A-Za-z0-9]$`)

func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username must be 4-32 chars, start with a letter, and contain only letters, digits, '.', '_' or '-'")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hash string, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func ValidateType(t Type) error {
	switch t {
	case TypeHuman, TypeAgent:
		return nil
	default:
		return errors.New("invalid user type")
	}
}
