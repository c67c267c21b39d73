package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for users and roles. Lookups return
// (nil, nil) when no record matches.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)

	CreateRole(ctx context.Context, role *Role) error
	GetRole(ctx context.Context, roleID uuid.UUID) (*Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
}
