package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/event-market/event-market/internal/domain/apperr"
	"github.com/event-market/event-market/internal/domain/user"
)

// UserRepository implements user.Repository.
type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Username == u.Username {
			return fmt.Errorf("%w: username %q is taken", apperr.ErrConflict, u.Username)
		}
	}
	u.ID = r.s.nextID()
	c := *u
	r.s.users[u.UserID] = &c
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, userID uuid.UUID) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) CreateRole(_ context.Context, role *user.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			return fmt.Errorf("%w: role %q exists", apperr.ErrConflict, role.Name)
		}
	}
	role.ID = r.s.nextID()
	c := *role
	r.s.roles[role.RoleID] = &c
	return nil
}

func (r *UserRepository) GetRole(_ context.Context, roleID uuid.UUID) (*user.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[roleID]
	if !ok {
		return nil, nil
	}
	c := *role
	return &c, nil
}

func (r *UserRepository) GetRoleByName(_ context.Context, name string) (*user.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, role := range r.s.roles {
		if role.Name == name {
			c := *role
			return &c, nil
		}
	}
	return nil, nil
}
