package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/event-market/event-market/internal/domain/user"
)

// UserRepository implements user.Repository.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, user_id, username, password_hash, role_id, user_type, status, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users
		(user_id, username, password_hash, role_id, user_type, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, u.UserID, u.Username, u.PasswordHash, u.RoleID, u.Type, u.Status, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	return translate(err, "username "+u.Username)
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id=$1`, userID)
	return scanUser(row)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
	return scanUser(row)
}

func (r *UserRepository) CreateRole(ctx context.Context, role *user.Role) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO roles (role_id, name, created_at)
		VALUES ($1,$2,$3)
		RETURNING id
	`, role.RoleID, role.Name, role.CreatedAt).Scan(&role.ID)
	return translate(err, "role "+role.Name)
}

func (r *UserRepository) GetRole(ctx context.Context, roleID uuid.UUID) (*user.Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, role_id, name, created_at FROM roles WHERE role_id=$1`, roleID)
	return scanRole(row)
}

func (r *UserRepository) GetRoleByName(ctx context.Context, name string) (*user.Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, role_id, name, created_at FROM roles WHERE name=$1`, name)
	return scanRole(row)
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.UserID, &u.Username, &u.PasswordHash, &u.RoleID, &u.Type, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func scanRole(row pgx.Row) (*user.Role, error) {
	var role user.Role
	if err := row.Scan(&role.ID, &role.RoleID, &role.Name, &role.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}
