package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/event-market/event-market/internal/domain/apperr"
	domain "github.com/event-market/event-market/internal/domain/user"
)

// Service handles user management.
type Service struct {
	repo   domain.Repository
	logger zerolog.Logger
}

// NewService creates a user service.
func NewService(repo domain.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("service", "user").Logger(),
	}
}

// CreateInput defines user creation input.
type CreateInput struct {
	Username string
	Password string
	RoleName string
	Type     domain.Type
}

func (s *Service) CreateUser(ctx context.Context, input CreateInput) (*domain.User, error) {
	username := domain.NormalizeUsername(input.Username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if input.Type == "" {
		input.Type = domain.TypeHuman
	}
	if err := domain.ValidateType(input.Type); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	role, err := s.lookupRole(ctx, input.RoleName)
	if err != nil {
		return nil, err
	}
	hash, err := domain.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:       uuid.New(),
		Username:     username,
		PasswordHash: hash,
		RoleID:       role.RoleID,
		Type:         input.Type,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.UserID.String()).Str("username", u.Username).Str("role", role.Name).Msg("user created")
	return u, nil
}

// ProvisionRoles creates any missing built-in role. Request paths only look
// roles up, so this must run before the server accepts traffic.
func (s *Service) ProvisionRoles(ctx context.Context) error {
	for _, name := range domain.BuiltinRoles {
		if _, err := s.ensureRole(ctx, name); err != nil {
			return fmt.Errorf("provision role %s: %w", name, err)
		}
	}
	return nil
}

func (s *Service) lookupRole(ctx context.Context, name string) (*domain.Role, error) {
	name = domain.NormalizeRoleName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", apperr.ErrValidation)
	}
	role, err := s.repo.GetRoleByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domain.ErrUnknownRole
	}
	return role, nil
}

func (s *Service) ensureRole(ctx context.Context, name string) (*domain.Role, error) {
	role, err := s.lookupRole(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, domain.ErrUnknownRole) {
		return nil, err
	}
	role = &domain.Role{RoleID: uuid.New(), Name: domain.NormalizeRoleName(name), CreatedAt: time.Now().UTC()}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	s.logger.Info().Str("role", role.Name).Msg("role created")
	return role, nil
}

// EnsureServiceAgent provisions the service account that advisory output is
// attributed to. It runs once at startup so request paths never create it.
func (s *Service) EnsureServiceAgent(ctx context.Context, username string) (*domain.User, error) {
	username = domain.NormalizeUsername(username)
	existing, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	if _, err := s.ensureRole(ctx, domain.RoleAgent); err != nil {
		return nil, err
	}
	secret, err := randomSecret()
	if err != nil {
		return nil, err
	}
	return s.CreateUser(ctx, CreateInput{
		Username: username,
		Password: secret,
		RoleName: domain.RoleAgent,
		Type:     domain.TypeAgent,
	})
}

func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
