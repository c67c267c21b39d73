package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/event-market/event-market/internal/domain/apperr"
	domainUser "github.com/event-market/event-market/internal/domain/user"
)

var (
	ErrMissingToken       = fmt.Errorf("%w: missing token", apperr.ErrUnauthorized)
	ErrInvalidFormat      = fmt.Errorf("%w: token subject is not a valid user id", apperr.ErrUnauthorized)
	ErrTokenExpired       = fmt.Errorf("%w: token expired", apperr.ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	ErrUserNotFound       = fmt.Errorf("%w: user not found", apperr.ErrUnauthorized)
	ErrRoleNotFound       = fmt.Errorf("%w: role not found", apperr.ErrUnauthorized)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", apperr.ErrUnauthorized)
	ErrUserDisabled       = fmt.Errorf("%w: user is disabled", apperr.ErrUnauthorized)
)

// Claims is the only accepted token payload. The user id lives in sub.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity is an authenticated caller.
type Identity struct {
	UserID   uuid.UUID
	Username string
	RoleID   uuid.UUID
	RoleName string
}

// Service issues and verifies bearer tokens.
type Service struct {
	userRepo domainUser.Repository
	secret   []byte
	tokenTTL time.Duration
	logger   zerolog.Logger
}

// NewService creates an auth service.
func NewService(userRepo domainUser.Repository, secret string, tokenTTL time.Duration, logger zerolog.Logger) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		userRepo: userRepo,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger.With().Str("service", "auth").Logger(),
	}
}

// LoginResult contains login response.
type LoginResult struct {
	User      *domainUser.User
	Role      *domainUser.Role
	Token     string
	ExpiresAt time.Time
}

// Login verifies a password and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = domainUser.NormalizeUsername(username)
	u, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil || !domainUser.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive() {
		return nil, ErrUserDisabled
	}
	role, err := s.userRepo.GetRole(ctx, u.RoleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}

	token, expiresAt, err := s.Issue(u.UserID, role.Name, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.UserID.String()).Msg("user login")
	return &LoginResult{User: u, Role: role, Token: token, ExpiresAt: expiresAt}, nil
}

// Issue signs a token for userID valid from now for the configured TTL.
func (s *Service) Issue(userID uuid.UUID, roleName string, now time.Time) (string, time.Time, error) {
	return s.issue(userID.String(), roleName, now, s.tokenTTL)
}

func (s *Service) issue(subject, roleName string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := Claims{
		Role: roleName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse verifies signature and expiry and returns the user id in sub.
func (s *Service) Parse(token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrMissingToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return uuid.Nil, ErrTokenExpired
	case err != nil:
		return uuid.Nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidFormat
	}
	return userID, nil
}

// Authenticate resolves a token to the caller's identity and role.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	userID, err := s.Parse(token)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if !u.IsActive() {
		return nil, ErrUserDisabled
	}
	role, err := s.userRepo.GetRole(ctx, u.RoleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	return &Identity{
		UserID:   u.UserID,
		Username: u.Username,
		RoleID:   role.RoleID,
		RoleName: role.Name,
	}, nil
}
