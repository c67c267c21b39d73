package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainUser "github.com/event-market/event-market/internal/domain/user"
	"github.com/event-market/event-market/internal/infrastructure/memory"
)

const testSecret = "test-secret"

func seedUser(t *testing.T, repo domainUser.Repository, username, password, roleName string) *domainUser.User {
	t.Helper()
	ctx := context.Background()
	role, err := repo.GetRoleByName(ctx, roleName)
	require.NoError(t, err)
	if role == nil {
		role = &domainUser.Role{RoleID: uuid.New(), Name: roleName, CreatedAt: time.Now().UTC()}
		require.NoError(t, repo.CreateRole(ctx, role))
	}
	hash, err := domainUser.HashPassword(password)
	require.NoError(t, err)
	u := &domainUser.User{
		UserID:       uuid.New(),
		Username:     username,
		PasswordHash: hash,
		RoleID:       role.RoleID,
		Type:         domainUser.TypeHuman,
		Status:       domainUser.StatusActive,
	}
	require.NoError(t, repo.Create(ctx, u))
	return u
}

func TestService_ParseFailures(t *testing.T) {
	svc := NewService(memory.NewStore().Users(), testSecret, time.Hour, zerolog.Nop())
	now := time.Now().UTC()

	expired, _, err := svc.issue(uuid.NewString(), "user", now.Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	badSubject, _, err := svc.issue("12345", "user", now, time.Hour)
	require.NoError(t, err)
	noSubject, _, err := svc.issue("", "user", now, time.Hour)
	require.NoError(t, err)
	otherSecret, _, err := NewService(nil, "other", time.Hour, zerolog.Nop()).Issue(uuid.New(), "user", now)
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: uuid.NewString()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing", "", ErrMissingToken},
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"expired", expired, ErrTokenExpired},
		{"non uuid subject", badSubject, ErrInvalidFormat},
		{"no subject", noSubject, ErrInvalidToken},
		{"wrong secret", otherSecret, ErrInvalidToken},
		{"alg none", unsigned, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Parse(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_IssueAndAuthenticate(t *testing.T) {
	repo := memory.NewStore().Users()
	svc := NewService(repo, testSecret, time.Hour, zerolog.Nop())
	ctx := context.Background()
	u := seedUser(t, repo, "alice", "Sup3r-secret!", domainUser.RoleUser)

	token, expiresAt, err := svc.Issue(u.UserID, domainUser.RoleUser, time.Now().UTC())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	id, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, id.UserID)
	assert.Equal(t, u.RoleID, id.RoleID)
	assert.Equal(t, domainUser.RoleUser, id.RoleName)

	t.Run("unknown user", func(t *testing.T) {
		token, _, err := svc.Issue(uuid.New(), "user", time.Now().UTC())
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("missing role", func(t *testing.T) {
		orphan := &domainUser.User{UserID: uuid.New(), Username: "orphan", RoleID: uuid.New(), Status: domainUser.StatusActive}
		require.NoError(t, repo.Create(ctx, orphan))
		token, _, err := svc.Issue(orphan.UserID, "", time.Now().UTC())
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, ErrRoleNotFound)
	})
}

func TestService_Login(t *testing.T) {
	repo := memory.NewStore().Users()
	svc := NewService(repo, testSecret, time.Hour, zerolog.Nop())
	ctx := context.Background()
	u := seedUser(t, repo, "organizer.one", "Sup3r-secret!", domainUser.RoleOrganizer)

	res, err := svc.Login(ctx, "  Organizer.One ", "Sup3r-secret!")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, res.User.UserID)
	assert.Equal(t, domainUser.RoleOrganizer, res.Role.Name)

	userID, err := svc.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, userID)

	_, err = svc.Login(ctx, "organizer.one", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "Sup3r-secret!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
