package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/farmlink/farmlink-admin/internal/identity"
	"github.com/farmlink/farmlink-admin/internal/scope"
	"github.com/farmlink/farmlink-admin/internal/shared"
)

type mockRepo struct {
	users map[string]*User

	updatedUserID string
	updatedHash   string
}

func newMockRepo(users ...*User) *mockRepo {
	m := &mockRepo{users: make(map[string]*User)}
	for _, u := range users {
		m.users[u.Email] = u
	}
	return m
}

func (m *mockRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	m.updatedUserID = userID
	m.updatedHash = passwordHash
	return nil
}

func (m *mockRepo) CreateSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (m *mockRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthenticateSuccess(t *testing.T) {
	repo := newMockRepo(&User{
		ID:           "u1",
		Email:        "admin@farmlink.test",
		Name:         "Admin",
		PasswordHash: hashOf(t, "correcthorse"),
		Role:         "admin",
		Regions:      []scope.Region{{Country: "USA", Region: "California"}},
		IsActive:     true,
	})
	svc := NewService(repo)

	ident, err := svc.Authenticate(context.Background(), "admin@farmlink.test", "correcthorse")
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.ID)
	assert.Equal(t, identity.RoleAdmin, ident.Role)
	assert.Len(t, ident.Regions, 1)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newMockRepo(&User{
		ID:           "u1",
		Email:        "admin@farmlink.test",
		PasswordHash: hashOf(t, "correcthorse"),
		Role:         "admin",
		IsActive:     true,
	})
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "admin@farmlink.test", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Authenticate(context.Background(), "ghost@farmlink.test", "whatever")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	repo := newMockRepo(&User{
		ID:           "u1",
		Email:        "admin@farmlink.test",
		PasswordHash: hashOf(t, "correcthorse"),
		Role:         "admin",
		IsActive:     false,
	})
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "admin@farmlink.test", "correcthorse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateRegularUserRefused(t *testing.T) {
	// Valid credentials, but the role grants no panel capabilities.
	repo := newMockRepo(&User{
		ID:           "u1",
		Email:        "buyer@farmlink.test",
		PasswordHash: hashOf(t, "correcthorse"),
		Role:         "user",
		IsActive:     true,
	})
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "buyer@farmlink.test", "correcthorse")
	assert.ErrorIs(t, err, shared.ErrNoDashboardAccess)
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	repo := newMockRepo(&User{
		ID:           "u1",
		Email:        "admin@farmlink.test",
		PasswordHash: hashOf(t, "oldpassword"),
		Role:         "admin",
		IsActive:     true,
	})
	svc := NewService(repo)
	ident := identity.Identity{ID: "u1", Email: "admin@farmlink.test", Role: identity.RoleAdmin}

	err := svc.ChangePassword(context.Background(), ident, "wrongcurrent", "newpassword")
	assert.True(t, errors.Is(err, ErrCurrentPasswordMismatch))
	assert.Empty(t, repo.updatedUserID)

	err = svc.ChangePassword(context.Background(), ident, "oldpassword", "newpassword")
	require.NoError(t, err)
	assert.Equal(t, "u1", repo.updatedUserID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.updatedHash), []byte("newpassword")))
}

func TestChangePasswordSuperAdminSkipsCurrent(t *testing.T) {
	repo := newMockRepo(&User{
		ID:           "root",
		Email:        "root@farmlink.test",
		PasswordHash: hashOf(t, "oldpassword"),
		Role:         "super_admin",
		IsActive:     true,
	})
	svc := NewService(repo)
	ident := identity.Identity{ID: "root", Email: "root@farmlink.test", Role: identity.RoleSuperAdmin}

	err := svc.ChangePassword(context.Background(), ident, "", "newpassword")
	require.NoError(t, err)
	assert.Equal(t, "root", repo.updatedUserID)
}

func TestChangePasswordTooShort(t *testing.T) {
	svc := NewService(newMockRepo())
	ident := identity.Identity{ID: "u1", Role: identity.RoleSuperAdmin}

	err := svc.ChangePassword(context.Background(), ident, "", "short")
	assert.Error(t, err)
}
