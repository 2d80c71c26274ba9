package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/scolaris/scolaris-api/internal/models"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

type mockAuthRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	revoked       []string
	lastLogin     *time.Time
	auditLogs     []*models.AuditLog
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:         map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
	}
}

func (m *mockAuthRepo) addUser(user *models.User) {
	m.users[user.ID] = user
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogin = &ts
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revoked = append(m.revoked, id)
	for _, t := range m.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, t := range m.refreshTokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		Secret:        "test-secret",
		Expiry:        15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "scolaris-api",
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(&models.User{
		ID:           "user-1",
		Email:        "admin@school.test",
		PasswordHash: hashPassword(t, "secret123"),
		FullName:     "Admin User",
		Role:         models.RoleAdmin,
		Active:       true,
	})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.test",
		Password: "secret123",
		IP:       "10.0.0.1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.EqualValues(t, (15 * time.Minute).Seconds(), resp.ExpiresIn)

	// Refresh token persisted and login recorded.
	stored, ok := repo.refreshTokens[resp.RefreshToken]
	require.True(t, ok)
	assert.Equal(t, "user-1", stored.UserID)
	assert.Equal(t, "10.0.0.1", stored.IPAddress)
	require.NotNil(t, repo.lastLogin)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)

	// Issued access token round-trips through ValidateToken.
	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "scolaris-api", claims.Issuer)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(&models.User{
		ID:           "user-1",
		Email:        "admin@school.test",
		PasswordHash: hashPassword(t, "secret123"),
		Active:       true,
	})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.test",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.refreshTokens)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newMockAuthRepo(), nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@school.test",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(&models.User{
		ID:           "user-1",
		Email:        "left@school.test",
		PasswordHash: hashPassword(t, "secret123"),
		Active:       false,
	})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "left@school.test",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshTokenRotation(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(&models.User{ID: "user-1", Email: "admin@school.test", Role: models.RoleAdmin, Active: true})
	repo.refreshTokens["old-token"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "old-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	assert.NotEqual(t, "old-token", resp.RefreshToken)

	// The consumed token is revoked and the rotated one persisted.
	assert.True(t, repo.refreshTokens["old-token"].Revoked)
	assert.Contains(t, repo.revoked, "rt-1")
	_, ok := repo.refreshTokens[resp.RefreshToken]
	assert.True(t, ok)
}

func TestAuthServiceRefreshTokenExpired(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(&models.User{ID: "user-1", Active: true})
	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshTokenRevoked(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(&models.User{ID: "user-1", Active: true})
	repo.refreshTokens["revoked"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "revoked",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		Revoked:   true,
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "revoked"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogout(t *testing.T) {
	repo := newMockAuthRepo()
	repo.refreshTokens["tok"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "tok",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	require.NoError(t, svc.Logout(context.Background(), "tok", "user-1"))
	assert.True(t, repo.refreshTokens["tok"].Revoked)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogout, repo.auditLogs[0].Action)
}

func TestAuthServiceLogoutWrongOwner(t *testing.T) {
	repo := newMockAuthRepo()
	repo.refreshTokens["tok"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "tok",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.Logout(context.Background(), "tok", "someone-else")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.refreshTokens["tok"].Revoked)
}

func TestAuthServiceValidateTokenRejectsTampered(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(&models.User{
		ID:           "user-1",
		Email:        "admin@school.test",
		PasswordHash: hashPassword(t, "secret123"),
		Role:         models.RoleAdmin,
		Active:       true,
	})
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@school.test",
		Password: "secret123",
	})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{Secret: "different-secret", Expiry: time.Minute, Issuer: "scolaris-api"})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
