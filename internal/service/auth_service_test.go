package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/machashop/students-ms/internal/models"
	"github.com/machashop/students-ms/pkg/config"
	appErrors "github.com/machashop/students-ms/pkg/errors"
)

type mockUserRepo struct {
	users      map[string]models.User
	lastLogins map[string]time.Time
	passwords  map[string]string
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if m.lastLogins == nil {
		m.lastLogins = make(map[string]time.Time)
	}
	m.lastLogins[id] = ts
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.passwords == nil {
		m.passwords = make(map[string]string)
	}
	m.passwords[id] = passwordHash
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mockUserRepo{users: map[string]models.User{
		"u-1": {
			ID: "u-1", Email: "admin@example.com", PasswordHash: string(hash),
			FullName: "Admin User", Role: models.RoleAdmin, Active: true,
		},
		"u-2": {
			ID: "u-2", Email: "locked@example.com", PasswordHash: string(hash),
			FullName: "Locked User", Role: models.RoleOperator, Active: false,
		},
	}}
	svc := NewAuthService(repo, config.JWTConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "students-ms",
	}, nil, nil)
	return svc, repo
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.com",
		Password: "secret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.Contains(t, repo.lastLogins, "u-1")

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "students-ms", claims.Issuer)
}

func TestLoginWrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err1 := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "wrong"})
	_, err2 := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	require.Error(t, err1)
	require.Error(t, err2)

	var appErr1, appErr2 *appErrors.Error
	require.True(t, errors.As(err1, &appErr1))
	require.True(t, errors.As(err2, &appErr2))
	assert.Equal(t, appErr1.Code, appErr2.Code)
	assert.Equal(t, appErr1.Message, appErr2.Message)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "locked@example.com", Password: "secret-pass"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newAuthFixture(t)
	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "secret-pass"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	require.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc, _ := newAuthFixture(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "secret-pass"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
}

func TestChangePassword(t *testing.T) {
	svc, repo := newAuthFixture(t)

	err := svc.ChangePassword(context.Background(), "u-1", models.ChangePasswordRequest{
		OldPassword: "secret-pass",
		NewPassword: "brand-new-pass",
	})
	require.NoError(t, err)
	require.Contains(t, repo.passwords, "u-1")
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwords["u-1"]), []byte("brand-new-pass")))

	err = svc.ChangePassword(context.Background(), "u-1", models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "brand-new-pass",
	})
	require.Error(t, err)

	err = svc.ChangePassword(context.Background(), "u-1", models.ChangePasswordRequest{
		OldPassword: "secret-pass",
		NewPassword: "short",
	})
	require.Error(t, err, "minimum length enforced")
}
