package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/stainespoir/parent-portal-api/internal/models"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
)

type mockAuthUserRepo struct {
	users    map[string]*models.User // keyed by email
	profiles map[string]*models.ParentProfile
	tokens   map[string]*models.RefreshToken
	revoked  []string
}

func (m *mockAuthUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.users[email]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			cp := *user
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) FindProfileByUserID(ctx context.Context, userID string) (*models.ParentProfile, error) {
	if profile, ok := m.profiles[userID]; ok {
		cp := *profile
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAuthUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.tokens == nil {
		m.tokens = make(map[string]*models.RefreshToken)
	}
	cp := *token
	m.tokens[token.Token] = &cp
	return nil
}

func (m *mockAuthUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := m.tokens[token]; ok {
		cp := *stored
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revoked = append(m.revoked, id)
	for _, stored := range m.tokens {
		if stored.ID == id {
			stored.Revoked = true
		}
	}
	return nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "parent-portal-api",
		Audience:           []string{"parent-portal"},
	}
}

func approvedParent(t *testing.T) (*models.User, *models.ParentProfile) {
	user := &models.User{
		ID:           "u1",
		Email:        "parent@example.com",
		PasswordHash: hashPassword(t, "s3cret"),
		Role:         models.RoleParent,
		Approved:     true,
		Active:       true,
	}
	profile := &models.ParentProfile{ID: "p1", UserID: "u1", FirstName: "Claire", LastName: "Dupont"}
	return user, profile
}

func TestAuthServiceLogin(t *testing.T) {
	user, profile := approvedParent(t)
	repo := &mockAuthUserRepo{
		users:    map[string]*models.User{user.Email: user},
		profiles: map[string]*models.ParentProfile{user.ID: profile},
	}
	service := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	resp, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "parent@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "p1", resp.User.ParentProfileID)

	claims, err := service.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleParent, claims.Role)
	assert.Equal(t, "p1", claims.ParentProfileID)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	user, profile := approvedParent(t)
	repo := &mockAuthUserRepo{
		users:    map[string]*models.User{user.Email: user},
		profiles: map[string]*models.ParentProfile{user.ID: profile},
	}
	service := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "parent@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	// Unknown accounts yield the same error as wrong passwords.
	_, err = service.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "s3cret",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginPendingParent(t *testing.T) {
	user, profile := approvedParent(t)
	user.Approved = false
	repo := &mockAuthUserRepo{
		users:    map[string]*models.User{user.Email: user},
		profiles: map[string]*models.ParentProfile{user.ID: profile},
	}
	service := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "parent@example.com",
		Password: "s3cret",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPendingAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginAdminHasNoProfile(t *testing.T) {
	admin := &models.User{
		ID:           "a1",
		Email:        "admin@example.com",
		PasswordHash: hashPassword(t, "s3cret"),
		Role:         models.RoleAdmin,
		Active:       true,
	}
	repo := &mockAuthUserRepo{users: map[string]*models.User{admin.Email: admin}}
	service := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	resp, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.User.ParentProfileID)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	user, profile := approvedParent(t)
	repo := &mockAuthUserRepo{
		users:    map[string]*models.User{user.Email: user},
		profiles: map[string]*models.ParentProfile{user.ID: profile},
	}
	service := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	login, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "parent@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)

	refreshed, err := service.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	require.Len(t, repo.revoked, 1)

	// The consumed token is revoked and cannot be replayed.
	_, err = service.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogout(t *testing.T) {
	user, profile := approvedParent(t)
	repo := &mockAuthUserRepo{
		users:    map[string]*models.User{user.Email: user},
		profiles: map[string]*models.ParentProfile{user.ID: profile},
	}
	service := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	login, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "parent@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)

	err = service.Logout(context.Background(), login.RefreshToken, "someone-else")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, service.Logout(context.Background(), login.RefreshToken, "u1"))
	assert.Len(t, repo.revoked, 1)
}

func TestAuthServiceValidateTokenRejectsForeignSignature(t *testing.T) {
	user, profile := approvedParent(t)
	repo := &mockAuthUserRepo{
		users:    map[string]*models.User{user.Email: user},
		profiles: map[string]*models.ParentProfile{user.ID: profile},
	}
	service := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	login, err := service.Login(context.Background(), models.LoginRequest{
		Email:    "parent@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)

	otherConfig := testAuthConfig()
	otherConfig.AccessTokenSecret = "other-secret"
	other := NewAuthService(repo, validator.New(), zap.NewNop(), otherConfig)

	_, err = other.ValidateToken(login.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
