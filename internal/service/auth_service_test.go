package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nafa-hr/attendance-api/internal/models"
	"github.com/nafa-hr/attendance-api/pkg/config"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
)

type mockAuthRepo struct {
	byEmail      map[string]*models.User
	byID         map[string]*models.User
	passwordHash string
	pinHash      string
}

func (m *mockAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) UpdatePassword(_ context.Context, _, hash string) error {
	m.passwordHash = hash
	return nil
}

func (m *mockAuthRepo) UpdatePin(_ context.Context, _, hash string) error {
	m.pinHash = hash
	return nil
}

func hashOf(t *testing.T, raw string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "attendance-api"}
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthRepo) {
	t.Helper()
	user := &models.User{
		ID:           "u1",
		Email:        "ada@nafa.test",
		FirstName:    "Ada",
		LastName:     "Diallo",
		Role:         models.RoleEmployee,
		PasswordHash: hashOf(t, "s3cret-pass"),
		PinHash:      hashOf(t, "1234"),
	}
	repo := &mockAuthRepo{
		byEmail: map[string]*models.User{user.Email: user},
		byID:    map[string]*models.User{user.ID: user},
	}
	return NewAuthService(repo, nil, zap.NewNop(), testJWTConfig()), repo
}

func TestLoginIssuesToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@nafa.test", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "u1", resp.User.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleEmployee, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@nafa.test", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@nafa.test", Password: "whatever"})
	require.Error(t, err)
	// Unknown email is indistinguishable from a wrong password.
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginWithPin(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.LoginWithPin(context.Background(), models.PinLoginRequest{Email: "ada@nafa.test", Pin: "1234"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = svc.LoginWithPin(context.Background(), models.PinLoginRequest{Email: "ada@nafa.test", Pin: "4321"})
	assert.Error(t, err)
}

func TestLoginWithPinNoneSet(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.byEmail["ada@nafa.test"].PinHash = ""

	_, err := svc.LoginWithPin(context.Background(), models.PinLoginRequest{Email: "ada@nafa.test", Pin: "1234"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsForgery(t *testing.T) {
	svc, _ := newAuthFixture(t)
	other := NewAuthService(&mockAuthRepo{}, nil, zap.NewNop(), config.JWTConfig{Secret: "another-secret", Expiration: time.Hour})

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@nafa.test", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = other.ValidateToken(resp.AccessToken)
	assert.Error(t, err)

	_, err = svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestUpdatePassword(t *testing.T) {
	svc, repo := newAuthFixture(t)

	err := svc.UpdatePassword(context.Background(), "u1", models.UpdatePasswordRequest{
		CurrentPassword: "s3cret-pass",
		NewPassword:     "new-password",
	})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwordHash), []byte("new-password")))

	err = svc.UpdatePassword(context.Background(), "u1", models.UpdatePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "new-password",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUpdatePinFirstAssignment(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.byID["u1"].PinHash = ""

	// With no PIN on file the current value is not required to match.
	err := svc.UpdatePin(context.Background(), "u1", models.UpdatePinRequest{CurrentPin: "0000", NewPin: "5678"})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.pinHash), []byte("5678")))
}
