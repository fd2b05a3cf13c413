package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmasia/internal/domain"
	"bmasia/internal/util"
	apperrors "bmasia/pkg/errors"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAuth(t *testing.T) (*AuthService, *fakeUsers) {
	t.Helper()
	hash, err := util.HashPassword("s3cret-pass")
	require.NoError(t, err)

	users := &fakeUsers{users: map[string]*domain.User{
		"staff":    {ID: 1, Username: "staff", HashedPassword: hash, IsActive: true, IsStaff: true},
		"admin":    {ID: 2, Username: "admin", HashedPassword: hash, IsActive: true, IsAdmin: true},
		"intern":   {ID: 3, Username: "intern", HashedPassword: hash, IsActive: true},
		"departed": {ID: 4, Username: "departed", HashedPassword: hash, IsActive: false, IsStaff: true},
	}}
	return NewAuthService(users, util.NewTokenIssuer(testSecret, 30*time.Minute)), users
}

func TestLoginIssuesBearerToken(t *testing.T) {
	svc, users := newTestAuth(t)

	res, err := svc.Login(context.Background(), " staff ", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.TokenType)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, 1, users.logins)
	assert.NotNil(t, users.users["staff"].LastLogin)

	user, err := svc.Authenticate(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "staff", user.Username)
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "staff", "wrong")
	requireServiceError(t, err, ErrTypeUnauthorized, "Incorrect username or password")

	_, err = svc.Login(ctx, "nobody", "s3cret-pass")
	requireServiceError(t, err, ErrTypeUnauthorized, "Incorrect username or password")

	_, err = svc.Login(ctx, "departed", "s3cret-pass")
	requireServiceError(t, err, ErrTypeUnauthorized, "User account is inactive")

	_, err = svc.Login(ctx, "", "")
	requireServiceError(t, err, ErrTypeBadRequest, "Username and password are required")
}

func TestLoginStoreUnavailable(t *testing.T) {
	svc, users := newTestAuth(t)
	users.err = apperrors.Wrap(apperrors.ErrCodeUnavailable, "find_user: database unavailable", errBoom)

	_, err := svc.Login(context.Background(), "staff", "s3cret-pass")
	requireServiceError(t, err, ErrTypeUnavailable, "Database connection error. Please try again later.")
}

func TestAuthenticateRequiresReviewer(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()

	admin, err := svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, admin.AccessToken)
	require.NoError(t, err)

	intern, err := svc.Login(ctx, "intern", "s3cret-pass")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, intern.AccessToken)
	requireServiceError(t, err, ErrTypeUnauthorized, "Insufficient permissions")

	_, err = svc.Authenticate(ctx, "not-a-token")
	requireServiceError(t, err, ErrTypeUnauthorized, "Invalid or expired token")
}

func TestAuthenticateRejectsOtherSecret(t *testing.T) {
	svc, users := newTestAuth(t)
	other := util.NewTokenIssuer("ffffffffffffffffffffffffffffffff", time.Minute)

	token, err := other.GenerateToken(users.users["staff"])
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	requireServiceError(t, err, ErrTypeUnauthorized, "Invalid or expired token")
}

func TestUserContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := ContextWithUser(context.Background(), &domain.User{Username: "staff"})
	user, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "staff", user.Username)
}
