package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-video-backend/internal/model"
	"go-video-backend/internal/password"
	"go-video-backend/internal/repository"
	"go-video-backend/internal/token"
	"go-video-backend/pkg/apierror"
)

const testPassword = "correct horse battery staple"

func newTestHasher(t *testing.T) password.Hasher {
	t.Helper()

	h, err := password.NewBcrypt(4)
	require.NoError(t, err)
	return h
}

func newTestTokens(t *testing.T) *token.Manager {
	t.Helper()

	m, err := token.NewManager(token.Config{
		AccessSecret:  "access-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret-for-tests",
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)
	return m
}

func registerUser(t *testing.T, users *UserService, username string) model.UserView {
	t.Helper()

	view, err := users.Register(context.Background(), model.RegisterRequest{
		FullName: "Test " + username,
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	return view
}

func requireKind(t *testing.T, err error, code string) {
	t.Helper()

	require.Error(t, err)
	require.Equal(t, code, apierror.KindOf(err), "unexpected error: %v", err)
}

type authFixture struct {
	auth   *AuthService
	users  *UserService
	repo   *repository.MemoryUserRepository
	tokens *token.Manager
}

func newAuthFixture(t *testing.T, opts AuthOptions) authFixture {
	t.Helper()

	repo := repository.NewMemoryUserRepository()
	hasher := newTestHasher(t)
	tokens := newTestTokens(t)

	return authFixture{
		auth:   NewAuthService(repo, hasher, tokens, opts),
		users:  NewUserService(repo, hasher, nil, opts.Bus),
		repo:   repo,
		tokens: tokens,
	}
}

type mockCredentialStore struct {
	mock.Mock
}

func (m *mockCredentialStore) FindByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockCredentialStore) FindByUsernameOrEmail(ctx context.Context, username string, email string) (model.User, error) {
	args := m.Called(ctx, username, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockCredentialStore) UpdateRefreshToken(ctx context.Context, userID string, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

func (m *mockCredentialStore) CompareAndSwapRefreshToken(ctx context.Context, userID string, expected string, next string) (bool, error) {
	args := m.Called(ctx, userID, expected, next)
	return args.Bool(0), args.Error(1)
}

func (m *mockCredentialStore) UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error {
	return m.Called(ctx, userID, passwordHash).Error(0)
}
