package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"go-video-backend/internal/model"
)

func seedUser(t *testing.T, repo *MemoryUserRepository, username string, email string) model.User {
	t.Helper()

	now := time.Now().UTC()
	u := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FullName:     "Test User",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	u.Username, u.Email = normalize(username), normalize(email)
	return u
}

func TestMemoryUserRepository_Lookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryUserRepository()
	alice := seedUser(t, repo, "Alice", "alice@example.com")

	t.Run("by username is case insensitive", func(t *testing.T) {
		u, err := repo.FindByUsernameOrEmail(ctx, "ALICE", "")
		require.NoError(t, err)
		require.Equal(t, alice.ID, u.ID)
	})

	t.Run("by email", func(t *testing.T) {
		u, err := repo.FindByUsernameOrEmail(ctx, "", " Alice@Example.com ")
		require.NoError(t, err)
		require.Equal(t, alice.ID, u.ID)
	})

	t.Run("empty identifiers never match", func(t *testing.T) {
		_, err := repo.FindByUsernameOrEmail(ctx, "", "")
		require.ErrorIs(t, err, model.ErrUserNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.NewString())
		require.ErrorIs(t, err, model.ErrUserNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		exists, err := repo.ExistsByUsernameOrEmail(ctx, "nobody", "alice@example.com")
		require.NoError(t, err)
		require.True(t, exists)

		exists, err = repo.ExistsByUsernameOrEmail(ctx, "nobody", "nobody@example.com")
		require.NoError(t, err)
		require.False(t, exists)
	})
}

func TestMemoryUserRepository_CreateRejectsDuplicates(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	seedUser(t, repo, "bob", "bob@example.com")

	err := repo.Create(context.Background(), model.User{ID: uuid.NewString(), Username: "BOB", Email: "other@example.com"})
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)

	err = repo.Create(context.Background(), model.User{ID: uuid.NewString(), Username: "other", Email: "bob@example.com"})
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)
}

func TestMemoryUserRepository_RefreshToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryUserRepository()
	u := seedUser(t, repo, "carol", "carol@example.com")

	require.NoError(t, repo.UpdateRefreshToken(ctx, u.ID, "first"))

	swapped, err := repo.CompareAndSwapRefreshToken(ctx, u.ID, "stale", "second")
	require.NoError(t, err)
	require.False(t, swapped)

	swapped, err = repo.CompareAndSwapRefreshToken(ctx, u.ID, "first", "second")
	require.NoError(t, err)
	require.True(t, swapped)

	stored, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "second", stored.RefreshToken)

	require.NoError(t, repo.UpdateRefreshToken(ctx, u.ID, ""))
	swapped, err = repo.CompareAndSwapRefreshToken(ctx, u.ID, "", "third")
	require.NoError(t, err)
	require.False(t, swapped, "a cleared token can never be swapped")

	require.ErrorIs(t, repo.UpdateRefreshToken(ctx, uuid.NewString(), "x"), model.ErrUserNotFound)
}

func TestMemoryUserRepository_ConcurrentSwapHasOneWinner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryUserRepository()
	u := seedUser(t, repo, "dave", "dave@example.com")
	require.NoError(t, repo.UpdateRefreshToken(ctx, u.ID, "shared"))

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.CompareAndSwapRefreshToken(ctx, u.ID, "shared", uuid.NewString())
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
}

func TestMemoryUserRepository_AccountUpdates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryUserRepository()
	erin := seedUser(t, repo, "erin", "erin@example.com")
	seedUser(t, repo, "frank", "frank@example.com")

	updated, err := repo.UpdateAccountDetails(ctx, erin.ID, "Erin E.", "ERIN2@example.com")
	require.NoError(t, err)
	require.Equal(t, "Erin E.", updated.FullName)
	require.Equal(t, "erin2@example.com", updated.Email)

	_, err = repo.UpdateAccountDetails(ctx, erin.ID, "Erin", "frank@example.com")
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)

	updated, err = repo.UpdateAvatar(ctx, erin.ID, "https://cdn.example.com/a.png")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/a.png", updated.Avatar)

	updated, err = repo.UpdateCoverImage(ctx, erin.ID, "https://cdn.example.com/c.png")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/c.png", updated.CoverImage)

	require.NoError(t, repo.UpdatePasswordHash(ctx, erin.ID, "new-hash"))
	stored, err := repo.FindByID(ctx, erin.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", stored.PasswordHash)

	_, err = repo.UpdateAvatar(ctx, uuid.NewString(), "x")
	require.ErrorIs(t, err, model.ErrUserNotFound)
}
