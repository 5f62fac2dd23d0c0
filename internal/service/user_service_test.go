package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"go-video-backend/internal/model"
	"go-video-backend/internal/repository"
	"go-video-backend/pkg/apierror"
)

type fakeUploader struct {
	keys []string
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, key string, _ string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://cdn.example.com/" + key, nil
}

func TestUserService_RegisterWithImages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	png := model.UploadedFile{Filename: "a.png", ContentType: "image/png", Data: []byte("png")}
	base := model.RegisterRequest{FullName: "Grace Hopper", Username: "grace", Email: "grace@example.com", Password: testPassword}

	t.Run("uploads are stored on the new user", func(t *testing.T) {
		repo := repository.NewMemoryUserRepository()
		up := &fakeUploader{}
		users := NewUserService(repo, newTestHasher(t), up, nil)

		req := base
		avatar, cover := png, png
		req.Avatar, req.CoverImage = &avatar, &cover

		view, err := users.Register(ctx, req)
		require.NoError(t, err)
		require.Len(t, up.keys, 2)
		require.True(t, strings.HasPrefix(up.keys[0], "avatars/"+view.ID+"/"))
		require.True(t, strings.HasPrefix(up.keys[1], "covers/"+view.ID+"/"))
		require.Equal(t, "https://cdn.example.com/"+up.keys[0], view.Avatar)

		stored, err := repo.FindByID(ctx, view.ID)
		require.NoError(t, err)
		require.Equal(t, view.CoverImage, stored.CoverImage)
	})

	t.Run("cover image is optional", func(t *testing.T) {
		users := NewUserService(repository.NewMemoryUserRepository(), newTestHasher(t), &fakeUploader{}, nil)

		req := base
		avatar := png
		req.Avatar = &avatar

		view, err := users.Register(ctx, req)
		require.NoError(t, err)
		require.NotEmpty(t, view.Avatar)
		require.Empty(t, view.CoverImage)
	})

	t.Run("failed upload creates no user", func(t *testing.T) {
		repo := repository.NewMemoryUserRepository()
		users := NewUserService(repo, newTestHasher(t), &fakeUploader{err: errors.New("bucket gone")}, nil)

		req := base
		avatar := png
		req.Avatar = &avatar

		_, err := users.Register(ctx, req)
		requireKind(t, err, apierror.CodeInternal)

		_, err = repo.FindByUsernameOrEmail(ctx, "grace", "")
		require.ErrorIs(t, err, model.ErrUserNotFound)
	})

	t.Run("unsupported avatar type is rejected", func(t *testing.T) {
		users := NewUserService(repository.NewMemoryUserRepository(), newTestHasher(t), &fakeUploader{}, nil)

		req := base
		req.Avatar = &model.UploadedFile{Filename: "a.txt", ContentType: "text/plain", Data: []byte("hi")}

		_, err := users.Register(ctx, req)
		requireKind(t, err, apierror.CodeValidation)
	})
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewMemoryUserRepository()
	users := NewUserService(repo, newTestHasher(t), nil, nil)

	view, err := users.Register(ctx, model.RegisterRequest{
		FullName: " Ada Lovelace ",
		Username: "Ada",
		Email:    "ADA@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, "ada", view.Username)
	require.Equal(t, "ada@example.com", view.Email)
	require.Equal(t, "Ada Lovelace", view.FullName)

	stored, err := repo.FindByID(ctx, view.ID)
	require.NoError(t, err)
	require.NotEqual(t, testPassword, stored.PasswordHash)

	cases := []struct {
		name string
		req  model.RegisterRequest
		code string
	}{
		{"duplicate username", model.RegisterRequest{FullName: "A", Username: "ADA", Email: "other@example.com", Password: "p"}, apierror.CodeConflict},
		{"duplicate email", model.RegisterRequest{FullName: "A", Username: "other", Email: "ada@example.com", Password: "p"}, apierror.CodeConflict},
		{"missing full name", model.RegisterRequest{Username: "x", Email: "x@example.com", Password: "p"}, apierror.CodeValidation},
		{"blank username", model.RegisterRequest{FullName: "X", Username: "  ", Email: "x@example.com", Password: "p"}, apierror.CodeValidation},
		{"missing password", model.RegisterRequest{FullName: "X", Username: "x", Email: "x@example.com"}, apierror.CodeValidation},
		{"invalid email", model.RegisterRequest{FullName: "X", Username: "x", Email: "not-an-email", Password: "p"}, apierror.CodeValidation},
		{"password too long", model.RegisterRequest{FullName: "X", Username: "x", Email: "x@example.com", Password: strings.Repeat("p", 80)}, apierror.CodeValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := users.Register(ctx, tc.req)
			requireKind(t, err, tc.code)
		})
	}
}

func TestUserService_AccountDetails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := NewUserService(repository.NewMemoryUserRepository(), newTestHasher(t), nil, nil)
	pat := registerUser(t, users, "pat")
	registerUser(t, users, "quinn")

	current, err := users.GetCurrentUser(ctx, pat.ID)
	require.NoError(t, err)
	require.Equal(t, pat, current)

	_, err = users.GetCurrentUser(ctx, "missing")
	requireKind(t, err, apierror.CodeNotFound)

	updated, err := users.UpdateAccountDetails(ctx, pat.ID, model.UpdateAccountRequest{FullName: "Pat P.", Email: "pat.p@example.com"})
	require.NoError(t, err)
	require.Equal(t, "Pat P.", updated.FullName)
	require.Equal(t, "pat.p@example.com", updated.Email)

	_, err = users.UpdateAccountDetails(ctx, pat.ID, model.UpdateAccountRequest{FullName: "Pat", Email: "quinn@example.com"})
	requireKind(t, err, apierror.CodeConflict)

	_, err = users.UpdateAccountDetails(ctx, pat.ID, model.UpdateAccountRequest{FullName: "", Email: "pat@example.com"})
	requireKind(t, err, apierror.CodeValidation)

	_, err = users.UpdateAccountDetails(ctx, "missing", model.UpdateAccountRequest{FullName: "X", Email: "x@example.com"})
	requireKind(t, err, apierror.CodeNotFound)
}

func TestUserService_Images(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	png := model.UploadedFile{Filename: "me.png", ContentType: "image/png", Data: []byte("png-bytes")}

	t.Run("uploads disabled", func(t *testing.T) {
		users := NewUserService(repository.NewMemoryUserRepository(), newTestHasher(t), nil, nil)
		rae := registerUser(t, users, "rae")

		_, err := users.UpdateAvatar(ctx, rae.ID, png)
		requireKind(t, err, apierror.CodeValidation)
	})

	t.Run("avatar and cover stored", func(t *testing.T) {
		uploader := &fakeUploader{}
		users := NewUserService(repository.NewMemoryUserRepository(), newTestHasher(t), uploader, nil)
		sam := registerUser(t, users, "sam")

		view, err := users.UpdateAvatar(ctx, sam.ID, png)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(view.Avatar, "https://cdn.example.com/avatars/"+sam.ID+"/"))

		view, err = users.UpdateCoverImage(ctx, sam.ID, png)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(view.CoverImage, "https://cdn.example.com/covers/"+sam.ID+"/"))
		require.Len(t, uploader.keys, 2)
	})

	t.Run("rejects non images", func(t *testing.T) {
		users := NewUserService(repository.NewMemoryUserRepository(), newTestHasher(t), &fakeUploader{}, nil)
		tom := registerUser(t, users, "tom")

		_, err := users.UpdateAvatar(ctx, tom.ID, model.UploadedFile{Filename: "a.txt", ContentType: "text/plain", Data: []byte("hi")})
		requireKind(t, err, apierror.CodeValidation)
	})

	t.Run("upload failure is internal", func(t *testing.T) {
		users := NewUserService(repository.NewMemoryUserRepository(), newTestHasher(t), &fakeUploader{err: errors.New("bucket gone")}, nil)
		uma := registerUser(t, users, "uma")

		_, err := users.UpdateCoverImage(ctx, uma.ID, png)
		requireKind(t, err, apierror.CodeInternal)
	})
}
