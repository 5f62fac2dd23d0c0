package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-video-backend/internal/event"
	"go-video-backend/internal/media"
	"go-video-backend/internal/model"
	"go-video-backend/internal/password"
	"go-video-backend/pkg/apierror"
)

const (
	mediaKindAvatar = "avatars"
	mediaKindCover  = "covers"
)

type UserStore interface {
	CredentialStore
	Create(ctx context.Context, u model.User) error
	ExistsByUsernameOrEmail(ctx context.Context, username string, email string) (bool, error)
	UpdateAccountDetails(ctx context.Context, userID string, fullName string, email string) (model.User, error)
	UpdateAvatar(ctx context.Context, userID string, url string) (model.User, error)
	UpdateCoverImage(ctx context.Context, userID string, url string) (model.User, error)
}

type UserService struct {
	store    UserStore
	hasher   password.Hasher
	uploader media.Uploader
	bus      event.Bus
}

// NewUserService builds the account service. A nil uploader disables image
// uploads.
func NewUserService(store UserStore, hasher password.Hasher, uploader media.Uploader, bus event.Bus) *UserService {
	return &UserService{store: store, hasher: hasher, uploader: uploader, bus: bus}
}

func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (model.UserView, error) {
	fullName := strings.TrimSpace(req.FullName)
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	required := []struct{ field, value string }{
		{"full_name", fullName},
		{"username", username},
		{"email", email},
		{"password", req.Password},
	}
	for _, r := range required {
		if r.value == "" {
			return model.UserView{}, apierror.Validation("all fields are required", r.field)
		}
	}
	if err := validateEmail(email); err != nil {
		return model.UserView{}, err
	}

	exists, err := s.store.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return model.UserView{}, apierror.Internal("failed to check existing users", err)
	}
	if exists {
		return model.UserView{}, apierror.Conflict("user with email or username already exists", "")
	}

	hash, err := s.hasher.Hash(req.Password)
	if errors.Is(err, password.ErrPasswordTooLong) {
		return model.UserView{}, apierror.Validation("password is too long", "password")
	}
	if err != nil {
		return model.UserView{}, apierror.Internal("failed to hash password", err)
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if req.Avatar != nil {
		if user.Avatar, err = s.upload(ctx, mediaKindAvatar, user.ID, *req.Avatar); err != nil {
			return model.UserView{}, err
		}
	}
	if req.CoverImage != nil {
		if user.CoverImage, err = s.upload(ctx, mediaKindCover, user.ID, *req.CoverImage); err != nil {
			return model.UserView{}, err
		}
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.UserView{}, apierror.Conflict("user with email or username already exists", "")
		}
		return model.UserView{}, apierror.Internal("failed to create user", err)
	}

	s.publish(event.New(event.TypeUserRegistered, user.ID).WithIdentifier(username))
	return user.View(), nil
}

func (s *UserService) GetCurrentUser(ctx context.Context, userID string) (model.UserView, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return model.UserView{}, mapUserErr(err, "failed to load user")
	}
	return user.View(), nil
}

func (s *UserService) UpdateAccountDetails(ctx context.Context, userID string, req model.UpdateAccountRequest) (model.UserView, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if fullName == "" || email == "" {
		return model.UserView{}, apierror.Validation("full name and email are required", "")
	}
	if err := validateEmail(email); err != nil {
		return model.UserView{}, err
	}

	user, err := s.store.UpdateAccountDetails(ctx, userID, fullName, email)
	if errors.Is(err, model.ErrUserAlreadyExists) {
		return model.UserView{}, apierror.Conflict("email is already in use", email)
	}
	if err != nil {
		return model.UserView{}, mapUserErr(err, "failed to update account")
	}
	return user.View(), nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID string, file model.UploadedFile) (model.UserView, error) {
	url, err := s.upload(ctx, mediaKindAvatar, userID, file)
	if err != nil {
		return model.UserView{}, err
	}

	user, err := s.store.UpdateAvatar(ctx, userID, url)
	if err != nil {
		return model.UserView{}, mapUserErr(err, "failed to update avatar")
	}
	return user.View(), nil
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, file model.UploadedFile) (model.UserView, error) {
	url, err := s.upload(ctx, mediaKindCover, userID, file)
	if err != nil {
		return model.UserView{}, err
	}

	user, err := s.store.UpdateCoverImage(ctx, userID, url)
	if err != nil {
		return model.UserView{}, mapUserErr(err, "failed to update cover image")
	}
	return user.View(), nil
}

func (s *UserService) upload(ctx context.Context, kind string, userID string, file model.UploadedFile) (string, error) {
	if s.uploader == nil {
		return "", apierror.Validation(media.ErrUploaderNotEnabled.Error(), "")
	}

	ext, err := media.ValidateImage(file.ContentType, file.Data)
	if err != nil {
		return "", apierror.Validation(err.Error(), file.Filename)
	}

	url, err := s.uploader.Upload(ctx, media.ObjectKey(kind, userID, ext), file.ContentType, file.Data)
	if err != nil {
		return "", apierror.Internal("failed to upload image", err)
	}
	return url, nil
}

func (s *UserService) publish(e event.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apierror.Validation("email is invalid", email)
	}
	return nil
}

func mapUserErr(err error, message string) error {
	if errors.Is(err, model.ErrUserNotFound) {
		return apierror.NotFound("user does not exist", "")
	}
	return apierror.Internal(message, err)
}
