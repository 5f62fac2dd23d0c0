package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go-video-backend/internal/event"
	"go-video-backend/internal/model"
	"go-video-backend/internal/password"
	"go-video-backend/internal/token"
	"go-video-backend/pkg/apierror"
)

const tokenTypeBearer = "Bearer"

// CredentialStore is the persistence the session manager needs. The refresh
// token column is the only shared mutable state between requests.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsernameOrEmail(ctx context.Context, username string, email string) (model.User, error)
	UpdateRefreshToken(ctx context.Context, userID string, token string) error
	CompareAndSwapRefreshToken(ctx context.Context, userID string, expected string, next string) (bool, error)
	UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error
}

type TokenIssuer interface {
	IssueAccessToken(identity token.Identity) (string, time.Time, error)
	IssueRefreshToken(userID string) (string, time.Time, error)
	VerifyRefreshToken(raw string) (*token.RefreshClaims, error)
	AccessTTL() time.Duration
}

type LoginThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type AuthOptions struct {
	Throttle               LoginThrottle
	Bus                    event.Bus
	RevokeOnPasswordChange bool
}

type AuthService struct {
	store  CredentialStore
	hasher password.Hasher
	tokens TokenIssuer
	opts   AuthOptions
}

func NewAuthService(store CredentialStore, hasher password.Hasher, tokens TokenIssuer, opts AuthOptions) *AuthService {
	return &AuthService{store: store, hasher: hasher, tokens: tokens, opts: opts}
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" && email == "" {
		return model.LoginResult{}, apierror.Validation("username or email is required", "")
	}

	identifier := username
	if identifier == "" {
		identifier = email
	}

	user, err := s.store.FindByUsernameOrEmail(ctx, username, email)
	if errors.Is(err, model.ErrUserNotFound) {
		s.publish(event.New(event.TypeUserLoginFailed, "").WithIdentifier(identifier).WithReason(event.ReasonUnknownUser))
		return model.LoginResult{}, apierror.NotFound("user does not exist", "")
	}
	if err != nil {
		return model.LoginResult{}, apierror.Internal("failed to load user", err)
	}

	// Failures are counted per account, whichever identifier reached it.
	if !s.allowLogin(ctx, user.ID) {
		s.publish(event.New(event.TypeUserLoginFailed, user.ID).WithIdentifier(identifier).WithReason(event.ReasonThrottled))
		return model.LoginResult{}, apierror.TooManyRequests("too many failed login attempts, try again later")
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.recordFailure(ctx, user.ID)
		s.publish(event.New(event.TypeUserLoginFailed, user.ID).WithIdentifier(identifier).WithReason(event.ReasonBadPassword))
		return model.LoginResult{}, apierror.Unauthorized("invalid user credentials")
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return model.LoginResult{}, err
	}

	// Last login wins: a new login replaces any session held elsewhere.
	if err := s.store.UpdateRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return model.LoginResult{}, apierror.Internal("failed to persist session", err)
	}

	s.resetFailures(ctx, user.ID)
	s.publish(event.New(event.TypeUserLoggedIn, user.ID).WithIdentifier(identifier))
	slog.Info("user logged in", "user_id", user.ID)

	return model.LoginResult{User: user.View(), TokenPair: pair}, nil
}

// Refresh exchanges a valid refresh token for a new pair. The stored token is
// rotated with a compare-and-swap so that a token can be redeemed once.
func (s *AuthService) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		s.publish(event.New(event.TypeSessionRefreshRejected, "").WithReason(event.ReasonMissingToken))
		return model.TokenPair{}, apierror.Unauthorized("unauthorized request")
	}

	claims, err := s.tokens.VerifyRefreshToken(presented)
	if err != nil {
		kind := token.FailureKind(err)
		slog.Info("refresh token rejected", "reason", kind)
		s.publish(event.New(event.TypeSessionRefreshRejected, "").WithReason(kind))
		return model.TokenPair{}, apierror.Unauthorized("invalid refresh token").WithCause(err)
	}

	user, err := s.store.FindByID(ctx, claims.UserID())
	if errors.Is(err, model.ErrUserNotFound) {
		s.publish(event.New(event.TypeSessionRefreshRejected, "").WithReason(event.ReasonUnknownUser))
		return model.TokenPair{}, apierror.Unauthorized("invalid refresh token")
	}
	if err != nil {
		return model.TokenPair{}, apierror.Internal("failed to load user", err)
	}

	if subtle.ConstantTimeCompare([]byte(presented), []byte(user.RefreshToken)) != 1 {
		return model.TokenPair{}, s.rejectReuse(user.ID)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	swapped, err := s.store.CompareAndSwapRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	if err != nil {
		return model.TokenPair{}, apierror.Internal("failed to rotate session", err)
	}
	if !swapped {
		return model.TokenPair{}, s.rejectReuse(user.ID)
	}

	s.publish(event.New(event.TypeSessionRefreshed, user.ID))
	return pair, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	err := s.store.UpdateRefreshToken(ctx, userID, "")
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return apierror.Internal("failed to clear session", err)
	}

	s.publish(event.New(event.TypeUserLoggedOut, userID))
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) error {
	user, err := s.store.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return apierror.NotFound("user does not exist", "")
	}
	if err != nil {
		return apierror.Internal("failed to load user", err)
	}

	if !s.hasher.Verify(req.CurrentPassword, user.PasswordHash) {
		return apierror.Unauthorized("invalid current password")
	}
	if req.NewPassword == "" {
		return apierror.Validation("new password is required", "new_password")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if errors.Is(err, password.ErrPasswordTooLong) {
		return apierror.Validation("new password is too long", "new_password")
	}
	if err != nil {
		return apierror.Internal("failed to hash password", err)
	}

	if err := s.store.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return apierror.Internal("failed to update password", err)
	}

	if s.opts.RevokeOnPasswordChange {
		if err := s.store.UpdateRefreshToken(ctx, user.ID, ""); err != nil {
			return apierror.Internal("failed to revoke session", err)
		}
	}

	s.publish(event.New(event.TypePasswordChanged, user.ID))
	return nil
}

func (s *AuthService) issuePair(user model.User) (model.TokenPair, error) {
	access, accessExp, err := s.tokens.IssueAccessToken(token.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	})
	if err != nil {
		return model.TokenPair{}, apierror.Internal("failed to issue access token", err)
	}

	refresh, refreshExp, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return model.TokenPair{}, apierror.Internal("failed to issue refresh token", err)
	}

	return model.TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		TokenType:             tokenTypeBearer,
		ExpiresIn:             int64(s.tokens.AccessTTL().Seconds()),
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) rejectReuse(userID string) error {
	slog.Warn("refresh token reuse rejected", "user_id", userID)
	s.publish(event.New(event.TypeSessionRefreshRejected, userID).WithReason(event.ReasonReused))
	return apierror.Unauthorized("refresh token is expired or used")
}

// allowLogin fails open: a broken limiter backend must not lock everyone out.
func (s *AuthService) allowLogin(ctx context.Context, userID string) bool {
	if s.opts.Throttle == nil {
		return true
	}
	allowed, err := s.opts.Throttle.Allow(ctx, userID)
	if err != nil {
		slog.Warn("login throttle check failed", "error", err)
		return true
	}
	return allowed
}

func (s *AuthService) recordFailure(ctx context.Context, userID string) {
	if s.opts.Throttle == nil {
		return
	}
	if err := s.opts.Throttle.RecordFailure(ctx, userID); err != nil {
		slog.Warn("login throttle record failed", "error", err)
	}
}

func (s *AuthService) resetFailures(ctx context.Context, userID string) {
	if s.opts.Throttle == nil {
		return
	}
	if err := s.opts.Throttle.Reset(ctx, userID); err != nil {
		slog.Warn("login throttle reset failed", "error", err)
	}
}

func (s *AuthService) publish(e event.Event) {
	if s.opts.Bus != nil {
		s.opts.Bus.Publish(e)
	}
}
