// Package token issues and verifies the signed access and refresh tokens.
//
// Access and refresh tokens use separate HMAC secrets and carry a typ claim,
// so one kind can never be presented as the other.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

type Config struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.AccessSecret) == "" {
		errs = append(errs, errors.New("access token secret is required"))
	}
	if c.AccessTTL <= 0 {
		errs = append(errs, errors.New("access token ttl must be positive"))
	}
	if strings.TrimSpace(c.RefreshSecret) == "" {
		errs = append(errs, errors.New("refresh token secret is required"))
	}
	if c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("refresh token ttl must be positive"))
	}
	return errors.Join(errs...)
}

// Identity is the set of user attributes embedded in an access token.
type Identity struct {
	UserID   string
	Email    string
	Username string
	FullName string
}

type AccessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) UserID() string {
	return c.Subject
}

type RefreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

func (c *RefreshClaims) UserID() string {
	return c.Subject
}

type Manager struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid token configuration: %w", err)
	}

	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		accessTTL:     cfg.AccessTTL,
		refreshSecret: []byte(cfg.RefreshSecret),
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

func (m *Manager) AccessTTL() time.Duration {
	return m.accessTTL
}

func (m *Manager) IssueAccessToken(identity Identity) (string, time.Time, error) {
	if strings.TrimSpace(identity.UserID) == "" {
		return "", time.Time{}, errors.New("access token subject is required")
	}

	now := m.now().UTC()
	expiresAt := now.Add(m.accessTTL)
	claims := AccessClaims{
		Email:    identity.Email,
		Username: identity.Username,
		FullName: identity.FullName,
		Type:     TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	return signed, expiresAt, nil
}

// IssueRefreshToken embeds only the user id. The random jti keeps two tokens
// minted within the same second distinct.
func (m *Manager) IssueRefreshToken(userID string) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, errors.New("refresh token subject is required")
	}

	now := m.now().UTC()
	expiresAt := now.Add(m.refreshTTL)
	claims := RefreshClaims{
		Type: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return signed, expiresAt, nil
}

func (m *Manager) VerifyAccessToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(raw, claims, m.accessSecret); err != nil {
		return nil, err
	}
	if claims.Type != TypeAccess || claims.Subject == "" {
		return nil, fmt.Errorf("%w: not an access token", ErrMalformed)
	}
	return claims, nil
}

func (m *Manager) VerifyRefreshToken(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(raw, claims, m.refreshSecret); err != nil {
		return nil, err
	}
	if claims.Type != TypeRefresh || claims.Subject == "" {
		return nil, fmt.Errorf("%w: not a refresh token", ErrMalformed)
	}
	return claims, nil
}

func (m *Manager) parse(raw string, claims jwt.Claims, secret []byte) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty token", ErrMalformed)
	}

	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return classify(err)
	}

	return nil
}
