package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-video-backend/internal/model"
)

const pgUniqueViolation = "23505"

const userColumns = `id, username, email, full_name, avatar, cover_image,
		        password_hash, COALESCE(refresh_token, ''), created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Avatar, &u.CoverImage,
		&u.PasswordHash, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// FindByUsernameOrEmail matches either identifier; an empty argument never matches.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username string, email string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
		 ORDER BY created_at
		 LIMIT 1`, normalize(username), normalize(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by username or email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username string, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`,
		normalize(username), normalize(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, full_name, avatar, cover_image, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, normalize(u.Username), normalize(u.Email), u.FullName, u.Avatar, u.CoverImage,
		u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return model.ErrUserAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateRefreshToken overwrites the stored refresh token. An empty token
// clears it.
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, userID string, token string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = NULLIF($2, ''), updated_at = $3 WHERE id = $1`,
		userID, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// CompareAndSwapRefreshToken replaces the stored refresh token only while it
// still equals expected. It reports whether the swap happened.
func (r *UserRepository) CompareAndSwapRefreshToken(ctx context.Context, userID string, expected string, next string) (bool, error) {
	if expected == "" {
		return false, nil
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token = NULLIF($3, ''), updated_at = $4
		 WHERE id = $1 AND refresh_token = $2`,
		userID, expected, next, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		userID, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateAccountDetails(ctx context.Context, userID string, fullName string, email string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET full_name = $2, email = $3, updated_at = $4 WHERE id = $1
		 RETURNING `+userColumns,
		userID, fullName, normalize(email), time.Now().UTC()))
	return r.updatedUser(u, err, "update account details")
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, userID string, url string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET avatar = $2, updated_at = $3 WHERE id = $1 RETURNING `+userColumns,
		userID, url, time.Now().UTC()))
	return r.updatedUser(u, err, "update avatar")
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, userID string, url string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET cover_image = $2, updated_at = $3 WHERE id = $1 RETURNING `+userColumns,
		userID, url, time.Now().UTC()))
	return r.updatedUser(u, err, "update cover image")
}

func (r *UserRepository) updatedUser(u model.User, err error, op string) (model.User, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if isUniqueViolation(err) {
		return model.User{}, model.ErrUserAlreadyExists
	}
	if err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func normalize(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
