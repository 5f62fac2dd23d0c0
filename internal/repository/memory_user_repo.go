package repository

import (
	"context"
	"sync"
	"time"

	"go-video-backend/internal/model"
)

// MemoryUserRepository is a process-local credential store for development
// and tests. Every method is safe for concurrent use.
type MemoryUserRepository struct {
	mu   sync.RWMutex
	byID map[string]model.User
	now  func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID: map[string]model.User{},
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) FindByUsernameOrEmail(_ context.Context, username string, email string) (model.User, error) {
	username, email = normalize(username), normalize(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found model.User
		ok    bool
	)
	for _, u := range r.byID {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			if !ok || u.CreatedAt.Before(found.CreatedAt) {
				found, ok = u, true
			}
		}
	}
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return found, nil
}

func (r *MemoryUserRepository) ExistsByUsernameOrEmail(_ context.Context, username string, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.takenLocked(normalize(username), normalize(email), ""), nil
}

func (r *MemoryUserRepository) Create(_ context.Context, u model.User) error {
	u.Username, u.Email = normalize(u.Username), normalize(u.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[u.ID]; exists || r.takenLocked(u.Username, u.Email, "") {
		return model.ErrUserAlreadyExists
	}
	r.byID[u.ID] = u
	return nil
}

func (r *MemoryUserRepository) UpdateRefreshToken(_ context.Context, userID string, token string) error {
	return r.mutate(userID, func(u *model.User) error {
		u.RefreshToken = token
		return nil
	})
}

func (r *MemoryUserRepository) CompareAndSwapRefreshToken(_ context.Context, userID string, expected string, next string) (bool, error) {
	if expected == "" {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok || u.RefreshToken != expected {
		return false, nil
	}
	u.RefreshToken = next
	u.UpdatedAt = r.now()
	r.byID[userID] = u
	return true, nil
}

func (r *MemoryUserRepository) UpdatePasswordHash(_ context.Context, userID string, passwordHash string) error {
	return r.mutate(userID, func(u *model.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
}

func (r *MemoryUserRepository) UpdateAccountDetails(_ context.Context, userID string, fullName string, email string) (model.User, error) {
	var updated model.User
	err := r.mutate(userID, func(u *model.User) error {
		email = normalize(email)
		if r.takenLocked("", email, userID) {
			return model.ErrUserAlreadyExists
		}
		u.FullName = fullName
		u.Email = email
		updated = *u
		return nil
	})
	return updated, err
}

func (r *MemoryUserRepository) UpdateAvatar(_ context.Context, userID string, url string) (model.User, error) {
	var updated model.User
	err := r.mutate(userID, func(u *model.User) error {
		u.Avatar = url
		updated = *u
		return nil
	})
	return updated, err
}

func (r *MemoryUserRepository) UpdateCoverImage(_ context.Context, userID string, url string) (model.User, error) {
	var updated model.User
	err := r.mutate(userID, func(u *model.User) error {
		u.CoverImage = url
		updated = *u
		return nil
	})
	return updated, err
}

func (r *MemoryUserRepository) mutate(userID string, apply func(u *model.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	if err := apply(&u); err != nil {
		return err
	}
	u.UpdatedAt = r.now()
	r.byID[userID] = u
	return nil
}

// takenLocked reports whether username or email belongs to a user other than exceptID.
func (r *MemoryUserRepository) takenLocked(username string, email string, exceptID string) bool {
	for id, u := range r.byID {
		if id == exceptID {
			continue
		}
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return true
		}
	}
	return false
}
