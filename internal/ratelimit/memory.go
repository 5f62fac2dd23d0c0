package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	expires time.Time
}

// MemoryLimiter keeps counters in process. Counters are not shared between
// instances.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]window
	config  Config
	now     func() time.Time
}

func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		entries: map[string]window{},
		config:  cfg.withDefaults(),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, identifier string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.liveLocked(failureKey(identifier))
	return !ok || w.count < l.config.MaxAttempts, nil
}

func (l *MemoryLimiter) RecordFailure(_ context.Context, identifier string) error {
	key := failureKey(identifier)

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.liveLocked(key)
	if !ok {
		w = window{expires: l.now().Add(l.config.Window)}
	}
	w.count++
	l.entries[key] = w
	return nil
}

func (l *MemoryLimiter) Reset(_ context.Context, identifier string) error {
	l.mu.Lock()
	delete(l.entries, failureKey(identifier))
	l.mu.Unlock()
	return nil
}

func (l *MemoryLimiter) liveLocked(key string) (window, bool) {
	w, ok := l.entries[key]
	if !ok {
		return window{}, false
	}
	if !l.now().Before(w.expires) {
		delete(l.entries, key)
		return window{}, false
	}
	return w, true
}
