// Package ratelimit counts failed login attempts per identifier and locks an
// identifier out once it crosses the configured threshold inside a window.
package ratelimit

import (
	"errors"
	"strings"
	"time"
)

var ErrBackendUnavailable = errors.New("login limiter backend unavailable")

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
)

type Config struct {
	MaxAttempts int
	Window      time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

func failureKey(identifier string) string {
	return "login_fail:" + strings.ToLower(strings.TrimSpace(identifier))
}
