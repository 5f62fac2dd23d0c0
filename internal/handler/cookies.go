package handler

import (
	"net/http"
	"time"

	"go-video-backend/internal/middleware"
	"go-video-backend/internal/model"
)

const refreshTokenCookie = "refreshToken"

// CookiePolicy controls the attributes of the session cookies. Cookies are
// always HttpOnly.
type CookiePolicy struct {
	Secure   bool
	SameSite http.SameSite
}

func DefaultCookiePolicy() CookiePolicy {
	return CookiePolicy{Secure: true, SameSite: http.SameSiteLaxMode}
}

func (p CookiePolicy) setSession(w http.ResponseWriter, pair model.TokenPair) {
	http.SetCookie(w, p.cookie(middleware.AccessTokenCookie, pair.AccessToken, pair.AccessTokenExpiresAt))
	http.SetCookie(w, p.cookie(refreshTokenCookie, pair.RefreshToken, pair.RefreshTokenExpiresAt))
}

func (p CookiePolicy) clearSession(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		c := p.cookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (p CookiePolicy) cookie(name string, value string, expires time.Time) *http.Cookie {
	sameSite := p.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: sameSite,
	}
}
