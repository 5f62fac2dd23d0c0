package handler

import (
	"net/http"
	"strings"

	"go-video-backend/internal/middleware"
	"go-video-backend/internal/model"
	"go-video-backend/internal/service"
	"go-video-backend/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
	cookies CookiePolicy
}

func NewAuthHandler(service *service.AuthService, cookies CookiePolicy) *AuthHandler {
	return &AuthHandler{service: service, cookies: cookies}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.setSession(w, result.TokenPair)
	writeSuccess(w, http.StatusOK, result, nil)
}

// Refresh takes the refresh token from its cookie, falling back to the
// JSON body for clients that do not keep cookies.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		presented = strings.TrimSpace(cookie.Value)
	}
	if presented == "" {
		var payload model.RefreshRequest
		if err := decodeJSON(r, &payload, true); err != nil {
			writeError(w, err)
			return
		}
		presented = strings.TrimSpace(payload.RefreshToken)
	}

	pair, err := h.service.Refresh(r.Context(), presented)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.setSession(w, pair)
	writeSuccess(w, http.StatusOK, pair, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	if err := h.service.Logout(r.Context(), claims.UserID()); err != nil {
		writeError(w, err)
		return
	}

	h.cookies.clearSession(w)
	writeMessage(w, http.StatusOK, "user logged out")
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	var payload model.ChangePasswordRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), claims.UserID(), payload); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "password changed successfully")
}
