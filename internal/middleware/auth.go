package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-video-backend/internal/token"
	"go-video-backend/pkg/apierror"
)

// AccessTokenCookie carries the access token for browser clients.
const AccessTokenCookie = "accessToken"

type accessVerifier interface {
	VerifyAccessToken(raw string) (*token.AccessClaims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	verifier accessVerifier
}

func NewAuthMiddleware(verifier accessVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth accepts an access token from the Authorization header or,
// failing that, from the access token cookie.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
				raw = strings.TrimSpace(cookie.Value)
			}
		}
		if raw == "" {
			writeJSONError(w, http.StatusUnauthorized, apierror.CodeUnauthorized, "unauthorized request")
			return
		}

		claims, err := m.verifier.VerifyAccessToken(raw)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, apierror.CodeUnauthorized, "invalid access token")
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClaimsFromContext(ctx context.Context) (*token.AccessClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*token.AccessClaims)
	return claims, ok && claims != nil
}

// WithClaims is used by tests and internal callers that authenticate out of band.
func WithClaims(ctx context.Context, claims *token.AccessClaims) context.Context {
	return context.WithValue(ctx, authClaimsContextKey, claims)
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
