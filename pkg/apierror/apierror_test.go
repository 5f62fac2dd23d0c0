package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    *APIError
		code   string
		status int
	}{
		{"validation", Validation("username is required", "username"), CodeValidation, http.StatusBadRequest},
		{"not found", NotFound("user does not exist", ""), CodeNotFound, http.StatusNotFound},
		{"unauthorized", Unauthorized("invalid user credentials"), CodeUnauthorized, http.StatusUnauthorized},
		{"conflict", Conflict("username already exists", "alice"), CodeConflict, http.StatusConflict},
		{"too many requests", TooManyRequests("slow down"), CodeTooManyRequests, http.StatusTooManyRequests},
		{"internal", Internal("store failed", errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.code, tc.err.Code)
			require.Equal(t, tc.status, tc.err.HTTPStatus)
			require.Equal(t, tc.code, KindOf(tc.err))
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	t.Run("nil error has no kind", func(t *testing.T) {
		require.Empty(t, KindOf(nil))
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		require.Equal(t, CodeInternal, KindOf(errors.New("disk on fire")))
	})

	t.Run("wrapped api errors keep their kind", func(t *testing.T) {
		err := fmt.Errorf("refresh: %w", Unauthorized("invalid refresh token"))
		require.Equal(t, CodeUnauthorized, KindOf(err))
	})
}

func TestWithCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("token is expired")
	base := Unauthorized("invalid refresh token")
	wrapped := base.WithCause(cause)

	require.Nil(t, base.Err)
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, "UNAUTHORIZED: invalid refresh token: token is expired", wrapped.Error())
}
