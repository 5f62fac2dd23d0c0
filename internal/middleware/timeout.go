package middleware

import (
	"fmt"
	"net/http"
	"time"

	"go-video-backend/pkg/apierror"
)

var timeoutBody = fmt.Sprintf(`{"success":false,"error":{"code":%q,"message":"request timed out"}}`, apierror.CodeRequestTimeout)

// Timeout bounds each request. The deadline reaches the store through the
// request context.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
