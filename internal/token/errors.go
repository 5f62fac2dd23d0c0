package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token is expired")
	ErrMalformed        = errors.New("token is malformed")
)

const (
	FailureInvalidSignature = "invalid_signature"
	FailureExpired          = "expired"
	FailureMalformed        = "malformed"
)

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

// FailureKind names the verification failure carried by err, for logs and
// audit entries.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrExpired):
		return FailureExpired
	case errors.Is(err, ErrInvalidSignature):
		return FailureInvalidSignature
	default:
		return FailureMalformed
	}
}
