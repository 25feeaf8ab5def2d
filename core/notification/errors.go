package notification

import "github.com/pkg/errors"

var (
	// errors
	ErrProviderNotConfigured = errors.New("notification provider not configured")
	ErrInvalidToken          = errors.New("device token is invalid or unregistered")
	ErrPayloadTooLarge       = errors.New("notification payload is too large")
	ErrReservedDataKey       = errors.New("notification data uses a reserved key")
)

// tokenError is a per-token delivery error that will never succeed for that token.
type tokenError struct {
	cause error
}

// NewInvalidTokenError marks cause as a permanent per-token failure (unregistered or malformed token).
func NewInvalidTokenError(cause error) error {
	return &tokenError{cause: cause}
}

func (e *tokenError) Error() string {
	if e.cause == nil {
		return ErrInvalidToken.Error()
	}
	return ErrInvalidToken.Error() + ": " + e.cause.Error()
}

func (e *tokenError) Cause() error  { return e.cause }
func (e *tokenError) Unwrap() error { return e.cause }
func (e *tokenError) Is(target error) bool {
	return target == ErrInvalidToken
}

// IsInvalidToken reports whether err is a permanent per-token failure.
func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
