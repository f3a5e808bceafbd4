package domain

import (
	"errors"
	"fmt"
)

// Authentication errors.
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationRejected = errors.New("registration rejected")
	ErrResetRequestFailed   = errors.New("password reset request failed")
	ErrResetConfirmFailed   = errors.New("password reset confirmation failed")
	ErrNotAuthenticated     = errors.New("not authenticated")
)

// Validation errors raised before any remote call is made.
var (
	ErrPasswordMismatch = errors.New("password confirmation does not match")
)

// Session state errors.
var (
	ErrLoginSuperseded = errors.New("login superseded by a newer operation")
)

// External service errors.
var (
	ErrAuthServiceUnavailable = errors.New("auth service unavailable")
	ErrStoreUnavailable       = errors.New("credential store unavailable")
)

// Token errors.
var (
	ErrTokenGeneration = errors.New("token generation failed")
)

// RemoteError carries the message the auth API returned for a failed
// operation. It unwraps to the operation's sentinel error so callers can
// classify it with errors.Is while still surfacing the remote message.
type RemoteError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Err, e.Status)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// RemoteMessage extracts the remote-provided message from err's chain.
// The second return reports whether a non-empty message was present.
func RemoteMessage(err error) (string, bool) {
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message, true
	}
	return "", false
}
