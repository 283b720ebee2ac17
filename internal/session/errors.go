package session

import (
	"errors"
	"fmt"
)

// ErrNoToken means the login response did not carry the token header, so no
// identity could be established.
var ErrNoToken = errors.New("session: no token in login response")

// ErrInvalidToken means a token was present but could not be decoded.
var ErrInvalidToken = errors.New("session: token could not be decoded")

// ErrNoSender means BindSender was never called, so the store has no way to
// reach the backend.
var ErrNoSender = errors.New("session: no sender bound")

// AuthError wraps a token-establishment failure with its underlying cause.
// errors.Is(err, ErrNoToken) and errors.Is(err, ErrInvalidToken) both work
// through it.
type AuthError struct {
	Kind error // ErrNoToken or ErrInvalidToken
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool { return target == e.Kind }
