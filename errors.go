package aquamate

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials is returned by Login for unknown identifiers,
	// wrong passwords, and inactive accounts alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountExists is returned by Register when the username or email
	// is already taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrRateLimited is the base error for throttled operations. Use
	// errors.As with [*RateLimitedError] to recover the retry delay.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidResetToken covers missing, expired, replayed, and malformed
	// reset tokens. The distinction is deliberately not observable.
	ErrInvalidResetToken = errors.New("password reset token invalid or expired")
	// ErrPasswordReuse is returned when the new password matches the
	// account's current password.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrPasswordPolicy is returned when a password fails the strength
	// policy. The wrapped cause names the missing requirement.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrSessionNotFound covers sessions that are absent, expired, or
	// unreadable. The distinction is deliberately not observable.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUserNotFound must be returned (or wrapped) by [UserProvider]
	// lookups for missing records.
	ErrUserNotFound = errors.New("user not found")
	// ErrBackendUnavailable wraps Redis connectivity failures. The request
	// fails; no partial state is left behind by the failing call.
	ErrBackendUnavailable = errors.New("storage backend unavailable")
	// ErrEngineNotReady is returned by Engine methods before Build completed.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RateLimitedError carries the computed retry delay for a throttled
// operation. It unwraps to [ErrRateLimited].
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}
