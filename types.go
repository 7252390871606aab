package aquamate

import (
	"context"
	"time"
)

// AccountStatus is the lifecycle state of a user account. Only active
// accounts may log in or receive reset tokens.
type AccountStatus uint8

const (
	AccountActive AccountStatus = iota
	AccountInactive
)

// UserRecord is the account view the engine works with. The engine reads
// id, status, and hash, and writes a new hash on password reset; the
// remaining fields exist for session metadata and notification routing.
type UserRecord struct {
	UserID       string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Status       AccountStatus
	CreatedAt    time.Time
}

// CreateUserInput is handed to [UserProvider.CreateUser] by Register.
// The password arrives pre-hashed; providers never see plaintext.
type CreateUserInput struct {
	UserID       string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Status       AccountStatus
}

// UserProvider is the user-record collaborator callers must implement.
// Lookups return an error wrapping [ErrUserNotFound] for missing records;
// CreateUser returns an error wrapping [ErrAccountExists] on username or
// email collisions. Implementations must be safe for concurrent use.
type UserProvider interface {
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	// GetUserByIdentifier resolves a username-or-email identifier.
	// Identifiers containing '@' are email lookups.
	GetUserByIdentifier(ctx context.Context, identifier string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
}

// Sender delivers one out-of-band message to a contact address. Errors are
// logged by the notifier and never surfaced to end users.
type Sender interface {
	Send(contact, subject, body string) error
}

// AuthSession is an issued session: the opaque token to hand to the client
// plus the record it authenticates.
type AuthSession struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	User      UserRecord
}

// RegisterInput is the payload for [Engine.Register]. Role defaults to
// "member" when empty.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// ResetResult is returned by a successful [Engine.ConfirmPasswordReset]:
// the freshly issued session (every prior session is revoked) and the
// advisory anomaly flag.
type ResetResult struct {
	Session    *AuthSession
	Suspicious bool
}
