package service

import (
	"time"

	"telepass/internal/errors"
)

// Session token errors. Expired is distinguished from invalid because an
// expired session is an expected client state, not an attack signal.
var (
	// ErrSessionMalformed is returned when the token cannot be parsed or
	// lacks required claims.
	ErrSessionMalformed = errors.New("session token malformed")
	// ErrSessionInvalid is returned when the token signature does not
	// verify or the signing method is unexpected.
	ErrSessionInvalid = errors.New("session token invalid")
	// ErrSessionExpired is returned when a well-signed token is past its
	// expiry.
	ErrSessionExpired = errors.New("session token expired")
)

// SessionUser is the identity carried inside a session token.
type SessionUser struct {
	// ExternalID is the Telegram user ID.
	ExternalID int64
	// UserID is the internal user ID.
	UserID string
}

// SessionTokenService issues and verifies signed session tokens.
type SessionTokenService interface {
	// Issue creates a token for the user, valid from now for the
	// configured duration.
	Issue(user SessionUser, now time.Time) (token string, expiresAt time.Time, err error)
	// Verify checks signature and expiry and returns the embedded user.
	// Signature is always checked before expiry.
	Verify(token string, now time.Time) (*SessionUser, error)
	// Renew verifies the token and issues a fresh one for the same user.
	// Expired tokens are not renewable.
	Renew(token string, now time.Time) (string, time.Time, error)
	// Duration reports the configured session lifetime.
	Duration() time.Duration
}
