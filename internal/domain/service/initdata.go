// Package service defines the domain service contracts implemented by the
// infra layer.
package service

import (
	"time"

	"telepass/internal/errors"
)

// Validation errors returned by InitDataValidator. All of them mean the
// payload must be rejected; the distinctions exist for logging only and must
// not leak to clients.
var (
	// ErrMalformedPayload is returned when the payload is not a parseable
	// query string.
	ErrMalformedPayload = errors.New("malformed launch payload")
	// ErrMissingHash is returned when the payload carries no hash field.
	ErrMissingHash = errors.New("launch payload missing hash")
	// ErrInvalidSignature is returned when the recomputed signature does
	// not match the payload's hash.
	ErrInvalidSignature = errors.New("launch payload signature mismatch")
	// ErrMissingTimestamp is returned when auth_date is absent or not an
	// integer.
	ErrMissingTimestamp = errors.New("launch payload missing auth_date")
	// ErrPayloadExpired is returned when auth_date is older than the
	// freshness window.
	ErrPayloadExpired = errors.New("launch payload expired")
	// ErrMissingUser is returned when the payload carries no user field.
	ErrMissingUser = errors.New("launch payload missing user")
	// ErrMalformedUser is returned when the user field is not valid JSON
	// or lacks a user ID.
	ErrMalformedUser = errors.New("launch payload user malformed")
)

// TelegramUser is the profile Telegram embeds in a signed launch payload.
type TelegramUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
	PhotoURL     string `json:"photo_url"`
	IsPremium    bool   `json:"is_premium"`
}

// ValidatedIdentity is the result of a successful payload validation.
type ValidatedIdentity struct {
	User     TelegramUser
	AuthDate time.Time
	// Fields holds the raw payload key/value pairs, hash excluded.
	Fields map[string]string
}

// InitDataValidator verifies the signature and freshness of a Telegram
// mini-app launch payload.
type InitDataValidator interface {
	// Validate checks the payload against the bot token and returns the
	// embedded identity. now anchors the freshness check.
	Validate(initData string, now time.Time) (*ValidatedIdentity, error)
}
