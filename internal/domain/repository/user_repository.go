// Package repository defines the persistence contracts of the domain layer.
// Implementations live under internal/infra/persistence.
package repository

import (
	"context"
	"time"

	"telepass/internal/domain/entity"
	"telepass/internal/errors"
)

// Sentinel errors returned by repository implementations. Callers match on
// these with errors.Is instead of inspecting driver errors.
var (
	// ErrUserNotFound is returned when no user matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned when a create collides with an existing
	// external ID. The caller should re-fetch the winning row.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrReferralAlreadySet is returned when a referral link is attempted
	// for a user whose referrer is already recorded.
	ErrReferralAlreadySet = errors.New("referral already set")
)

// UserRepository is the persistence boundary for user accounts and their
// referral ledger.
type UserRepository interface {
	// FindByID retrieves a user by internal ID.
	FindByID(ctx context.Context, id string) (*entity.User, error)
	// FindByExternalID retrieves a user by Telegram user ID.
	FindByExternalID(ctx context.Context, externalID int64) (*entity.User, error)
	// FindByReferralCode retrieves a user by their referral code.
	FindByReferralCode(ctx context.Context, code string) (*entity.User, error)
	// Create inserts a new user. Returns ErrDuplicateUser when the
	// external ID is already taken.
	Create(ctx context.Context, user *entity.User) error
	// Update persists mutable profile and device fields of an existing user.
	Update(ctx context.Context, user *entity.User) error
	// SetReferredBy records the referrer exactly once. Returns
	// ErrReferralAlreadySet when the user already has a referrer.
	SetReferredBy(ctx context.Context, userID string, referrerID string, at time.Time) error
	// IncrementReferralCount atomically adds delta to the user's referral
	// counter without read-modify-write.
	IncrementReferralCount(ctx context.Context, userID string, delta int) error
}
