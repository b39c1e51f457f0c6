// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"telepass/internal/domain/entity"
)

// --- Input DTOs ---

// VerifyLaunchInput defines the data required to authenticate a mini-app launch.
type VerifyLaunchInput struct {
	InitData string
	Meta     RequestMeta
}

// --- Output DTOs ---

// VerifyLaunchOutput returns the established session and the resolved user.
type VerifyLaunchOutput struct {
	SessionToken string
	ExpiresAt    time.Time
	User         *entity.User
	IsNewUser    bool
}

// RenewSessionOutput returns the replacement session token.
type RenewSessionOutput struct {
	SessionToken string
	ExpiresAt    time.Time
}

// AuthUsecase defines the interface for authentication business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	// VerifyLaunch validates a signed launch payload, resolves the account
	// and issues a session token.
	VerifyLaunch(ctx context.Context, input *VerifyLaunchInput) (*VerifyLaunchOutput, error)
	// RenewSession exchanges a valid session token for a fresh one.
	RenewSession(ctx context.Context, token string) (*RenewSessionOutput, error)
}
