package usecase

import (
	"context"

	"telepass/internal/domain/entity"
	"telepass/internal/domain/service"
)

// RequestMeta carries per-request audit data into the identity layer.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// ResolveIdentityOutput returns the account backing a verified Telegram identity.
type ResolveIdentityOutput struct {
	User      *entity.User
	IsNewUser bool
}

// LinkReferralInput defines the data required to record a referral.
type LinkReferralInput struct {
	UserID       string
	ReferralCode string
}

// LinkReferralOutput returns the referrer whose code was redeemed.
type LinkReferralOutput struct {
	Referrer *entity.User
}

// ReferralLinkOutput returns a user's shareable referral link.
type ReferralLinkOutput struct {
	Code string
	URL  string
}

// IdentityUsecase defines the interface for account resolution and the
// referral ledger.
type IdentityUsecase interface {
	// ResolveOrCreate finds the account for a verified Telegram identity,
	// creating it on first login. Safe under concurrent first logins.
	ResolveOrCreate(ctx context.Context, identity *service.ValidatedIdentity, meta RequestMeta) (*ResolveIdentityOutput, error)
	// GetUser retrieves a user by internal ID.
	GetUser(ctx context.Context, userID string) (*entity.User, error)
	// LinkReferral records who referred the user. At most one referrer per
	// user, ever.
	LinkReferral(ctx context.Context, input *LinkReferralInput) (*LinkReferralOutput, error)
	// ReferralLink builds the user's shareable referral deep link.
	ReferralLink(ctx context.Context, userID string) (*ReferralLinkOutput, error)
}
