// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"fmt"
	"time"
)

// User is the durable account created from a verified Telegram identity.
// The internal ID is derived from the Telegram user ID and never changes;
// display fields are refreshed on every login.
type User struct {
	ID            string     // Internal identifier, derived from ExternalID (see UserIDFromExternalID).
	ExternalID    int64      // Telegram user ID. Unique and immutable once set.
	DisplayName   string     // First and last name joined, or a fallback derived from ExternalID.
	Username      string     // Telegram username, if any.
	PhotoURL      string     // Telegram profile photo URL, if any.
	LanguageCode  string     // IETF language tag reported by Telegram, if any.
	ReferralCode  string     // Unique code identifying this user as a referral source. Generated once.
	ReferralCount int        // Number of users this user referred. Only ever incremented.
	ReferredBy    *string    // Internal ID of the referrer. Set at most once.
	ReferredAt    *time.Time // When the referral link was recorded.
	DeviceInfo    DeviceInfo // Audit metadata for the first and most recent login.
	CreatedAt     time.Time  // Timestamp of when this user account was created.
	UpdatedAt     time.Time  // Timestamp of the last modification to this user's data.
}

// DeviceInfo records where the account was created and last seen.
type DeviceInfo struct {
	FirstIP        string
	FirstUserAgent string
	LastIP         string
	LastUserAgent  string
	LastLoginAt    time.Time
}

// UserIDFromExternalID derives the stable internal user ID from a Telegram
// user ID. Storage keys depend on this format; changing it is a breaking
// change covered by a compatibility test.
func UserIDFromExternalID(externalID int64) string {
	return fmt.Sprintf("telegram_%d", externalID)
}
