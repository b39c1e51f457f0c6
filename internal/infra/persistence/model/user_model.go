package model

import (
	"time"
)

// UserModel mirrors the 'users' table. The primary key is derived from the
// Telegram user ID, so the application assigns it instead of the database.
type UserModel struct {
	ID            string `gorm:"type:varchar(64);primaryKey"`
	ExternalID    int64  `gorm:"uniqueIndex;not null"`
	DisplayName   string `gorm:"type:varchar(255)"`
	Username      string `gorm:"type:varchar(255)"`
	PhotoURL      string `gorm:"type:text"`
	LanguageCode  string `gorm:"type:varchar(16)"`
	ReferralCode  string `gorm:"type:varchar(64);uniqueIndex;not null"`
	ReferralCount int    `gorm:"not null;default:0"`
	ReferredBy    *string
	ReferredAt    *time.Time
	DeviceInfo    DeviceInfoModel `gorm:"embedded;embeddedPrefix:device_"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// DeviceInfoModel holds the embedded login audit columns of 'users'.
type DeviceInfoModel struct {
	FirstIP        string `gorm:"type:varchar(64)"`
	FirstUserAgent string `gorm:"type:text"`
	LastIP         string `gorm:"type:varchar(64)"`
	LastUserAgent  string `gorm:"type:text"`
	LastLoginAt    time.Time
}
