package postgres

import (
	"context"
	"time"

	"telepass/internal/domain/entity"
	"telepass/internal/domain/repository"
	"telepass/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a domain.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a single user by their internal ID.
func (repo *userRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&userM).Error; err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		// Otherwise, return the original database error.
		return nil, errors.Wrap(err, "failed to find user by id")
	}

	// Map the persistence model back to a pure domain entity before returning.
	return toUserDomain(&userM), nil
}

// FindByExternalID retrieves a single user by their Telegram user ID.
func (repo *userRepository) FindByExternalID(ctx context.Context, externalID int64) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where("external_id = ?", externalID).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by external id")
	}

	return toUserDomain(&userM), nil
}

// FindByReferralCode retrieves a single user by their referral code.
func (repo *userRepository) FindByReferralCode(ctx context.Context, code string) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where("referral_code = ?", code).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by referral code")
	}

	return toUserDomain(&userM), nil
}

// Create persists a new user. A unique violation on external_id means a
// concurrent request created the row first; the caller re-fetches the winner.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateUser
		}

		return errors.Wrap(err, "failed to create user")
	}

	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// Update persists mutable profile and device fields of an existing user.
// The referral ledger columns are excluded; they change only through
// SetReferredBy and IncrementReferralCount.
func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	result := repo.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("id = ?", userM.ID).
		Updates(map[string]any{
			"display_name":           userM.DisplayName,
			"username":               userM.Username,
			"photo_url":              userM.PhotoURL,
			"language_code":          userM.LanguageCode,
			"device_last_ip":         userM.DeviceInfo.LastIP,
			"device_last_user_agent": userM.DeviceInfo.LastUserAgent,
			"device_last_login_at":   userM.DeviceInfo.LastLoginAt,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// SetReferredBy records the referrer exactly once. The WHERE guard on a NULL
// referred_by makes the write race-safe without a prior read.
func (repo *userRepository) SetReferredBy(ctx context.Context, userID string, referrerID string, at time.Time) error {
	result := repo.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("id = ? AND referred_by IS NULL", userID).
		Updates(map[string]any{
			"referred_by": referrerID,
			"referred_at": at,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to set referrer")
	}
	if result.RowsAffected == 0 {
		// Either the user does not exist or the referrer is already set;
		// distinguish so callers can report accurately.
		var count int64
		if err := repo.db.WithContext(ctx).Model(&model.UserModel{}).
			Where("id = ?", userID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "failed to check user existence")
		}
		if count == 0 {
			return repository.ErrUserNotFound
		}

		return repository.ErrReferralAlreadySet
	}

	return nil
}

// IncrementReferralCount atomically adds delta to the user's referral counter.
func (repo *userRepository) IncrementReferralCount(ctx context.Context, userID string, delta int) error {
	result := repo.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("id = ?", userID).
		UpdateColumn("referral_count", gorm.Expr("referral_count + ?", delta))
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to increment referral count")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// --- Mapper Functions ---
// These helpers convert between domain entities and persistence models.

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:            data.ID,
		ExternalID:    data.ExternalID,
		DisplayName:   data.DisplayName,
		Username:      data.Username,
		PhotoURL:      data.PhotoURL,
		LanguageCode:  data.LanguageCode,
		ReferralCode:  data.ReferralCode,
		ReferralCount: data.ReferralCount,
		ReferredBy:    data.ReferredBy,
		ReferredAt:    data.ReferredAt,
		DeviceInfo: entity.DeviceInfo{
			FirstIP:        data.DeviceInfo.FirstIP,
			FirstUserAgent: data.DeviceInfo.FirstUserAgent,
			LastIP:         data.DeviceInfo.LastIP,
			LastUserAgent:  data.DeviceInfo.LastUserAgent,
			LastLoginAt:    data.DeviceInfo.LastLoginAt,
		},
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

// fromUserDomain converts a domain User entity to a GORM UserModel for persistence.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:            data.ID,
		ExternalID:    data.ExternalID,
		DisplayName:   data.DisplayName,
		Username:      data.Username,
		PhotoURL:      data.PhotoURL,
		LanguageCode:  data.LanguageCode,
		ReferralCode:  data.ReferralCode,
		ReferralCount: data.ReferralCount,
		ReferredBy:    data.ReferredBy,
		ReferredAt:    data.ReferredAt,
		DeviceInfo: model.DeviceInfoModel{
			FirstIP:        data.DeviceInfo.FirstIP,
			FirstUserAgent: data.DeviceInfo.FirstUserAgent,
			LastIP:         data.DeviceInfo.LastIP,
			LastUserAgent:  data.DeviceInfo.LastUserAgent,
			LastLoginAt:    data.DeviceInfo.LastLoginAt,
		},
	}
}
