// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"telepass/config"
	deliverycontext "telepass/internal/delivery/context"
	"telepass/internal/domain/entity"
	domainerrors "telepass/internal/domain/errors"
	"telepass/internal/domain/repository"
	"telepass/internal/domain/service"
	"telepass/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const referralCodeRandomLength = 5

// identityService implements the IdentityUsecase interface.
type identityService struct {
	txManager       repository.TransactionManager
	userRepo        repository.UserRepository
	referralBaseURL string
	logger          *slog.Logger
}

// IdentityServiceParams holds dependencies for identityService, injected by Fx.
type IdentityServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	Config    *config.Config
	Logger    *slog.Logger
}

// NewIdentityService is the constructor for identityService. It receives all dependencies as interfaces.
func NewIdentityService(params IdentityServiceParams) usecase.IdentityUsecase {
	referralBaseURL := ""
	if params.Config != nil && params.Config.Referral != nil {
		referralBaseURL = params.Config.Referral.BaseURL
	}

	return &identityService{
		txManager:       params.TxManager,
		userRepo:        params.UserRepo,
		referralBaseURL: referralBaseURL,
		logger:          params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *identityService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ResolveOrCreate finds the account for a verified Telegram identity, creating
// it on first login. A lost create race falls back to the winning row, so
// concurrent first logins converge on a single account.
func (srv *identityService) ResolveOrCreate(ctx context.Context, identity *service.ValidatedIdentity, meta usecase.RequestMeta) (*usecase.ResolveIdentityOutput, error) {
	externalID := identity.User.ID
	now := time.Now()

	existing, err := srv.userRepo.FindByExternalID(ctx, externalID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrapf(domainerrors.ErrStoreUnavailable, "failed to look up user by external id: %v", err)
	}

	if err == nil {
		if err := srv.refreshExistingUser(ctx, existing, identity, meta, now); err != nil {
			return nil, err
		}

		return &usecase.ResolveIdentityOutput{User: existing, IsNewUser: false}, nil
	}

	newUser := buildNewUserEntity(identity, meta, now)

	if err := srv.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			// A concurrent request created the account first; adopt it.
			srv.log(ctx).Info("Lost create race, adopting existing account", slog.Int64("externalID", externalID))

			winner, findErr := srv.userRepo.FindByExternalID(ctx, externalID)
			if findErr != nil {
				return nil, errors.Wrapf(domainerrors.ErrStoreUnavailable, "failed to load user after create race: %v", findErr)
			}

			return &usecase.ResolveIdentityOutput{User: winner, IsNewUser: false}, nil
		}

		srv.log(ctx).Error("Failed to create user", slog.Int64("externalID", externalID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrUserCreationFailed, err.Error())
	}

	srv.log(ctx).Info("Created new user", slog.String("userID", newUser.ID))

	return &usecase.ResolveIdentityOutput{User: newUser, IsNewUser: true}, nil
}

// refreshExistingUser carries the latest Telegram profile and device data onto
// an existing account.
func (srv *identityService) refreshExistingUser(ctx context.Context, user *entity.User, identity *service.ValidatedIdentity, meta usecase.RequestMeta, now time.Time) error {
	user.DisplayName = displayNameFrom(identity.User)
	user.Username = identity.User.Username
	user.PhotoURL = identity.User.PhotoURL
	user.LanguageCode = identity.User.LanguageCode
	user.DeviceInfo.LastIP = meta.IP
	user.DeviceInfo.LastUserAgent = meta.UserAgent
	user.DeviceInfo.LastLoginAt = now

	if err := srv.userRepo.Update(ctx, user); err != nil {
		srv.log(ctx).Error("Failed to refresh user profile", slog.String("userID", user.ID), slog.Any("error", err))

		return errors.Wrapf(domainerrors.ErrStoreUnavailable, "failed to refresh user profile: %v", err)
	}

	return nil
}

// GetUser retrieves a user by internal ID.
func (srv *identityService) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUserNotFound, "user not found")
		}

		return nil, errors.Wrap(err, "failed to find user by id")
	}

	return user, nil
}

// LinkReferral records who referred the user. The whole operation runs in one
// transaction so the referrer's counter and the referee's ledger entry commit
// together or not at all.
func (srv *identityService) LinkReferral(ctx context.Context, input *usecase.LinkReferralInput) (*usecase.LinkReferralOutput, error) {
	srv.log(ctx).Info("Linking referral", slog.String("userID", input.UserID))

	var referrer *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, err := userRepo.FindByID(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return errors.Wrap(domainerrors.ErrUserNotFound, "user not found")
			}

			return errors.Wrap(err, "failed to find user")
		}

		if user.ReferredBy != nil {
			return errors.Wrap(domainerrors.ErrAlreadyReferred, "referrer already recorded")
		}

		referrer, err = userRepo.FindByReferralCode(ctx, input.ReferralCode)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return errors.Wrap(domainerrors.ErrInvalidReferralCode, "referral code not found")
			}

			return errors.Wrap(err, "failed to find referrer")
		}

		if referrer.ID == user.ID {
			return errors.Wrap(domainerrors.ErrSelfReferral, "self referral rejected")
		}

		if err := userRepo.SetReferredBy(ctx, user.ID, referrer.ID, time.Now()); err != nil {
			if errors.Is(err, repository.ErrReferralAlreadySet) {
				// A concurrent link won between the read and the write.
				return errors.Wrap(domainerrors.ErrAlreadyReferred, "referrer already recorded")
			}

			return errors.Wrap(err, "failed to set referrer")
		}

		if err := userRepo.IncrementReferralCount(ctx, referrer.ID, 1); err != nil {
			return errors.Wrap(err, "failed to increment referral count")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to link referral", slog.String("userID", input.UserID), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Info("Referral linked", slog.String("userID", input.UserID), slog.String("referrerID", referrer.ID))

	return &usecase.LinkReferralOutput{Referrer: referrer}, nil
}

// ReferralLink builds the user's shareable referral deep link.
func (srv *identityService) ReferralLink(ctx context.Context, userID string) (*usecase.ReferralLinkOutput, error) {
	user, err := srv.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &usecase.ReferralLinkOutput{
		Code: user.ReferralCode,
		URL:  srv.referralBaseURL + "?startapp=" + user.ReferralCode,
	}, nil
}

// buildNewUserEntity assembles a first-login account from the verified
// Telegram profile.
func buildNewUserEntity(identity *service.ValidatedIdentity, meta usecase.RequestMeta, now time.Time) *entity.User {
	id := entity.UserIDFromExternalID(identity.User.ID)

	return &entity.User{
		ID:           id,
		ExternalID:   identity.User.ID,
		DisplayName:  displayNameFrom(identity.User),
		Username:     identity.User.Username,
		PhotoURL:     identity.User.PhotoURL,
		LanguageCode: identity.User.LanguageCode,
		ReferralCode: generateReferralCode(id, now),
		DeviceInfo: entity.DeviceInfo{
			FirstIP:        meta.IP,
			FirstUserAgent: meta.UserAgent,
			LastIP:         meta.IP,
			LastUserAgent:  meta.UserAgent,
			LastLoginAt:    now,
		},
	}
}

func displayNameFrom(user service.TelegramUser) string {
	name := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if name == "" {
		name = "User " + strconv.FormatInt(user.ID, 10)
	}

	return name
}

// generateReferralCode builds a code that is unique per user and hard to
// guess: the owner's ID, a millisecond timestamp and a random suffix, all in
// base36 uppercase.
func generateReferralCode(userID string, now time.Time) string {
	code := "REF_" + userID + "_" + strconv.FormatInt(now.UnixMilli(), 36) + randomBase36(referralCodeRandomLength)

	return strings.ToUpper(code)
}

func randomBase36(length int) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	var sb strings.Builder
	sb.Grow(length)
	for range length {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			// crypto/rand failing means the platform RNG is broken;
			// there is nothing sensible to fall back to.
			panic(err)
		}
		sb.WriteByte(alphabet[n.Int64()])
	}

	return sb.String()
}
