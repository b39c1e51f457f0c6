package impl

import (
	"context"
	"strings"
	"testing"
	"time"

	"telepass/internal/domain/entity"
	domainerrors "telepass/internal/domain/errors"
	"telepass/internal/domain/repository"
	"telepass/internal/domain/service"
	mockRepo "telepass/internal/mocks/repository"
	"telepass/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// identityServiceFixtures holds all test dependencies for identity service tests.
type identityServiceFixtures struct {
	service   usecase.IdentityUsecase
	txManager *mockRepo.MockTransactionManager
	userRepo  *mockRepo.MockUserRepository
}

func createTestIdentityService(t *testing.T) identityServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)
	userRepo := mockRepo.NewMockUserRepository(t)

	service := NewIdentityService(IdentityServiceParams{
		TxManager: txManager,
		UserRepo:  userRepo,
		Config:    newTestConfig(),
		Logger:    newDiscardLogger(),
	})

	return identityServiceFixtures{
		service:   service,
		txManager: txManager,
		userRepo:  userRepo,
	}
}

func testIdentity() *service.ValidatedIdentity {
	return &service.ValidatedIdentity{
		User: service.TelegramUser{
			ID:           99281932,
			FirstName:    "Andrew",
			LastName:     "Rogue",
			Username:     "rogue",
			LanguageCode: "en",
		},
		AuthDate: time.Unix(1_700_000_000, 0),
	}
}

func testMeta() usecase.RequestMeta {
	return usecase.RequestMeta{IP: "203.0.113.7", UserAgent: "Telegram-Android/10.0"}
}

func TestIdentityService_ResolveOrCreate_NewUser(t *testing.T) {
	fx := createTestIdentityService(t)
	ctx := context.Background()

	fx.userRepo.On("FindByExternalID", ctx, int64(99281932)).
		Return(nil, repository.ErrUserNotFound).Once()

	var created *entity.User
	fx.userRepo.On("Create", ctx, mock.AnythingOfType("*entity.User")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*entity.User)
		}).
		Return(nil).Once()

	output, err := fx.service.ResolveOrCreate(ctx, testIdentity(), testMeta())

	require.NoError(t, err)
	assert.True(t, output.IsNewUser)
	require.NotNil(t, created)
	assert.Equal(t, "telegram_99281932", created.ID)
	assert.Equal(t, int64(99281932), created.ExternalID)
	assert.Equal(t, "Andrew Rogue", created.DisplayName)
	assert.Equal(t, "rogue", created.Username)

	// Referral code: owner-derived prefix, uppercase, with entropy suffix.
	assert.True(t, strings.HasPrefix(created.ReferralCode, "REF_TELEGRAM_99281932_"))
	assert.Equal(t, strings.ToUpper(created.ReferralCode), created.ReferralCode)
	assert.Greater(t, len(created.ReferralCode), len("REF_TELEGRAM_99281932_"))

	// First login fills both first-seen and last-seen device data.
	assert.Equal(t, "203.0.113.7", created.DeviceInfo.FirstIP)
	assert.Equal(t, "203.0.113.7", created.DeviceInfo.LastIP)
	assert.Equal(t, "Telegram-Android/10.0", created.DeviceInfo.FirstUserAgent)
	assert.False(t, created.DeviceInfo.LastLoginAt.IsZero())

	assert.Nil(t, created.ReferredBy)
	assert.Zero(t, created.ReferralCount)
}

func TestIdentityService_ResolveOrCreate_ExistingUser(t *testing.T) {
	fx := createTestIdentityService(t)
	ctx := context.Background()

	existing := &entity.User{
		ID:           "telegram_99281932",
		ExternalID:   99281932,
		DisplayName:  "Old Name",
		ReferralCode: "REF_TELEGRAM_99281932_OLD",
		DeviceInfo: entity.DeviceInfo{
			FirstIP:        "198.51.100.1",
			FirstUserAgent: "Telegram-iOS/9.0",
		},
	}

	fx.userRepo.On("FindByExternalID", ctx, int64(99281932)).
		Return(existing, nil).Once()

	var updated *entity.User
	fx.userRepo.On("Update", ctx, mock.AnythingOfType("*entity.User")).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(*entity.User)
		}).
		Return(nil).Once()

	output, err := fx.service.ResolveOrCreate(ctx, testIdentity(), testMeta())

	require.NoError(t, err)
	assert.False(t, output.IsNewUser)
	assert.Same(t, existing, output.User)

	require.NotNil(t, updated)
	assert.Equal(t, "Andrew Rogue", updated.DisplayName)

	// First-seen data is immutable; only last-seen moves.
	assert.Equal(t, "198.51.100.1", updated.DeviceInfo.FirstIP)
	assert.Equal(t, "Telegram-iOS/9.0", updated.DeviceInfo.FirstUserAgent)
	assert.Equal(t, "203.0.113.7", updated.DeviceInfo.LastIP)
	assert.Equal(t, "Telegram-Android/10.0", updated.DeviceInfo.LastUserAgent)
}

func TestIdentityService_ResolveOrCreate_CreateRace(t *testing.T) {
	fx := createTestIdentityService(t)
	ctx := context.Background()

	winner := &entity.User{ID: "telegram_99281932", ExternalID: 99281932}

	fx.userRepo.On("FindByExternalID", ctx, int64(99281932)).
		Return(nil, repository.ErrUserNotFound).Once()
	fx.userRepo.On("Create", ctx, mock.AnythingOfType("*entity.User")).
		Return(repository.ErrDuplicateUser).Once()
	fx.userRepo.On("FindByExternalID", ctx, int64(99281932)).
		Return(winner, nil).Once()

	output, err := fx.service.ResolveOrCreate(ctx, testIdentity(), testMeta())

	require.NoError(t, err)
	assert.False(t, output.IsNewUser)
	assert.Same(t, winner, output.User)
}

func TestIdentityService_GetUser_NotFound(t *testing.T) {
	fx := createTestIdentityService(t)
	ctx := context.Background()

	fx.userRepo.On("FindByID", ctx, "telegram_404").
		Return(nil, repository.ErrUserNotFound).Once()

	user, err := fx.service.GetUser(ctx, "telegram_404")

	assert.Nil(t, user)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestIdentityService_LinkReferral_Success(t *testing.T) {
	fx := createTestIdentityService(t)
	ctx := context.Background()

	referee := &entity.User{ID: "telegram_1", ExternalID: 1}
	referrer := &entity.User{ID: "telegram_2", ExternalID: 2, ReferralCode: "REF_TELEGRAM_2_ABCDE"}

	txUserRepo := mockRepo.NewMockUserRepository(t)
	txUserRepo.On("FindByID", ctx, "telegram_1").Return(referee, nil).Once()
	txUserRepo.On("FindByReferralCode", ctx, "REF_TELEGRAM_2_ABCDE").Return(referrer, nil).Once()
	txUserRepo.On("SetReferredBy", ctx, "telegram_1", "telegram_2", mock.AnythingOfType("time.Time")).Return(nil).Once()
	txUserRepo.On("IncrementReferralCount", ctx, "telegram_2", 1).Return(nil).Once()

	factory := mockRepo.NewMockRepositoryFactory(t)
	factory.On("UserRepo").Return(txUserRepo)

	fx.txManager.On("Execute", ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Return(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			return fn(factory)
		}).Once()

	output, err := fx.service.LinkReferral(ctx, &usecase.LinkReferralInput{
		UserID:       "telegram_1",
		ReferralCode: "REF_TELEGRAM_2_ABCDE",
	})

	require.NoError(t, err)
	assert.Same(t, referrer, output.Referrer)
}

func TestIdentityService_LinkReferral_AlreadyReferred(t *testing.T) {
	fx := createTestIdentityService(t)
	ctx := context.Background()

	referrerID := "telegram_9"
	referee := &entity.User{ID: "telegram_1", ReferredBy: &referrerID}

	txUserRepo := mockRepo.NewMockUserRepository(t)
	txUserRepo.On("FindByID", ctx, "telegram_1").Return(referee, nil).Once()

	factory := mockRepo.NewMockRepositoryFactory(t)
	factory.On("UserRepo").Return(txUserRepo)

	fx.txManager.On("Execute", ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Return(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			return fn(factory)
		}).Once()

	output, err := fx.service.LinkReferral(ctx, &usecase.LinkReferralInput{
		UserID:       "telegram_1",
		ReferralCode: "REF_TELEGRAM_2_ABCDE",
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyReferred)
}

func TestIdentityService_LinkReferral_InvalidCode(t *testing.T) {
	fx := createTestIdentityService(t)
	ctx := context.Background()

	referee := &entity.User{ID: "telegram_1"}

	txUserRepo := mockRepo.NewMockUserRepository(t)
	txUserRepo.On("FindByID", ctx, "telegram_1").Return(referee, nil).Once()
	txUserRepo.On("FindByReferralCode", ctx, "REF_NOBODY").Return(nil, repository.ErrUserNotFound).Once()

	factory := mockRepo.NewMockRepositoryFactory(t)
	factory.On("UserRepo").Return(txUserRepo)

	fx.txManager.On("Execute", ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Return(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			return fn(factory)
		}).Once()

	output, err := fx.service.LinkReferral(ctx, &usecase.LinkReferralInput{
		UserID:       "telegram_1",
		ReferralCode: "REF_NOBODY",
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidReferralCode)
}

func TestIdentityService_LinkReferral_SelfReferral(t *testing.T) {
	fx := createTestIdentityService(t)
	ctx := context.Background()

	referee := &entity.User{ID: "telegram_1", ReferralCode: "REF_TELEGRAM_1_SELF"}

	txUserRepo := mockRepo.NewMockUserRepository(t)
	txUserRepo.On("FindByID", ctx, "telegram_1").Return(referee, nil).Once()
	txUserRepo.On("FindByReferralCode", ctx, "REF_TELEGRAM_1_SELF").Return(referee, nil).Once()

	factory := mockRepo.NewMockRepositoryFactory(t)
	factory.On("UserRepo").Return(txUserRepo)

	fx.txManager.On("Execute", ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Return(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			return fn(factory)
		}).Once()

	output, err := fx.service.LinkReferral(ctx, &usecase.LinkReferralInput{
		UserID:       "telegram_1",
		ReferralCode: "REF_TELEGRAM_1_SELF",
	})

	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrSelfReferral)
}

func TestIdentityService_LinkReferral_RaceOnWrite(t *testing.T) {
	fx := createTestIdentityService(t)
	ctx := context.Background()

	referee := &entity.User{ID: "telegram_1"}
	referrer := &entity.User{ID: "telegram_2", ReferralCode: "REF_TELEGRAM_2_ABCDE"}

	txUserRepo := mockRepo.NewMockUserRepository(t)
	txUserRepo.On("FindByID", ctx, "telegram_1").Return(referee, nil).Once()
	txUserRepo.On("FindByReferralCode", ctx, "REF_TELEGRAM_2_ABCDE").Return(referrer, nil).Once()
	txUserRepo.On("SetReferredBy", ctx, "telegram_1", "telegram_2", mock.AnythingOfType("time.Time")).
		Return(repository.ErrReferralAlreadySet).Once()

	factory := mockRepo.NewMockRepositoryFactory(t)
	factory.On("UserRepo").Return(txUserRepo)

	fx.txManager.On("Execute", ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Return(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			return fn(factory)
		}).Once()

	output, err := fx.service.LinkReferral(ctx, &usecase.LinkReferralInput{
		UserID:       "telegram_1",
		ReferralCode: "REF_TELEGRAM_2_ABCDE",
	})

	assert.Nil(t, output)
	// The counter increment must not run when the write loses the race.
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyReferred)
}

func TestIdentityService_ReferralLink(t *testing.T) {
	fx := createTestIdentityService(t)
	ctx := context.Background()

	user := &entity.User{ID: "telegram_1", ReferralCode: "REF_TELEGRAM_1_XYZ"}
	fx.userRepo.On("FindByID", ctx, "telegram_1").Return(user, nil).Once()

	output, err := fx.service.ReferralLink(ctx, "telegram_1")

	require.NoError(t, err)
	assert.Equal(t, "REF_TELEGRAM_1_XYZ", output.Code)
	assert.Equal(t, "https://t.me/telepass_bot/app?startapp=REF_TELEGRAM_1_XYZ", output.URL)
}

func TestGenerateReferralCode_Format(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	code := generateReferralCode("telegram_42", now)

	assert.True(t, strings.HasPrefix(code, "REF_TELEGRAM_42_"))
	assert.Equal(t, strings.ToUpper(code), code)

	// Entropy suffix makes consecutive codes differ even at the same instant.
	other := generateReferralCode("telegram_42", now)
	assert.NotEqual(t, code, other)
}

func TestDisplayNameFrom_Fallback(t *testing.T) {
	name := displayNameFrom(service.TelegramUser{ID: 7})
	assert.Equal(t, "User 7", name)

	name = displayNameFrom(service.TelegramUser{ID: 7, FirstName: "  "})
	assert.Equal(t, "User 7", name)

	name = displayNameFrom(service.TelegramUser{ID: 7, FirstName: "Solo"})
	assert.Equal(t, "Solo", name)
}

func TestIdentityService_ResolveOrCreate_LookupFailure(t *testing.T) {
	fx := createTestIdentityService(t)
	ctx := context.Background()

	fx.userRepo.On("FindByExternalID", ctx, int64(99281932)).
		Return(nil, errors.New("connection refused")).Once()

	output, err := fx.service.ResolveOrCreate(ctx, testIdentity(), testMeta())

	assert.Nil(t, output)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrStoreUnavailable)
}
