// Package usecase provides testify mocks for the usecase interfaces.
package usecase

import (
	"context"
	"testing"

	"telepass/internal/domain/entity"
	"telepass/internal/domain/service"
	"telepass/internal/usecase"

	"github.com/stretchr/testify/mock"
)

// MockAuthUsecase is a mock implementation of usecase.AuthUsecase.
type MockAuthUsecase struct {
	mock.Mock
}

func NewMockAuthUsecase(t *testing.T) *MockAuthUsecase {
	m := &MockAuthUsecase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockAuthUsecase) VerifyLaunch(ctx context.Context, input *usecase.VerifyLaunchInput) (*usecase.VerifyLaunchOutput, error) {
	args := m.Called(ctx, input)
	if output, ok := args.Get(0).(*usecase.VerifyLaunchOutput); ok {
		return output, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockAuthUsecase) RenewSession(ctx context.Context, token string) (*usecase.RenewSessionOutput, error) {
	args := m.Called(ctx, token)
	if output, ok := args.Get(0).(*usecase.RenewSessionOutput); ok {
		return output, args.Error(1)
	}

	return nil, args.Error(1)
}

// MockIdentityUsecase is a mock implementation of usecase.IdentityUsecase.
type MockIdentityUsecase struct {
	mock.Mock
}

func NewMockIdentityUsecase(t *testing.T) *MockIdentityUsecase {
	m := &MockIdentityUsecase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockIdentityUsecase) ResolveOrCreate(ctx context.Context, identity *service.ValidatedIdentity, meta usecase.RequestMeta) (*usecase.ResolveIdentityOutput, error) {
	args := m.Called(ctx, identity, meta)
	if output, ok := args.Get(0).(*usecase.ResolveIdentityOutput); ok {
		return output, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockIdentityUsecase) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	args := m.Called(ctx, userID)
	if user, ok := args.Get(0).(*entity.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockIdentityUsecase) LinkReferral(ctx context.Context, input *usecase.LinkReferralInput) (*usecase.LinkReferralOutput, error) {
	args := m.Called(ctx, input)
	if output, ok := args.Get(0).(*usecase.LinkReferralOutput); ok {
		return output, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockIdentityUsecase) ReferralLink(ctx context.Context, userID string) (*usecase.ReferralLinkOutput, error) {
	args := m.Called(ctx, userID)
	if output, ok := args.Get(0).(*usecase.ReferralLinkOutput); ok {
		return output, args.Error(1)
	}

	return nil, args.Error(1)
}
