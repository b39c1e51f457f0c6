// Package repository provides testify mocks for the domain repository interfaces.
package repository

import (
	"context"
	"testing"
	"time"

	"telepass/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a mock wired to the test's cleanup and
// expectation assertions.
func NewMockUserRepository(t *testing.T) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*entity.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByExternalID(ctx context.Context, externalID int64) (*entity.User, error) {
	args := m.Called(ctx, externalID)
	if user, ok := args.Get(0).(*entity.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByReferralCode(ctx context.Context, code string) (*entity.User, error) {
	args := m.Called(ctx, code)
	if user, ok := args.Get(0).(*entity.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)

	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)

	return args.Error(0)
}

func (m *MockUserRepository) SetReferredBy(ctx context.Context, userID string, referrerID string, at time.Time) error {
	args := m.Called(ctx, userID, referrerID, at)

	return args.Error(0)
}

func (m *MockUserRepository) IncrementReferralCount(ctx context.Context, userID string, delta int) error {
	args := m.Called(ctx, userID, delta)

	return args.Error(0)
}
