// Package service provides testify mocks for the domain service interfaces.
package service

import (
	"testing"
	"time"

	"telepass/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockInitDataValidator is a mock implementation of service.InitDataValidator.
type MockInitDataValidator struct {
	mock.Mock
}

func NewMockInitDataValidator(t *testing.T) *MockInitDataValidator {
	m := &MockInitDataValidator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockInitDataValidator) Validate(initData string, now time.Time) (*service.ValidatedIdentity, error) {
	args := m.Called(initData, now)
	if identity, ok := args.Get(0).(*service.ValidatedIdentity); ok {
		return identity, args.Error(1)
	}

	return nil, args.Error(1)
}

// MockSessionTokenService is a mock implementation of service.SessionTokenService.
type MockSessionTokenService struct {
	mock.Mock
}

func NewMockSessionTokenService(t *testing.T) *MockSessionTokenService {
	m := &MockSessionTokenService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockSessionTokenService) Issue(user service.SessionUser, now time.Time) (string, time.Time, error) {
	args := m.Called(user, now)

	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockSessionTokenService) Verify(token string, now time.Time) (*service.SessionUser, error) {
	args := m.Called(token, now)
	if user, ok := args.Get(0).(*service.SessionUser); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockSessionTokenService) Renew(token string, now time.Time) (string, time.Time, error) {
	args := m.Called(token, now)

	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockSessionTokenService) Duration() time.Duration {
	args := m.Called()

	return args.Get(0).(time.Duration)
}

// MockQRCodeService is a mock implementation of service.QRCodeService.
type MockQRCodeService struct {
	mock.Mock
}

func NewMockQRCodeService(t *testing.T) *MockQRCodeService {
	m := &MockQRCodeService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockQRCodeService) GenerateLinkQR(url string) ([]byte, error) {
	args := m.Called(url)
	if png, ok := args.Get(0).([]byte); ok {
		return png, args.Error(1)
	}

	return nil, args.Error(1)
}
