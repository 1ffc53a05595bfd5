package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/finapp/auth-service/internal/model"
	"github.com/finapp/auth-service/internal/service"
)

// AuthService is a mock implementation of the handler AuthService interface.
type AuthService struct {
	mock.Mock
}

func NewAuthService(t interface {
	mock.TestingT
	Cleanup(func())
}) *AuthService {
	m := &AuthService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *AuthService) Register(ctx context.Context, params service.RegisterParams) (model.User, model.TokenPair, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.User), args.Get(1).(model.TokenPair), args.Error(2)
}

func (m *AuthService) Login(ctx context.Context, email, password string) (model.User, model.TokenPair, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(model.User), args.Get(1).(model.TokenPair), args.Error(2)
}

func (m *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(model.TokenPair), args.Error(1)
}

func (m *AuthService) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	args := m.Called(ctx, userID, refreshToken)
	return args.Error(0)
}

func (m *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.User), args.Error(1)
}
