package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/finapp/auth-service/internal/model"
)

// TokenService is a mock implementation of the middleware TokenService
// interface.
type TokenService struct {
	mock.Mock
}

func NewTokenService(t interface {
	mock.TestingT
	Cleanup(func())
}) *TokenService {
	m := &TokenService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *TokenService) Identify(ctx context.Context, token string) (model.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.Identity), args.Error(1)
}
