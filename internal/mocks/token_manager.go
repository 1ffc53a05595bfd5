package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/finapp/auth-service/internal/model"
)

// TokenManager is a mock implementation of model.TokenManager.
type TokenManager struct {
	mock.Mock
}

func NewTokenManager(t interface {
	mock.TestingT
	Cleanup(func())
}) *TokenManager {
	m := &TokenManager{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *TokenManager) GenerateAccessToken(identity model.Identity) (string, error) {
	args := m.Called(identity)
	return args.String(0), args.Error(1)
}

func (m *TokenManager) GenerateRefreshToken(identity model.Identity) (string, string, error) {
	args := m.Called(identity)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *TokenManager) ParseAccessToken(token string) (model.Identity, error) {
	args := m.Called(token)
	return args.Get(0).(model.Identity), args.Error(1)
}

func (m *TokenManager) ParseRefreshToken(token string) (model.Identity, string, error) {
	args := m.Called(token)
	return args.Get(0).(model.Identity), args.String(1), args.Error(2)
}
