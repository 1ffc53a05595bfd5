package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/finapp/auth-service/internal/model"
)

// RefreshTokenStore is a mock implementation of model.RefreshTokenStore.
type RefreshTokenStore struct {
	mock.Mock
}

func NewRefreshTokenStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *RefreshTokenStore {
	m := &RefreshTokenStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *RefreshTokenStore) Create(ctx context.Context, token model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *RefreshTokenStore) GetByTokenID(ctx context.Context, tokenID string) (model.RefreshToken, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(model.RefreshToken), args.Error(1)
}

func (m *RefreshTokenStore) RevokeByTokenID(ctx context.Context, userID uuid.UUID, tokenID string) error {
	args := m.Called(ctx, userID, tokenID)
	return args.Error(0)
}

func (m *RefreshTokenStore) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *RefreshTokenStore) Rotate(ctx context.Context, oldTokenID string, next model.RefreshToken) error {
	args := m.Called(ctx, oldTokenID, next)
	return args.Error(0)
}
