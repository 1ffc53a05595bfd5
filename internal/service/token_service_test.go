package service_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finapp/auth-service/internal/apierrors"
	"github.com/finapp/auth-service/internal/mocks"
	"github.com/finapp/auth-service/internal/model"
	"github.com/finapp/auth-service/internal/service"
	"github.com/finapp/auth-service/internal/testutil"
)

const testRefreshTTL = 7 * 24 * time.Hour

func requireAPICode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, code, apiErr.Code)
}

func TestTokenService_Issue(t *testing.T) {
	ctx := context.Background()
	identity := model.Identity{UserID: uuid.New(), Email: "alice@example.com"}

	manager := &mocks.TokenManager{}
	store := &mocks.RefreshTokenStore{}
	users := &mocks.UserStore{}

	manager.On("GenerateAccessToken", identity).Return("access", nil).Once()
	manager.On("GenerateRefreshToken", identity).Return("refresh", "jti-1", nil).Once()
	store.On("Create", ctx, mock.MatchedBy(func(rt model.RefreshToken) bool {
		return rt.TokenID == "jti-1" && rt.UserID == identity.UserID
	})).Return(nil).Once()

	svc := service.NewTokenService(manager, store, users, testRefreshTTL, testutil.MakeNoopLogger())

	pair, err := svc.Issue(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "access", pair.AccessToken)
	assert.Equal(t, "refresh", pair.RefreshToken)
}

func TestTokenService_Issue_ManagerError(t *testing.T) {
	ctx := context.Background()
	identity := model.Identity{UserID: uuid.New(), Email: "alice@example.com"}

	manager := &mocks.TokenManager{}
	store := &mocks.RefreshTokenStore{}
	users := &mocks.UserStore{}

	manager.On("GenerateAccessToken", identity).Return("", assert.AnError).Once()

	svc := service.NewTokenService(manager, store, users, testRefreshTTL, testutil.MakeNoopLogger())

	_, err := svc.Issue(ctx, identity)
	require.Error(t, err)
}

func TestTokenService_Refresh_Success(t *testing.T) {
	ctx := context.Background()
	identity := model.Identity{UserID: uuid.New(), Email: "alice@example.com"}
	jti := "jti-old"
	presented := "refresh-old"
	h := sha256.Sum256([]byte(presented))

	manager := &mocks.TokenManager{}
	store := &mocks.RefreshTokenStore{}
	users := &mocks.UserStore{}

	manager.On("ParseRefreshToken", presented).Return(identity, jti, nil).Once()
	store.On("GetByTokenID", ctx, jti).Return(model.RefreshToken{
		TokenID:   jti,
		UserID:    identity.UserID,
		TokenHash: h[:],
		IssuedAt:  time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil).Once()
	users.On("GetByID", ctx, identity.UserID).Return(model.User{ID: identity.UserID, Email: identity.Email, IsActive: true}, nil).Once()
	manager.On("GenerateAccessToken", identity).Return("access-new", nil).Once()
	manager.On("GenerateRefreshToken", identity).Return("refresh-new", "jti-new", nil).Once()
	store.On("Rotate", ctx, jti, mock.MatchedBy(func(rt model.RefreshToken) bool {
		return rt.TokenID == "jti-new" && rt.RotatedFrom != nil && *rt.RotatedFrom == jti
	})).Return(nil).Once()

	svc := service.NewTokenService(manager, store, users, testRefreshTTL, testutil.MakeNoopLogger())

	pair, err := svc.Refresh(ctx, presented)
	require.NoError(t, err)
	assert.Equal(t, "access-new", pair.AccessToken)
	assert.Equal(t, "refresh-new", pair.RefreshToken)
}

func TestTokenService_Refresh_StatelessVerificationFails(t *testing.T) {
	ctx := context.Background()

	manager := &mocks.TokenManager{}
	store := &mocks.RefreshTokenStore{}
	users := &mocks.UserStore{}

	manager.On("ParseRefreshToken", "garbled").Return(model.Identity{}, "", model.ErrInvalidToken).Once()

	svc := service.NewTokenService(manager, store, users, testRefreshTTL, testutil.MakeNoopLogger())

	_, err := svc.Refresh(ctx, "garbled")
	requireAPICode(t, err, apierrors.CodeInvalidRefreshToken)
}

func TestTokenService_Refresh_NotInLedger(t *testing.T) {
	ctx := context.Background()
	identity := model.Identity{UserID: uuid.New(), Email: "alice@example.com"}

	manager := &mocks.TokenManager{}
	store := &mocks.RefreshTokenStore{}
	users := &mocks.UserStore{}

	manager.On("ParseRefreshToken", "refresh").Return(identity, "jti", nil).Once()
	store.On("GetByTokenID", ctx, "jti").Return(model.RefreshToken{}, model.ErrNotFound).Once()

	svc := service.NewTokenService(manager, store, users, testRefreshTTL, testutil.MakeNoopLogger())

	_, err := svc.Refresh(ctx, "refresh")
	requireAPICode(t, err, apierrors.CodeInvalidRefreshToken)
}

func TestTokenService_Refresh_Revoked(t *testing.T) {
	ctx := context.Background()
	identity := model.Identity{UserID: uuid.New(), Email: "alice@example.com"}
	now := time.Now()
	h := sha256.Sum256([]byte("refresh"))

	manager := &mocks.TokenManager{}
	store := &mocks.RefreshTokenStore{}
	users := &mocks.UserStore{}

	manager.On("ParseRefreshToken", "refresh").Return(identity, "jti", nil).Once()
	store.On("GetByTokenID", ctx, "jti").Return(model.RefreshToken{
		TokenID:   "jti",
		UserID:    identity.UserID,
		TokenHash: h[:],
		IssuedAt:  now.Add(-time.Hour),
		ExpiresAt: now.Add(time.Hour),
		RevokedAt: &now,
	}, nil).Once()

	svc := service.NewTokenService(manager, store, users, testRefreshTTL, testutil.MakeNoopLogger())

	_, err := svc.Refresh(ctx, "refresh")
	requireAPICode(t, err, apierrors.CodeInvalidRefreshToken)
}

func TestTokenService_Refresh_Expired(t *testing.T) {
	ctx := context.Background()
	identity := model.Identity{UserID: uuid.New(), Email: "alice@example.com"}
	h := sha256.Sum256([]byte("refresh"))

	manager := &mocks.TokenManager{}
	store := &mocks.RefreshTokenStore{}
	users := &mocks.UserStore{}

	manager.On("ParseRefreshToken", "refresh").Return(identity, "jti", nil).Once()
	store.On("GetByTokenID", ctx, "jti").Return(model.RefreshToken{
		TokenID:   "jti",
		UserID:    identity.UserID,
		TokenHash: h[:],
		IssuedAt:  time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}, nil).Once()

	svc := service.NewTokenService(manager, store, users, testRefreshTTL, testutil.MakeNoopLogger())

	_, err := svc.Refresh(ctx, "refresh")
	requireAPICode(t, err, apierrors.CodeInvalidRefreshToken)
}

func TestTokenService_Refresh_OwnerMismatch(t *testing.T) {
	ctx := context.Background()
	identity := model.Identity{UserID: uuid.New(), Email: "alice@example.com"}
	h := sha256.Sum256([]byte("refresh"))

	manager := &mocks.TokenManager{}
	store := &mocks.RefreshTokenStore{}
	users := &mocks.UserStore{}

	manager.On("ParseRefreshToken", "refresh").Return(identity, "jti", nil).Once()
	store.On("GetByTokenID", ctx, "jti").Return(model.RefreshToken{
		TokenID:   "jti",
		UserID:    uuid.New(), // different owner
		TokenHash: h[:],
		IssuedAt:  time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil).Once()

	svc := service.NewTokenService(manager, store, users, testRefreshTTL, testutil.MakeNoopLogger())

	_, err := svc.Refresh(ctx, "refresh")
	requireAPICode(t, err, apierrors.CodeInvalidRefreshToken)
}

func TestTokenService_Refresh_OwnerGoneOrInactive(t *testing.T) {
	tests := []struct {
		name    string
		user    model.User
		userErr error
	}{
		{name: "owner deleted", userErr: model.ErrNotFound},
		{name: "owner deactivated", user: model.User{IsActive: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			identity := model.Identity{UserID: uuid.New(), Email: "alice@example.com"}
			h := sha256.Sum256([]byte("refresh"))

			manager := &mocks.TokenManager{}
			store := &mocks.RefreshTokenStore{}
			users := &mocks.UserStore{}

			manager.On("ParseRefreshToken", "refresh").Return(identity, "jti", nil).Once()
			store.On("GetByTokenID", ctx, "jti").Return(model.RefreshToken{
				TokenID:   "jti",
				UserID:    identity.UserID,
				TokenHash: h[:],
				IssuedAt:  time.Now().Add(-time.Hour),
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil).Once()
			users.On("GetByID", ctx, identity.UserID).Return(tt.user, tt.userErr).Once()

			svc := service.NewTokenService(manager, store, users, testRefreshTTL, testutil.MakeNoopLogger())

			_, err := svc.Refresh(ctx, "refresh")
			requireAPICode(t, err, apierrors.CodeUserNotFound)
		})
	}
}

func TestTokenService_Refresh_LostRotationRace(t *testing.T) {
	ctx := context.Background()
	identity := model.Identity{UserID: uuid.New(), Email: "alice@example.com"}
	h := sha256.Sum256([]byte("refresh"))

	manager := &mocks.TokenManager{}
	store := &mocks.RefreshTokenStore{}
	users := &mocks.UserStore{}

	manager.On("ParseRefreshToken", "refresh").Return(identity, "jti", nil).Once()
	store.On("GetByTokenID", ctx, "jti").Return(model.RefreshToken{
		TokenID:   "jti",
		UserID:    identity.UserID,
		TokenHash: h[:],
		IssuedAt:  time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil).Once()
	users.On("GetByID", ctx, identity.UserID).Return(model.User{ID: identity.UserID, IsActive: true}, nil).Once()
	manager.On("GenerateAccessToken", identity).Return("access-new", nil).Once()
	manager.On("GenerateRefreshToken", identity).Return("refresh-new", "jti-new", nil).Once()
	// A concurrent refresh already revoked the row inside its transaction.
	store.On("Rotate", ctx, "jti", mock.Anything).Return(model.ErrTokenRevoked).Once()

	svc := service.NewTokenService(manager, store, users, testRefreshTTL, testutil.MakeNoopLogger())

	_, err := svc.Refresh(ctx, "refresh")
	requireAPICode(t, err, apierrors.CodeInvalidRefreshToken)
}

func TestTokenService_RevokeByToken(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	manager := &mocks.TokenManager{}
	store := &mocks.RefreshTokenStore{}
	users := &mocks.UserStore{}

	manager.On("ParseRefreshToken", "refresh").Return(model.Identity{UserID: userID}, "jti", nil).Once()
	store.On("RevokeByTokenID", ctx, userID, "jti").Return(nil).Once()

	svc := service.NewTokenService(manager, store, users, testRefreshTTL, testutil.MakeNoopLogger())

	require.NoError(t, svc.RevokeByToken(ctx, userID, "refresh"))
}

func TestTokenService_RevokeByToken_UnverifiableIsNoop(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	manager := &mocks.TokenManager{}
	store := &mocks.RefreshTokenStore{}
	users := &mocks.UserStore{}

	manager.On("ParseRefreshToken", "garbled").Return(model.Identity{}, "", model.ErrInvalidToken).Once()

	svc := service.NewTokenService(manager, store, users, testRefreshTTL, testutil.MakeNoopLogger())

	require.NoError(t, svc.RevokeByToken(ctx, userID, "garbled"))
	store.AssertNotCalled(t, "RevokeByTokenID", mock.Anything, mock.Anything, mock.Anything)
}

func TestTokenService_RevokeAllForUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	manager := &mocks.TokenManager{}
	store := &mocks.RefreshTokenStore{}
	users := &mocks.UserStore{}

	store.On("RevokeAllByUser", ctx, userID).Return(nil).Once()

	svc := service.NewTokenService(manager, store, users, testRefreshTTL, testutil.MakeNoopLogger())

	require.NoError(t, svc.RevokeAllForUser(ctx, userID))
}

func TestTokenService_Identify(t *testing.T) {
	ctx := context.Background()
	identity := model.Identity{UserID: uuid.New(), Email: "alice@example.com"}

	manager := &mocks.TokenManager{}
	store := &mocks.RefreshTokenStore{}
	users := &mocks.UserStore{}

	manager.On("ParseAccessToken", "access").Return(identity, nil).Once()

	svc := service.NewTokenService(manager, store, users, testRefreshTTL, testutil.MakeNoopLogger())

	got, err := svc.Identify(ctx, "access")
	require.NoError(t, err)
	assert.Equal(t, identity, got)

	manager.On("ParseAccessToken", "expired").Return(model.Identity{}, model.ErrTokenExpired).Once()
	_, err = svc.Identify(ctx, "expired")
	require.True(t, errors.Is(err, model.ErrTokenExpired))
}
