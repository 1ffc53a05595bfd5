package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finapp/auth-service/internal/apierrors"
	"github.com/finapp/auth-service/internal/logger"
	"github.com/finapp/auth-service/internal/model"
)

// TokenService provides high-level operations for issuing, refreshing,
// and revoking tokens. It composes the TokenManager, the refresh token
// ledger and the user store.
type TokenService struct {
	manager    model.TokenManager
	store      model.RefreshTokenStore
	users      model.UserStore
	refreshTTL time.Duration
	logger     *logger.Logger
}

func NewTokenService(
	manager model.TokenManager,
	store model.RefreshTokenStore,
	users model.UserStore,
	refreshTTL time.Duration,
	logger *logger.Logger,
) *TokenService {
	return &TokenService{
		manager:    manager,
		store:      store,
		users:      users,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// Issue mints a token pair for identity and records the refresh token in
// the ledger.
func (s *TokenService) Issue(ctx context.Context, identity model.Identity) (model.TokenPair, error) {
	access, err := s.manager.GenerateAccessToken(identity)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issue access: %w", err)
	}

	refresh, tokenID, err := s.manager.GenerateRefreshToken(identity)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issue refresh: %w", err)
	}

	if err := s.store.Create(ctx, s.newLedgerRow(identity.UserID, tokenID, refresh, nil)); err != nil {
		return model.TokenPair{}, fmt.Errorf("persist refresh: %w", err)
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new pair, rotating the
// ledger row. The stateless signature/expiry/type check runs first, then the
// ledger state, then the owner's account state. Any ledger-level failure
// surfaces as the same client error so callers cannot probe which check
// tripped.
func (s *TokenService) Refresh(ctx context.Context, presentedRefresh string) (model.TokenPair, error) {
	identity, tokenID, err := s.manager.ParseRefreshToken(presentedRefresh)
	if err != nil {
		s.logger.Debug("Token service: refresh token failed verification", "error", err.Error())
		return model.TokenPair{}, apierrors.NewErrInvalidRefreshToken()
	}

	rt, err := s.store.GetByTokenID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, apierrors.NewErrInvalidRefreshToken()
		}
		return model.TokenPair{}, fmt.Errorf("lookup refresh: %w", err)
	}

	if err := validateRecord(rt, identity.UserID, hashRefresh(presentedRefresh), time.Now()); err != nil {
		s.logger.Info("Token service: refresh token rejected",
			"token_id", tokenID,
			"reason", err.Error())
		return model.TokenPair{}, apierrors.NewErrInvalidRefreshToken()
	}

	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, apierrors.NewErrUserNotFound()
		}
		return model.TokenPair{}, fmt.Errorf("lookup refresh owner: %w", err)
	}
	if !user.IsActive {
		return model.TokenPair{}, apierrors.NewErrUserNotFound()
	}

	access, err := s.manager.GenerateAccessToken(identity)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issue new access: %w", err)
	}

	refresh, newTokenID, err := s.manager.GenerateRefreshToken(identity)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issue new refresh: %w", err)
	}

	next := s.newLedgerRow(identity.UserID, newTokenID, refresh, &rt.TokenID)
	if err := s.store.Rotate(ctx, rt.TokenID, next); err != nil {
		if errors.Is(err, model.ErrTokenRevoked) {
			// A concurrent refresh won the rotation.
			return model.TokenPair{}, apierrors.NewErrInvalidRefreshToken()
		}
		return model.TokenPair{}, fmt.Errorf("rotate refresh: %w", err)
	}

	s.logger.Info("Token service: refresh token rotated",
		"user_id", identity.UserID,
		"old_token_id", rt.TokenID,
		"new_token_id", newTokenID)

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RevokeByToken revokes the ledger row for one presented refresh token,
// scoped to userID. An unparseable or unknown token is a no-op: logout
// succeeds regardless.
func (s *TokenService) RevokeByToken(ctx context.Context, userID uuid.UUID, presentedRefresh string) error {
	_, tokenID, err := s.manager.ParseRefreshToken(presentedRefresh)
	if err != nil {
		s.logger.Debug("Token service: ignoring unverifiable refresh token on revoke",
			"user_id", userID,
			"error", err.Error())
		return nil
	}
	return s.store.RevokeByTokenID(ctx, userID, tokenID)
}

// RevokeAllForUser revokes every active refresh token of one user.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return s.store.RevokeAllByUser(ctx, userID)
}

// Identify resolves the identity carried by an access token.
func (s *TokenService) Identify(ctx context.Context, accessToken string) (model.Identity, error) {
	return s.manager.ParseAccessToken(accessToken)
}

func (s *TokenService) newLedgerRow(userID uuid.UUID, tokenID, token string, rotatedFrom *string) model.RefreshToken {
	now := time.Now()
	return model.RefreshToken{
		ID:          uuid.New(),
		TokenID:     tokenID,
		UserID:      userID,
		TokenHash:   hashRefresh(token),
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.refreshTTL),
		RotatedFrom: rotatedFrom,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func hashRefresh(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}

func validateRecord(rt model.RefreshToken, claimedUser uuid.UUID, presentedHash []byte, now time.Time) error {
	if rt.UserID != claimedUser {
		return model.ErrTokenMismatch
	}
	if rt.RevokedAt != nil {
		return model.ErrTokenRevoked
	}
	if now.After(rt.ExpiresAt) {
		return model.ErrTokenExpired
	}
	if !equalBytes(rt.TokenHash, presentedHash) {
		return model.ErrTokenMismatch
	}
	return nil
}

func equalBytes(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
