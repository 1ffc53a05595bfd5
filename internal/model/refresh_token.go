package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenStore defines the persisted refresh token ledger.
// Rows are never deleted; revocation flips revoked_at. Rotate must run
// revoke-old plus insert-new in a single transaction so that two concurrent
// rotations of the same token cannot both succeed.
type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	GetByTokenID(ctx context.Context, tokenID string) (RefreshToken, error)
	RevokeByTokenID(ctx context.Context, userID uuid.UUID, tokenID string) error
	RevokeAllByUser(ctx context.Context, userID uuid.UUID) error
	Rotate(ctx context.Context, oldTokenID string, next RefreshToken) error
}

// RefreshToken is a ledger row for one issued refresh token.
// TokenID mirrors the token's jti claim; TokenHash is a SHA-256 of the
// signed token string, the raw token is never persisted.
type RefreshToken struct {
	ID          uuid.UUID
	TokenID     string
	UserID      uuid.UUID
	TokenHash   []byte
	IssuedAt    time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	RotatedFrom *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
