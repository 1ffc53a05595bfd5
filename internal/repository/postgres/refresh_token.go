package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/finapp/auth-service/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	db *Connection
}

func NewRefreshTokenRepository(db *Connection) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

const insertQuery = `
        INSERT INTO refresh_tokens (
            id, token_id, user_id, token_hash, issued_at, expires_at, revoked_at, rotated_from, created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
    `

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, insertQuery,
		token.ID, token.TokenID, token.UserID, token.TokenHash, token.IssuedAt, token.ExpiresAt,
		token.RevokedAt, token.RotatedFrom,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByTokenID(ctx context.Context, tokenID string) (model.RefreshToken, error) {
	const query = `
        SELECT id, token_id, user_id, token_hash, issued_at, expires_at, revoked_at, rotated_from, created_at, updated_at
        FROM refresh_tokens WHERE token_id = $1
    `
	var rt model.RefreshToken
	err := r.db.QueryRow(ctx, query, tokenID).Scan(
		&rt.ID, &rt.TokenID, &rt.UserID, &rt.TokenHash, &rt.IssuedAt, &rt.ExpiresAt,
		&rt.RevokedAt, &rt.RotatedFrom, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to get refresh token by token id: %w", err)
	}
	return rt, nil
}

func (r *RefreshTokenRepository) RevokeByTokenID(ctx context.Context, userID uuid.UUID, tokenID string) error {
	const query = `
        UPDATE refresh_tokens SET revoked_at = NOW(), updated_at = NOW()
        WHERE token_id = $1 AND user_id = $2 AND revoked_at IS NULL
    `
	if _, err := r.db.Exec(ctx, query, tokenID, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	const query = `
        UPDATE refresh_tokens SET revoked_at = NOW(), updated_at = NOW()
        WHERE user_id = $1 AND revoked_at IS NULL
    `
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens by user: %w", err)
	}
	return nil
}

// Rotate revokes the old token row and inserts its replacement in one
// transaction. The revoke requires revoked_at IS NULL, so of two concurrent
// rotations of the same token exactly one commits; the other observes zero
// affected rows and fails with ErrTokenRevoked.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldTokenID string, next model.RefreshToken) error {
	if next.ID == uuid.Nil {
		next.ID = uuid.New()
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin rotation transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const revokeQuery = `
        UPDATE refresh_tokens SET revoked_at = NOW(), updated_at = NOW()
        WHERE token_id = $1 AND revoked_at IS NULL
    `
	tag, err := tx.Exec(ctx, revokeQuery, oldTokenID)
	if err != nil {
		return fmt.Errorf("failed to revoke rotated refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenRevoked
	}

	_, err = tx.Exec(ctx, insertQuery,
		next.ID, next.TokenID, next.UserID, next.TokenHash, next.IssuedAt, next.ExpiresAt,
		next.RevokedAt, next.RotatedFrom,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rotated refresh token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rotation transaction: %w", err)
	}
	return nil
}
