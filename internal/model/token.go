package model

import "github.com/google/uuid"

// Identity is the payload carried by both token types.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// TokenPair bundles one access and one refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenManager generates and validates access/refresh tokens.
// Parsing is stateless: it checks signature, expiry and declared type only.
// The ledger check for refresh tokens is layered on top by the token service.
type TokenManager interface {
	GenerateAccessToken(identity Identity) (string, error)
	GenerateRefreshToken(identity Identity) (token string, tokenID string, err error)
	ParseAccessToken(token string) (Identity, error)
	ParseRefreshToken(token string) (identity Identity, tokenID string, err error)
}
