package model

import "errors"

var (
	// ErrNotFound is returned by stores when no row matches.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidToken covers bad signature or otherwise unparseable tokens.
	ErrInvalidToken = errors.New("token invalid")
	// ErrTokenExpired is returned when a token is past its exp claim.
	ErrTokenExpired = errors.New("token expired")
	// ErrWrongTokenType is returned when the typ claim does not match the
	// expected token kind.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrTokenRevoked is returned for ledger rows already revoked.
	ErrTokenRevoked = errors.New("refresh token revoked")
	// ErrTokenMismatch is returned when the presented token does not match
	// the stored hash for its token ID.
	ErrTokenMismatch = errors.New("refresh token mismatch")
)
