package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/finapp/auth-service/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents JWT claims with token type, user ID and email.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	TokenType string    `json:"typ"`
}

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// JWT implements TokenManager backed by symmetric HMAC. Access and refresh
// tokens are signed with distinct secrets so one class of token can never
// pass verification as the other.
type JWT struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewJWT creates a new JWT token manager with the provided secrets and TTLs.
func NewJWT(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWT {
	return &JWT{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

var _ model.TokenManager = (*JWT)(nil)

// GenerateAccessToken creates a short-lived access token.
func (j *JWT) GenerateAccessToken(identity model.Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
		UserID:    identity.UserID,
		Email:     identity.Email,
		TokenType: typeAccess,
	})

	tokenString, err := token.SignedString([]byte(j.accessSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// GenerateRefreshToken creates a long-lived refresh token and returns its
// token ID (the jti claim).
func (j *JWT) GenerateRefreshToken(identity model.Identity) (string, string, error) {
	now := time.Now()
	tokenID := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.refreshTTL)),
		},
		UserID:    identity.UserID,
		Email:     identity.Email,
		TokenType: typeRefresh,
	})

	tokenString, err := token.SignedString([]byte(j.refreshSecret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return tokenString, tokenID, nil
}

// ParseAccessToken validates an access token and extracts the identity.
func (j *JWT) ParseAccessToken(tokenString string) (model.Identity, error) {
	claims, err := j.parse(tokenString, j.accessSecret, typeAccess)
	if err != nil {
		return model.Identity{}, err
	}
	return model.Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// ParseRefreshToken validates a refresh token and extracts the identity and
// token ID.
func (j *JWT) ParseRefreshToken(tokenString string) (model.Identity, string, error) {
	claims, err := j.parse(tokenString, j.refreshSecret, typeRefresh)
	if err != nil {
		return model.Identity{}, "", err
	}
	return model.Identity{UserID: claims.UserID, Email: claims.Email}, claims.ID, nil
}

func (j *JWT) parse(tokenString, secret, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, model.ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("%w: got %q", model.ErrWrongTokenType, claims.TokenType)
	}
	return claims, nil
}
