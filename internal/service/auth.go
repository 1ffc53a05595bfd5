package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finapp/auth-service/internal/apierrors"
	"github.com/finapp/auth-service/internal/logger"
	"github.com/finapp/auth-service/internal/model"
	"github.com/finapp/auth-service/internal/password"
	"github.com/finapp/auth-service/internal/repository/postgres"
)

const (
	maxEmailLength    = 255
	minPasswordLength = 8
	maxPasswordLength = 128
	maxNameLength     = 100
)

// RegisterParams carries validated-at-the-edge registration input.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Auth implements registration, login, logout and identity lookup.
type Auth struct {
	userStore    model.UserStore
	tokenService *TokenService
	logger       *logger.Logger
}

func NewAuth(userStore model.UserStore, tokenService *TokenService, logger *logger.Logger) *Auth {
	return &Auth{
		userStore:    userStore,
		tokenService: tokenService,
		logger:       logger,
	}
}

// Register creates a user and issues the first token pair.
func (a *Auth) Register(ctx context.Context, params RegisterParams) (model.User, model.TokenPair, error) {
	email := normalizeEmail(params.Email)

	if err := validateRegistration(email, params); err != nil {
		return model.User{}, model.TokenPair{}, err
	}

	a.logger.Debug("Auth service: starting user registration", "email", email)

	existing, err := a.userStore.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.User{}, model.TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	if existing.ID != uuid.Nil {
		a.logger.Info("Auth service: user already exists", "email", email)
		return model.User{}, model.TokenPair{}, apierrors.NewErrUserExists()
	}

	hash, err := password.Hash(params.Password)
	if err != nil {
		return model.User{}, model.TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	saved, err := a.userStore.Create(ctx, user)
	if err != nil {
		// Two concurrent registrations can pass the existence check;
		// the unique index decides.
		if errors.Is(err, postgres.ErrDuplicateEmail) {
			return model.User{}, model.TokenPair{}, apierrors.NewErrUserExists()
		}
		a.logger.Error("Auth service: failed to create user",
			"email", email,
			"error", err.Error())
		return model.User{}, model.TokenPair{}, fmt.Errorf("failed to create user: %w", err)
	}

	pair, err := a.tokenService.Issue(ctx, model.Identity{UserID: saved.ID, Email: saved.Email})
	if err != nil {
		return model.User{}, model.TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	a.logger.Info("Auth service: user registered", "email", email, "user_id", saved.ID)

	return saved, pair, nil
}

// Login verifies credentials and issues a token pair. Unknown email,
// deactivated account and wrong password all produce the same error.
func (a *Auth) Login(ctx context.Context, rawEmail, pass string) (model.User, model.TokenPair, error) {
	email := normalizeEmail(rawEmail)

	if email == "" || pass == "" {
		return model.User{}, model.TokenPair{}, apierrors.NewErrValidation("email and password are required")
	}

	a.logger.Debug("Auth service: login attempt", "email", email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.TokenPair{}, apierrors.NewErrInvalidCredentials()
		}
		return model.User{}, model.TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !user.IsActive || !password.Verify(pass, user.PasswordHash) {
		a.logger.Info("Auth service: login rejected", "email", email)
		return model.User{}, model.TokenPair{}, apierrors.NewErrInvalidCredentials()
	}

	pair, err := a.tokenService.Issue(ctx, model.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return model.User{}, model.TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	now := time.Now()
	if err := a.userStore.UpdateLastLogin(ctx, user.ID, now); err != nil {
		a.logger.Error("Auth service: failed to update last login",
			"user_id", user.ID,
			"error", err.Error())
	} else {
		user.LastLoginAt = &now
	}

	a.logger.Info("Auth service: login succeeded", "email", email, "user_id", user.ID)

	return user, pair, nil
}

// Refresh rotates a refresh token for a new pair.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	if refreshToken == "" {
		return model.TokenPair{}, apierrors.NewErrValidation("refreshToken is required")
	}
	return a.tokenService.Refresh(ctx, refreshToken)
}

// Logout revokes one refresh token when supplied, or every active token of
// the user when not. It succeeds even when nothing was left to revoke.
func (a *Auth) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if refreshToken != "" {
		return a.tokenService.RevokeByToken(ctx, userID, refreshToken)
	}
	return a.tokenService.RevokeAllForUser(ctx, userID)
}

// CurrentUser re-reads the user row behind an authenticated request.
func (a *Auth) CurrentUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := a.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, apierrors.NewErrUserNotFound()
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	if !user.IsActive {
		return model.User{}, apierrors.NewErrUserNotFound()
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(email string, params RegisterParams) error {
	if email == "" {
		return apierrors.NewErrValidation("email is required")
	}
	if len(email) > maxEmailLength {
		return apierrors.NewErrValidation("email must be at most 255 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apierrors.NewErrValidation("email is not valid")
	}
	if len(params.Password) < minPasswordLength {
		return apierrors.NewErrValidation("password must be at least 8 characters")
	}
	if len(params.Password) > maxPasswordLength {
		return apierrors.NewErrValidation("password must be at most 128 characters")
	}
	if len(params.FirstName) > maxNameLength || len(params.LastName) > maxNameLength {
		return apierrors.NewErrValidation("names must be at most 100 characters")
	}
	return nil
}
