package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/finapp/auth-service/internal/apierrors"
	"github.com/finapp/auth-service/internal/logger"
	"github.com/finapp/auth-service/internal/model"
	"github.com/finapp/auth-service/internal/service"
)

// AuthService defines registration, login and session operations.
type AuthService interface {
	Register(ctx context.Context, params service.RegisterParams) (model.User, model.TokenPair, error)
	Login(ctx context.Context, email, password string) (model.User, model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error
	CurrentUser(ctx context.Context, userID uuid.UUID) (model.User, error)
}

// Auth handles the HTTP endpoints for authentication.
type Auth struct {
	authService    AuthService
	contextManager model.ContextManager
	production     bool
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, contextManager model.ContextManager, production bool, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		production:     production,
		logger:         logger,
	}
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLoginAt,
	}
}

func toTokensResponse(p model.TokenPair) tokensResponse {
	return tokensResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

// Register handles POST /api/auth/register.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, apierrors.NewErrValidation("request body must be valid JSON"), h.production)
		return
	}

	user, pair, err := h.authService.Register(r.Context(), service.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.logger.Error("Auth handler: registration failed",
			"email", req.Email,
			"error", err.Error())
		WriteError(w, err, h.production)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "user registered successfully",
		"user":    toUserResponse(user),
		"tokens":  toTokensResponse(pair),
	})
}

// Login handles POST /api/auth/login.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, apierrors.NewErrValidation("request body must be valid JSON"), h.production)
		return
	}

	user, pair, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("Auth handler: login failed",
			"email", req.Email,
			"error", err.Error())
		WriteError(w, err, h.production)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "login successful",
		"user":    toUserResponse(user),
		"tokens":  toTokensResponse(pair),
	})
}

// Refresh handles POST /api/auth/refresh.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, apierrors.NewErrValidation("request body must be valid JSON"), h.production)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.logger.Info("Auth handler: refresh failed", "error", err.Error())
		WriteError(w, err, h.production)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "token refreshed successfully",
		"tokens":  toTokensResponse(pair),
	})
}

// Logout handles POST /api/auth/logout. Requires authentication; the body
// may name one refresh token to revoke, otherwise every session is revoked.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		WriteError(w, apierrors.NewErrMissingToken(), h.production)
		return
	}

	var req logoutRequest
	// An empty or absent body means logout-everywhere.
	_ = decodeJSON(w, r, &req)

	if err := h.authService.Logout(r.Context(), identity.UserID, req.RefreshToken); err != nil {
		h.logger.Error("Auth handler: logout failed",
			"user_id", identity.UserID,
			"error", err.Error())
		WriteError(w, err, h.production)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "logout successful",
	})
}

// Me handles GET /api/auth/me.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		WriteError(w, apierrors.NewErrMissingToken(), h.production)
		return
	}

	user, err := h.authService.CurrentUser(r.Context(), identity.UserID)
	if err != nil {
		WriteError(w, err, h.production)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserResponse(user),
	})
}
