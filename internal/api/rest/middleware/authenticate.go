package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/finapp/auth-service/internal/api/rest/handler"
	"github.com/finapp/auth-service/internal/apierrors"
	"github.com/finapp/auth-service/internal/logger"
	"github.com/finapp/auth-service/internal/model"
)

// TokenService resolves identities from bearer tokens.
type TokenService interface {
	Identify(ctx context.Context, token string) (model.Identity, error)
}

// Authenticate validates bearer tokens, re-checks the user against the
// credential store on every request and injects the identity into the
// request context.
type Authenticate struct {
	tokenService   TokenService
	userStore      model.UserStore
	contextManager model.ContextManager
	production     bool
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(
	tokenService TokenService,
	userStore model.UserStore,
	contextManager model.ContextManager,
	production bool,
	logger *logger.Logger,
) *Authenticate {
	return &Authenticate{
		tokenService:   tokenService,
		userStore:      userStore,
		contextManager: contextManager,
		production:     production,
		logger:         logger,
	}
}

// Require rejects requests without a valid access token belonging to an
// existing active user.
func (m *Authenticate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.resolve(r)
		if err != nil {
			handler.WriteError(w, err, m.production)
			return
		}
		next.ServeHTTP(w, r.WithContext(m.contextManager.SetIdentityToContext(r.Context(), identity)))
	})
}

// Optional runs the same resolution but lets anonymous or unverifiable
// requests through without an identity.
func (m *Authenticate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.resolve(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(m.contextManager.SetIdentityToContext(r.Context(), identity)))
	})
}

func (m *Authenticate) resolve(r *http.Request) (model.Identity, error) {
	tokenString := extractBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		return model.Identity{}, apierrors.NewErrMissingToken()
	}

	identity, err := m.tokenService.Identify(r.Context(), tokenString)
	if err != nil {
		m.logger.Debug("Authenticate middleware: token rejected", "error", err.Error())
		if errors.Is(err, model.ErrTokenExpired) {
			return model.Identity{}, apierrors.NewErrTokenExpired()
		}
		return model.Identity{}, apierrors.NewErrInvalidToken()
	}

	user, err := m.userStore.GetByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Identity{}, apierrors.NewErrUserNotFound()
		}
		m.logger.Error("Authenticate middleware: user lookup failed",
			"user_id", identity.UserID,
			"error", err.Error())
		return model.Identity{}, apierrors.NewErrInvalidToken()
	}
	if !user.IsActive {
		return model.Identity{}, apierrors.NewErrUserNotFound()
	}

	if err := m.userStore.UpdateLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		m.logger.Error("Authenticate middleware: failed to update last login",
			"user_id", user.ID,
			"error", err.Error())
	}

	return model.Identity{UserID: user.ID, Email: user.Email}, nil
}

func extractBearer(authHeader string) string {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}
