// Package context moves the authenticated identity through request contexts.
package context

import (
	"context"

	"github.com/finapp/auth-service/internal/model"
)

type ctxKey int

const identityKey ctxKey = iota

// Manager implements model.ContextManager over plain context values.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

var _ model.ContextManager = (*Manager)(nil)

// SetIdentityToContext returns a child context carrying identity.
func (m *Manager) SetIdentityToContext(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentityFromContext retrieves the identity set by the authentication
// middleware, reporting false when the request is anonymous.
func (m *Manager) GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(model.Identity)
	return identity, ok
}
