package model

import "context"

// ContextManager moves the authenticated identity in and out of request
// contexts.
type ContextManager interface {
	SetIdentityToContext(ctx context.Context, identity Identity) context.Context
	GetIdentityFromContext(ctx context.Context) (Identity, bool)
}
