package common

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated identity attached to a request: the user,
// the tenant every query must be scoped to, and the claims resolved from
// the bearer token.
type Principal struct {
	UserID      uuid.UUID
	TenantID    uuid.UUID
	Roles       []string
	Permissions []string
}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal extracts the principal from the request context.
func GetPrincipal(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// GetUserIDFromContext extracts the authenticated user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := GetPrincipal(ctx)
	if !ok || p.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return p.UserID, true
}

// GetTenantIDFromContext extracts the tenant ID from the request context.
// The tenant always comes from the validated token, never from client input.
func GetTenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := GetPrincipal(ctx)
	if !ok || p.TenantID == uuid.Nil {
		return uuid.Nil, false
	}
	return p.TenantID, true
}
