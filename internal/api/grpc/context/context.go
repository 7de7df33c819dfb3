package context

import (
	"context"
	"slices"

	"github.com/dtroode/authkeeper/internal/model"
)

type principalKey struct{}

var _ model.ContextManager = (*Manager)(nil)

// Manager stores the authenticated principal of a gRPC request in its context.
// Incoming metadata is never consulted.
type Manager struct{}

// NewManager creates a new gRPC context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetPrincipalToContext returns a copy of ctx carrying principal.
func (m *Manager) SetPrincipalToContext(ctx context.Context, principal model.Principal) context.Context {
	principal.Permissions = slices.Clone(principal.Permissions)
	return context.WithValue(ctx, principalKey{}, principal)
}

// GetPrincipalFromContext returns the principal set by SetPrincipalToContext.
func (m *Manager) GetPrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(model.Principal)
	if !ok {
		return model.Principal{}, false
	}
	return principal, true
}
