package identity

import (
	"context"

	"github.com/operativa/gestionale/internal"
)

func ContextWith(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, internal.ContextIdentityKey, ident)
}

// FromContext returns the resolved identity, or nil when the request did not
// pass the identity middleware.
func FromContext(ctx context.Context) *Identity {
	if ctx == nil {
		return nil
	}
	if ident, ok := ctx.Value(internal.ContextIdentityKey).(*Identity); ok {
		return ident
	}
	return nil
}
