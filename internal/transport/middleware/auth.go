package middleware

import (
	"context"
	"net/http"

	"github.com/operativa/gestionale/internal/identity"
	"github.com/operativa/gestionale/pkg/logger"
)

// IdentityResolver is what the middleware needs from internal/identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, authorizationHeader string) (*identity.Identity, error)
}

// Identity authenticates the request and stores the resolved identity in
// context. A subject without a users row still passes (degraded identity);
// rejecting it is the tenant middleware's call, not this one's.
func Identity(resolver IdentityResolver, base errorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				base.HandleServiceError(w, err)
				return
			}

			ctx := identity.ContextWith(r.Context(), ident)
			ctx = logger.With(ctx, "subject", ident.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// errorWriter is the slice of transport.BaseHandler the middlewares use.
type errorWriter interface {
	HandleServiceError(w http.ResponseWriter, err error)
}
