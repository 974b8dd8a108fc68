package middleware

import (
	"context"
	"net/http"

	"github.com/operativa/gestionale/internal"
	"github.com/operativa/gestionale/internal/identity"
	"github.com/operativa/gestionale/internal/tenant"
	"github.com/operativa/gestionale/pkg/logger"
)

// CompanyIDHeader is the explicit tenant selector for callers whose token
// carries no company binding (or whose binding must be made explicit).
const CompanyIDHeader = "X-Company-Id"

// TenantResolver is what the middleware needs from internal/tenant.
type TenantResolver interface {
	Resolve(ctx context.Context, headerValue string, ident *identity.Identity) (*tenant.Facade, error)
}

// Tenant resolves the request's company and stores the scoped facade in
// context. Runs after Identity: a degraded identity with no explicit header
// is rejected here, as unauthorized rather than not-found.
func Tenant(resolver TenantResolver, base errorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := identity.FromContext(r.Context())

			fx, err := resolver.Resolve(r.Context(), r.Header.Get(CompanyIDHeader), ident)
			if err != nil {
				base.HandleServiceError(w, err)
				return
			}

			ctx := tenant.ContextWithFacade(r.Context(), fx)
			ctx = internal.ContextWithTenantID(ctx, fx.TenantID())
			ctx = logger.With(ctx, "company_id", fx.TenantID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
