package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/operativa/gestionale/internal"
	"github.com/operativa/gestionale/internal/tenant"
	"github.com/operativa/gestionale/pkg/logger"
)

// SlugTenantResolver is the test-only resolution path.
type SlugTenantResolver interface {
	ResolveSlug(ctx context.Context, slug string) (*tenant.Facade, error)
}

// SlugTenant resolves the tenant from a URL slug without authentication.
// The resolver itself refuses to work unless the tenancy config enables
// slug resolution, so the gate holds even if a route slips in.
func SlugTenant(resolver SlugTenantResolver, base errorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fx, err := resolver.ResolveSlug(r.Context(), chi.URLParam(r, "slug"))
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
