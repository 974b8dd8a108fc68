package tenant

import "context"

type ctxKey string

const facadeKey ctxKey = "tenantFacade"

func ContextWithFacade(ctx context.Context, f *Facade) context.Context {
	return context.WithValue(ctx, facadeKey, f)
}

// FacadeFromContext returns the request's scoped facade, or nil when the
// request did not pass tenant resolution.
func FacadeFromContext(ctx context.Context) *Facade {
	if ctx == nil {
		return nil
	}
	if f, ok := ctx.Value(facadeKey).(*Facade); ok {
		return f
	}
	return nil
}
