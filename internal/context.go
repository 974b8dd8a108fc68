package internal

import "context"

type ctxKey string

const (
	ContextIdentityKey ctxKey = "identity"
	ContextTenantKey   ctxKey = "tenantID"
)

// TenantIDFromContext returns the resolved tenant (company) id, or "" when
// the request has not passed tenant resolution.
func TenantIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if tenantID, ok := ctx.Value(ContextTenantKey).(string); ok {
		return tenantID
	}
	return ""
}

func ContextWithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ContextTenantKey, tenantID)
}
