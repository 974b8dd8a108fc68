package tenant

import (
	"context"

	"github.com/google/uuid"

	"github.com/operativa/gestionale/internal"
	companydm "github.com/operativa/gestionale/internal/core/datamodel/company"
	"github.com/operativa/gestionale/internal/database"
	"github.com/operativa/gestionale/internal/identity"
)

// CompanyRepository is the lookup side of tenant resolution.
type CompanyRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	GetBySlug(ctx context.Context, slug string) (*companydm.Company, error)
}

// Resolver turns a request's explicit company header or resolved identity
// into a validated tenant and hands out the scoped facade. Both the
// production UUID path and the test-only slug path funnel through the same
// facade construction.
type Resolver struct {
	db        *database.DB
	companies CompanyRepository
	allowSlug bool
}

func NewResolver(db *database.DB, companies CompanyRepository, allowSlug bool) *Resolver {
	return &Resolver{db: db, companies: companies, allowSlug: allowSlug}
}

// Resolve validates and confirms the tenant, preferring an explicit
// X-Company-Id header over the identity's company binding. An identity
// bound to a different company than the header names is rejected before
// any lookup.
func (r *Resolver) Resolve(ctx context.Context, headerValue string, ident *identity.Identity) (*Facade, error) {
	tenantID := headerValue
	if tenantID == "" {
		if ident == nil || !ident.HasCompanyBinding() {
			return nil, internal.ErrNoTenantBinding
		}
		tenantID = ident.CompanyID
	}

	if _, err := uuid.Parse(tenantID); err != nil {
		return nil, internal.ErrInvalidTenantID
	}

	if ident != nil && ident.HasCompanyBinding() && ident.CompanyID != tenantID {
		return nil, internal.ErrTenantMismatch
	}

	exists, err := r.companies.Exists(ctx, tenantID)
	if err != nil {
		return nil, internal.NewInternalError("confirming tenant", err)
	}
	if !exists {
		return nil, internal.ErrTenantNotFound
	}

	return NewFacade(r.db, tenantID), nil
}

// ResolveSlug resolves a tenant from its human-readable slug. This path is
// for test routing only and is hard-disabled unless the tenancy config
// enables it; production configs never do.
func (r *Resolver) ResolveSlug(ctx context.Context, slug string) (*Facade, error) {
	if !r.allowSlug {
		return nil, internal.ErrSlugDisabled
	}

	company, err := r.companies.GetBySlug(ctx, slug)
	if err != nil {
		return nil, internal.NewInternalError("looking up tenant by slug", err)
	}
	if company == nil {
		return nil, internal.ErrTenantNotFound
	}

	return NewFacade(r.db, company.ID), nil
}
