package tenant_test

import (
	"context"
	"errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operativa/gestionale/internal"
	companydm "github.com/operativa/gestionale/internal/core/datamodel/company"
	"github.com/operativa/gestionale/internal/database"
	"github.com/operativa/gestionale/internal/identity"
	"github.com/operativa/gestionale/internal/tenant"
)

// mockCompanyRepo implements tenant.CompanyRepository in memory.
type mockCompanyRepo struct {
	companies map[string]*companydm.Company
	bySlug    map[string]*companydm.Company
	failWith  error
}

func newMockCompanyRepo() *mockCompanyRepo {
	return &mockCompanyRepo{
		companies: make(map[string]*companydm.Company),
		bySlug:    make(map[string]*companydm.Company),
	}
}

func (m *mockCompanyRepo) add(c *companydm.Company) {
	m.companies[c.ID] = c
	m.bySlug[c.Slug] = c
}

func (m *mockCompanyRepo) Exists(ctx context.Context, id string) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	_, ok := m.companies[id]
	return ok, nil
}

func (m *mockCompanyRepo) GetBySlug(ctx context.Context, slug string) (*companydm.Company, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.bySlug[slug], nil
}

var _ = Describe("Resolver", func() {
	var (
		repo     *mockCompanyRepo
		resolver *tenant.Resolver
		db       *database.DB
		ctx      context.Context
	)

	boundIdentity := func(companyID string) *identity.Identity {
		return &identity.Identity{Subject: "sub-1", CompanyID: companyID}
	}

	BeforeEach(func() {
		mockDB, _, err := sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		db = database.NewFromPool(sqlx.NewDb(mockDB, "pgx"), "test")

		repo = newMockCompanyRepo()
		repo.add(&companydm.Company{ID: tenantID, Slug: "demo-srl", Nome: "Demo S.r.l."})
		resolver = tenant.NewResolver(db, repo, false)
		ctx = context.Background()
	})

	Describe("Resolve", func() {
		Context("with an explicit company header", func() {
			It("returns a facade pinned to the header's company", func() {
				fx, err := resolver.Resolve(ctx, tenantID, boundIdentity(tenantID))
				Expect(err).NotTo(HaveOccurred())
				Expect(fx.TenantID()).To(Equal(tenantID))
			})

			It("rejects a malformed company id as a validation error, not a lookup miss", func() {
				_, err := resolver.Resolve(ctx, "not-a-uuid", boundIdentity(tenantID))
				Expect(err).To(MatchError(internal.ErrInvalidTenantID))
			})

			It("rejects a header naming a different company than the identity's binding", func() {
				_, err := resolver.Resolve(ctx, otherTenantID, boundIdentity(tenantID))
				Expect(err).To(MatchError(internal.ErrTenantMismatch))
			})

			It("rejects a company that does not exist", func() {
				_, err := resolver.Resolve(ctx, otherTenantID, boundIdentity(otherTenantID))
				Expect(err).To(MatchError(internal.ErrTenantNotFound))
			})
		})

		Context("without a header", func() {
			It("falls back to the identity's company binding", func() {
				fx, err := resolver.Resolve(ctx, "", boundIdentity(tenantID))
				Expect(err).NotTo(HaveOccurred())
				Expect(fx.TenantID()).To(Equal(tenantID))
			})

			It("rejects a degraded identity with no binding", func() {
				_, err := resolver.Resolve(ctx, "", &identity.Identity{Subject: "sub-1"})
				Expect(err).To(MatchError(internal.ErrNoTenantBinding))
			})

			It("rejects a nil identity", func() {
				_, err := resolver.Resolve(ctx, "", nil)
				Expect(err).To(MatchError(internal.ErrNoTenantBinding))
			})
		})

		It("wraps repository failures instead of leaking them", func() {
			repo.failWith = errors.New("connection refused")
			_, err := resolver.Resolve(ctx, tenantID, boundIdentity(tenantID))
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
		})
	})

	Describe("ResolveSlug", func() {
		It("refuses slug resolution when the config does not enable it", func() {
			_, err := resolver.ResolveSlug(ctx, "demo-srl")
			Expect(err).To(MatchError(internal.ErrSlugDisabled))
		})

		Context("when enabled", func() {
			BeforeEach(func() {
				resolver = tenant.NewResolver(db, repo, true)
			})

			It("resolves the slug to the company's facade", func() {
				fx, err := resolver.ResolveSlug(ctx, "demo-srl")
				Expect(err).NotTo(HaveOccurred())
				Expect(fx.TenantID()).To(Equal(tenantID))
			})

			It("reports an unknown slug as tenant not found", func() {
				_, err := resolver.ResolveSlug(ctx, "ghost-srl")
				Expect(err).To(MatchError(internal.ErrTenantNotFound))
			})
		})
	})
})
