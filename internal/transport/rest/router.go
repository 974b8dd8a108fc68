package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/operativa/gestionale/internal"
	"github.com/operativa/gestionale/internal/commesse"
	"github.com/operativa/gestionale/internal/database"
	"github.com/operativa/gestionale/internal/transport"
	"github.com/operativa/gestionale/internal/transport/middleware"
	"github.com/operativa/gestionale/internal/transport/swagger"
)

// Deps carries the constructed core components the router wires together.
type Deps struct {
	DB              *database.DB
	Identity        middleware.IdentityResolver
	Tenant          middleware.TenantResolver
	SlugTenant      middleware.SlugTenantResolver
	CommesseHandler *commesse.Handler
	Config          *internal.Config
	Logger          *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps Deps) {
	healthHandler := NewHealthHandler(deps.DB)
	meHandler := NewMeHandler()
	base := transport.NewBaseHandler(deps.Logger)

	router.Use(middleware.CORS(deps.Config.Server.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.RecoveryMiddleware(deps.Logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Authenticated surface
		r.Group(func(ar chi.Router) {
			ar.Use(middleware.Identity(deps.Identity, base))

			ar.Get("/me", meHandler.GetMe)

			// Tenant-scoped surface
			ar.Group(func(tr chi.Router) {
				tr.Use(middleware.Tenant(deps.Tenant, base))

				tr.Get("/company", NewCompanyHandler().GetCompany)

				if deps.CommesseHandler != nil {
					tr.Route("/commesse", func(cr chi.Router) {
						cr.Get("/", deps.CommesseHandler.ListCommesse)
						cr.Post("/", deps.CommesseHandler.CreateCommessa)
						cr.Get("/{id}", deps.CommesseHandler.GetCommessa)
						cr.Patch("/{id}", deps.CommesseHandler.UpdateCommessa)
						cr.Delete("/{id}", deps.CommesseHandler.DeleteCommessa)
					})
				}
			})
		})
	})

	// Test-only slug routing, mounted only when the environment enables it.
	// Production configs never do, so the path does not exist there.
	if deps.Config.Tenancy.AllowSlugResolution && deps.SlugTenant != nil {
		router.Route("/api/test/companies/{slug}", func(r chi.Router) {
			r.Use(middleware.SlugTenant(deps.SlugTenant, base))

			if deps.CommesseHandler != nil {
				r.Get("/commesse", deps.CommesseHandler.ListCommesse)
			}
		})
	}
}
