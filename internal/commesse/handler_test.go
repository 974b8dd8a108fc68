package commesse_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operativa/gestionale/internal"
	"github.com/operativa/gestionale/internal/commesse"
	"github.com/operativa/gestionale/internal/database"
	"github.com/operativa/gestionale/internal/tenant"
)

const testTenantID = "6d1a1a2e-9c3b-4a34-8a71-2f36cf1b0001"

// mockService lets each test script the service layer's answer.
type mockService struct {
	listFn   func(ctx context.Context, fx commesse.FacadeAPI, q commesse.ListQuery) ([]*commesse.Commessa, error)
	getFn    func(ctx context.Context, fx commesse.FacadeAPI, id string) (*commesse.Commessa, error)
	createFn func(ctx context.Context, fx commesse.FacadeAPI, dto *commesse.CreateCommessaDTO) (*commesse.Commessa, error)
	updateFn func(ctx context.Context, fx commesse.FacadeAPI, id string, dto *commesse.UpdateCommessaDTO) (*commesse.Commessa, error)
	deleteFn func(ctx context.Context, fx commesse.FacadeAPI, id string) error
}

func (m *mockService) List(ctx context.Context, fx commesse.FacadeAPI, q commesse.ListQuery) ([]*commesse.Commessa, error) {
	return m.listFn(ctx, fx, q)
}

func (m *mockService) Get(ctx context.Context, fx commesse.FacadeAPI, id string) (*commesse.Commessa, error) {
	return m.getFn(ctx, fx, id)
}

func (m *mockService) Create(ctx context.Context, fx commesse.FacadeAPI, dto *commesse.CreateCommessaDTO) (*commesse.Commessa, error) {
	return m.createFn(ctx, fx, dto)
}

func (m *mockService) Update(ctx context.Context, fx commesse.FacadeAPI, id string, dto *commesse.UpdateCommessaDTO) (*commesse.Commessa, error) {
	return m.updateFn(ctx, fx, id, dto)
}

func (m *mockService) Delete(ctx context.Context, fx commesse.FacadeAPI, id string) error {
	return m.deleteFn(ctx, fx, id)
}

var _ = Describe("Handler", func() {
	var (
		svc     *mockService
		handler *commesse.Handler
		router  *chi.Mux
		fx      *tenant.Facade
	)

	serve := func(req *http.Request, withFacade bool) *httptest.ResponseRecorder {
		if withFacade {
			req = req.WithContext(tenant.ContextWithFacade(req.Context(), fx))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		mockDB, _, err := sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		fx = tenant.NewFacade(database.NewFromPool(sqlx.NewDb(mockDB, "pgx"), "test"), testTenantID)

		svc = &mockService{}
		handler = commesse.NewHandler(svc)

		router = chi.NewRouter()
		router.Get("/commesse", handler.ListCommesse)
		router.Post("/commesse", handler.CreateCommessa)
		router.Get("/commesse/{id}", handler.GetCommessa)
		router.Patch("/commesse/{id}", handler.UpdateCommessa)
		router.Delete("/commesse/{id}", handler.DeleteCommessa)
	})

	Describe("ListCommesse", func() {
		It("parses query filters into the list query", func() {
			var seen commesse.ListQuery
			svc.listFn = func(ctx context.Context, fx commesse.FacadeAPI, q commesse.ListQuery) ([]*commesse.Commessa, error) {
				seen = q
				return []*commesse.Commessa{{ID: "c1", Codice: "COM-001"}}, nil
			}

			req := httptest.NewRequest(http.MethodGet,
				"/commesse?stato=aperta&cliente_id=cli-1&order_by=codice&limit=5&offset=10", nil)
			w := serve(req, true)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(seen.Stato).To(Equal("aperta"))
			Expect(seen.ClienteID).To(Equal("cli-1"))
			Expect(seen.OrderBy).To(Equal("codice"))
			Expect(seen.Limit).To(Equal(5))
			Expect(seen.Offset).To(Equal(10))

			var result []commesse.Commessa
			Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
			Expect(result).To(HaveLen(1))
		})

		It("answers 500 when the facade is missing from the context", func() {
			svc.listFn = func(ctx context.Context, fx commesse.FacadeAPI, q commesse.ListQuery) ([]*commesse.Commessa, error) {
				Fail("service must not be reached without a facade")
				return nil, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/commesse", nil)
			w := serve(req, false)
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("GetCommessa", func() {
		It("maps a not-found service error to 404 with the error body", func() {
			svc.getFn = func(ctx context.Context, fx commesse.FacadeAPI, id string) (*commesse.Commessa, error) {
				return nil, internal.NewNotFoundError("commessa not found", internal.ErrCodeRecordNotFound)
			}

			req := httptest.NewRequest(http.MethodGet, "/commesse/c1", nil)
			w := serve(req, true)

			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(w.Body.String()).To(ContainSubstring("RECORD_NOT_FOUND"))
		})
	})

	Describe("CreateCommessa", func() {
		It("decodes the payload and answers 201 on success", func() {
			svc.createFn = func(ctx context.Context, fx commesse.FacadeAPI, dto *commesse.CreateCommessaDTO) (*commesse.Commessa, error) {
				Expect(dto.Codice).To(Equal("COM-001"))
				return &commesse.Commessa{ID: "c1", Codice: dto.Codice, Titolo: dto.Titolo}, nil
			}

			req := httptest.NewRequest(http.MethodPost, "/commesse",
				strings.NewReader(`{"codice":"COM-001","titolo":"Ristrutturazione"}`))
			w := serve(req, true)

			Expect(w.Code).To(Equal(http.StatusCreated))
		})

		It("answers 400 on a malformed body without reaching the service", func() {
			svc.createFn = func(ctx context.Context, fx commesse.FacadeAPI, dto *commesse.CreateCommessaDTO) (*commesse.Commessa, error) {
				Fail("service must not be reached")
				return nil, nil
			}

			req := httptest.NewRequest(http.MethodPost, "/commesse", strings.NewReader(`{not json`))
			w := serve(req, true)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("maps a conflict to 409", func() {
			svc.createFn = func(ctx context.Context, fx commesse.FacadeAPI, dto *commesse.CreateCommessaDTO) (*commesse.Commessa, error) {
				return nil, internal.NewConflictError("duplicate codice", internal.ErrCodeDuplicateKey)
			}

			req := httptest.NewRequest(http.MethodPost, "/commesse",
				strings.NewReader(`{"codice":"COM-001","titolo":"t"}`))
			w := serve(req, true)
			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("DeleteCommessa", func() {
		It("answers 204 with no body on success", func() {
			svc.deleteFn = func(ctx context.Context, fx commesse.FacadeAPI, id string) error {
				Expect(id).To(Equal("c1"))
				return nil
			}

			req := httptest.NewRequest(http.MethodDelete, "/commesse/c1", nil)
			w := serve(req, true)

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(w.Body.Len()).To(BeZero())
		})
	})

	Describe("UpdateCommessa", func() {
		It("passes the path id and payload through", func() {
			svc.updateFn = func(ctx context.Context, fx commesse.FacadeAPI, id string, dto *commesse.UpdateCommessaDTO) (*commesse.Commessa, error) {
				Expect(id).To(Equal("c1"))
				Expect(dto.Titolo).NotTo(BeNil())
				return &commesse.Commessa{ID: id, Titolo: *dto.Titolo}, nil
			}

			req := httptest.NewRequest(http.MethodPatch, "/commesse/c1",
				strings.NewReader(`{"titolo":"Nuovo titolo"}`))
			w := serve(req, true)
			Expect(w.Code).To(Equal(http.StatusOK))
		})
	})
})
