package commesse

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/operativa/gestionale/internal"
	"github.com/operativa/gestionale/internal/tenant"
	"github.com/operativa/gestionale/internal/transport"
	"github.com/operativa/gestionale/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context, fx FacadeAPI, q ListQuery) ([]*Commessa, error)
	Get(ctx context.Context, fx FacadeAPI, id string) (*Commessa, error)
	Create(ctx context.Context, fx FacadeAPI, dto *CreateCommessaDTO) (*Commessa, error)
	Update(ctx context.Context, fx FacadeAPI, id string, dto *UpdateCommessaDTO) (*Commessa, error)
	Delete(ctx context.Context, fx FacadeAPI, id string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// facade pulls the request's tenant facade; the tenant middleware placed it
// there after resolution, so a missing facade is a wiring bug.
func (h *Handler) facade(w http.ResponseWriter, r *http.Request) *tenant.Facade {
	fx := tenant.FacadeFromContext(r.Context())
	if fx == nil {
		h.Logger.Error("tenant facade missing from request context")
		h.WriteError(w, http.StatusInternalServerError, "internal error")
	}
	return fx
}

func (h *Handler) ListCommesse(w http.ResponseWriter, r *http.Request) {
	fx := h.facade(w, r)
	if fx == nil {
		return
	}

	q := ListQuery{
		Stato:     r.URL.Query().Get("stato"),
		ClienteID: r.URL.Query().Get("cliente_id"),
		OrderBy:   r.URL.Query().Get("order_by"),
	}
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	q.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	result, err := h.Service.List(r.Context(), fx, q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetCommessa(w http.ResponseWriter, r *http.Request) {
	fx := h.facade(w, r)
	if fx == nil {
		return
	}

	result, err := h.Service.Get(r.Context(), fx, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) CreateCommessa(w http.ResponseWriter, r *http.Request) {
	fx := h.facade(w, r)
	if fx == nil {
		return
	}

	var dto CreateCommessaDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateCommessa: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.Create(r.Context(), fx, &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateCommessa: created",
		"commessa_id", result.ID,
		"company_id", internal.TenantIDFromContext(r.Context()))
	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) UpdateCommessa(w http.ResponseWriter, r *http.Request) {
	fx := h.facade(w, r)
	if fx == nil {
		return
	}

	var dto UpdateCommessaDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateCommessa: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.Update(r.Context(), fx, chi.URLParam(r, "id"), &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) DeleteCommessa(w http.ResponseWriter, r *http.Request) {
	fx := h.facade(w, r)
	if fx == nil {
		return
	}

	if err := h.Service.Delete(r.Context(), fx, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
