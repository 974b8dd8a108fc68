package rest

import (
	"net/http"

	"github.com/operativa/gestionale/internal/tenant"
	"github.com/operativa/gestionale/internal/transport"
	"github.com/operativa/gestionale/pkg/logger"
)

type CompanyHandler struct {
	*transport.BaseHandler
}

func NewCompanyHandler() *CompanyHandler {
	return &CompanyHandler{BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper())}
}

// GetCompany returns the resolved tenant's own company row.
func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	fx := tenant.FacadeFromContext(r.Context())
	if fx == nil {
		h.Logger.Error("tenant facade missing from request context")
		h.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	row, err := fx.CompanyProfile(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if row == nil {
		h.WriteError(w, http.StatusNotFound, "company not found")
		return
	}
	h.WriteJSON(w, http.StatusOK, row)
}
