package rest

import (
	"net/http"

	"github.com/operativa/gestionale/internal/identity"
	"github.com/operativa/gestionale/internal/transport"
	"github.com/operativa/gestionale/pkg/logger"
)

type MeHandler struct {
	*transport.BaseHandler
}

func NewMeHandler() *MeHandler {
	return &MeHandler{BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper())}
}

type meResponse struct {
	Subject   string `json:"subject"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	Role      string `json:"role,omitempty"`
	Status    string `json:"status,omitempty"`
}

// GetMe echoes the resolved identity, including the degraded form a not yet
// provisioned subject gets.
func (h *MeHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ident := identity.FromContext(r.Context())
	if ident == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.WriteJSON(w, http.StatusOK, meResponse{
		Subject:   ident.Subject,
		UserID:    ident.UserID,
		Email:     ident.Email,
		CompanyID: ident.CompanyID,
		Role:      ident.Role,
		Status:    ident.Status,
	})
}
