package handler

import (
	"encoding/json"
	"net/http"

	"agendabot/internal/customers/service"
	apperrors "agendabot/pkg/errors"
	httputil "agendabot/pkg/http"
	"agendabot/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type CustomerHandler struct {
	service service.CustomerService
	log     *logger.Logger
}

func NewCustomerHandler(service service.CustomerService, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: service,
		log:     log,
	}
}

func (h *CustomerHandler) RegisterRoutes(router *httprouter.Router) {
	router.PUT("/api/v1/tenants/:tenant_id/customers/:customer_id/support", h.SetSupport)
}

type supportRequest struct {
	Active *bool `json:"active"`
}

// SetSupport lets a human agent take over a conversation or hand it back to the bot.
func (h *CustomerHandler) SetSupport(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req supportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		h.writeError(w, "SetSupport", apperrors.InvalidInput("Body must be {\"active\": true|false}"))
		return
	}

	if err := h.service.SetHumanSupport(r.Context(), ps.ByName("tenant_id"), ps.ByName("customer_id"), *req.Active); err != nil {
		h.writeError(w, "SetSupport", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
