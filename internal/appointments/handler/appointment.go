package handler

import (
	"net/http"

	"agendabot/internal/appointments/service"
	apperrors "agendabot/pkg/errors"
	httputil "agendabot/pkg/http"
	"agendabot/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// AppointmentHandler exposes the ledger to back-office tools.
type AppointmentHandler struct {
	service service.LedgerService
	log     *logger.Logger
}

func NewAppointmentHandler(service service.LedgerService, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
		log:     log,
	}
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/tenants/:tenant_id/appointments", h.List)
	router.GET("/api/v1/tenants/:tenant_id/appointments/:folio", h.GetByFolio)
	router.POST("/api/v1/tenants/:tenant_id/appointments/:folio/cancel", h.Cancel)
	router.GET("/api/v1/tenants/:tenant_id/availability", h.Availability)
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	appointments, total, err := h.service.ListByCustomer(r.Context(), ps.ByName("tenant_id"), r.URL.Query().Get("customer_id"), limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, appointments, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *AppointmentHandler) GetByFolio(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	appointment, err := h.service.GetByFolio(r.Context(), ps.ByName("tenant_id"), ps.ByName("folio"))
	if err != nil {
		h.writeError(w, "GetByFolio", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointment); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByFolio", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	appointment, err := h.service.CancelAppointment(r.Context(), ps.ByName("tenant_id"), ps.ByName("folio"))
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointment); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

type availabilityResponse struct {
	ServiceID string `json:"service_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

func (h *AppointmentHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()
	serviceID, date, clock := query.Get("service_id"), query.Get("date"), query.Get("time")
	if serviceID == "" || date == "" || clock == "" {
		h.writeError(w, "Availability", apperrors.InvalidInput("service_id, date and time query parameters are required"))
		return
	}

	available, err := h.service.CheckAvailability(r.Context(), ps.ByName("tenant_id"), serviceID, date, clock)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, availabilityResponse{
		ServiceID: serviceID,
		Date:      date,
		Time:      clock,
		Available: available,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
