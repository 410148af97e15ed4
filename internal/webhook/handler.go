package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	apperrors "agendabot/pkg/errors"
	httputil "agendabot/pkg/http"
	"agendabot/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// InboundHandler is satisfied by *Service.
type InboundHandler interface {
	Handle(ctx context.Context, in Inbound) error
}

type WebhookHandler struct {
	service     InboundHandler
	verifyToken string
	log         *logger.Logger
}

func NewWebhookHandler(service InboundHandler, verifyToken string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service:     service,
		verifyToken: verifyToken,
		log:         log,
	}
}

func (h *WebhookHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/webhook/:platform", h.Receive)
	router.GET("/webhook/:platform", h.Verify)
}

// Receive answers 200 once the body parses, whatever happens to the messages
// inside it. Providers retry anything else.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	platform := ps.ByName("platform")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, "Receive", apperrors.InvalidInput("Failed to read request body"))
		return
	}

	inbound, err := Normalize(platform, body)
	if errors.Is(err, ErrUnknownPlatform) {
		h.writeError(w, "Receive", apperrors.NotFound("Platform"))
		return
	}
	if err != nil {
		h.log.Warn("Malformed webhook body", "platform", platform, "error", err)
		h.writeError(w, "Receive", apperrors.InvalidInput("Malformed JSON payload"))
		return
	}

	for _, in := range inbound {
		if err := h.service.Handle(r.Context(), in); err != nil {
			h.log.Error("Failed to handle inbound message",
				"platform", platform,
				"message_id", in.Message.MessageID,
				"customer_id", in.Message.CustomerID,
				"error", err,
			)
		}
	}

	if err := httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "received"}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Receive", "operation", "WriteJSON", "error", err)
	}
}

// Verify answers the Cloud API subscription challenge.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	if query.Get("hub.mode") != "subscribe" || h.verifyToken == "" || query.Get("hub.verify_token") != h.verifyToken {
		h.log.Warn("Webhook verification rejected", "mode", query.Get("hub.mode"))
		w.WriteHeader(http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, query.Get("hub.challenge")); err != nil {
		h.log.Error("failed to write challenge", "handler", "Verify", "error", err)
	}
}

func (h *WebhookHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
