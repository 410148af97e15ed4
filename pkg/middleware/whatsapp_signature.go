package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	apperrors "agendabot/pkg/errors"
	httputil "agendabot/pkg/http"
	"agendabot/pkg/logger"
)

const signatureHeader = "X-Hub-Signature-256"

// WhatsAppSignatureVerification rejects webhook deliveries whose body does not
// match the Meta app-secret HMAC. The body is restored for the next handler.
func WhatsAppSignatureVerification(appSecret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := strings.TrimPrefix(r.Header.Get(signatureHeader), "sha256=")
			if got == "" {
				reject(w, r, log, "missing signature")
				return
			}

			body, err := io.ReadAll(r.Body)
			_ = r.Body.Close()
			if err != nil {
				reject(w, r, log, "unreadable body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !hmac.Equal([]byte(Sign(body, appSecret)), []byte(strings.ToLower(got))) {
				reject(w, r, log, "signature mismatch")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Sign returns the hex HMAC-SHA256 of body, as sent in X-Hub-Signature-256.
func Sign(body []byte, appSecret string) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func reject(w http.ResponseWriter, r *http.Request, log *logger.Logger, reason string) {
	log.Warn("Webhook signature rejected",
		"request_id", RequestIDFromContext(r.Context()),
		"reason", reason,
		"remote_addr", r.RemoteAddr,
	)
	if err := httputil.WriteError(w, apperrors.Unauthorized("Invalid webhook signature")); err != nil {
		log.Error("failed to write error response", "error", err)
	}
}
