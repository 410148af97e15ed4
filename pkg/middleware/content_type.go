package middleware

import (
	apperrors "agendabot/pkg/errors"
	httputil "agendabot/pkg/http"
	"agendabot/pkg/logger"
	"mime"
	"net/http"
)

// ContentTypeValidation requires a JSON body on methods that carry one.
// Parameters such as charset are accepted. Bodiless commands such as
// POST .../cancel pass through.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !carriesBody(r.Method) || (r.ContentLength == 0 && r.Header.Get("Content-Type") == "") {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				log.Warn("Invalid Content-Type header",
					"request_id", RequestIDFromContext(r.Context()),
					"content_type", r.Header.Get("Content-Type"),
					"path", r.URL.Path,
					"method", r.Method,
				)
				_ = httputil.WriteError(w, apperrors.UnsupportedMediaType("Content-Type must be application/json"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func carriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}
