package webhook

import (
	"bytes"
	"io"
	"net/http"
	"strings"
)

// SenderFromBody is a middleware.SenderExtractor for webhook requests. It
// peeks at the body for the first customer id and leaves the body readable.
func SenderFromBody(r *http.Request) string {
	if r.Body == nil || !strings.HasPrefix(r.URL.Path, "/webhook/") {
		return ""
	}
	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	platform := strings.Trim(strings.TrimPrefix(r.URL.Path, "/webhook/"), "/")
	inbound, err := Normalize(platform, body)
	if err != nil || len(inbound) == 0 {
		return ""
	}
	return inbound[0].Message.CustomerID
}
