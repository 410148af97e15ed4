package whatsapp

import (
	"agendabot/pkg/client"
	"context"
	"fmt"
	"net/url"
)

// APIError is a non-2xx answer from the Cloud API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api returned %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// Client sends messages from one business phone number.
type Client struct {
	http          *client.HttpClient
	phoneNumberID string
}

func NewClient(baseURL, accessToken, phoneNumberID string) *Client {
	hc := client.NewHttpClient(baseURL)
	hc.Headers["Authorization"] = "Bearer " + accessToken
	return &Client{http: hc, phoneNumberID: phoneNumberID}
}

func (c *Client) Send(ctx context.Context, payload Payload) error {
	if c.phoneNumberID == "" {
		return fmt.Errorf("whatsapp: phone number id is not configured")
	}
	resp, err := c.http.POST(ctx, "/"+url.PathEscape(c.phoneNumberID)+"/messages", payload)
	if err != nil {
		return fmt.Errorf("whatsapp: %w", err)
	}
	if !resp.IsSuccess() {
		return &APIError{StatusCode: resp.StatusCode, Message: client.GetErrorMessage(resp)}
	}
	return nil
}
