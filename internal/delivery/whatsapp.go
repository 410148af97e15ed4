package delivery

import (
	"agendabot/pkg/metrics"
	"agendabot/pkg/model"
	"agendabot/pkg/whatsapp"
	"context"
	"fmt"
	"sync"
)

// WhatsAppSender calls the Cloud API directly, one client per business number.
type WhatsAppSender struct {
	baseURL     string
	accessToken string
	metrics     *metrics.Metrics

	mu      sync.Mutex
	clients map[string]*whatsapp.Client
}

func NewWhatsAppSender(baseURL, accessToken string, m *metrics.Metrics) *WhatsAppSender {
	return &WhatsAppSender{
		baseURL:     baseURL,
		accessToken: accessToken,
		metrics:     m,
		clients:     make(map[string]*whatsapp.Client),
	}
}

func (s *WhatsAppSender) Send(ctx context.Context, tenant *model.Tenant, to string, msg model.OutboundMessage) error {
	if tenant == nil || tenant.PhoneNumberID == "" {
		return fmt.Errorf("tenant has no phone number id")
	}

	payload, err := whatsapp.FromOutbound(to, msg)
	if err == nil {
		err = s.client(tenant.PhoneNumberID).Send(ctx, payload)
	}
	s.metrics.ObserveDelivery(string(msg.Kind), err)
	return err
}

func (s *WhatsAppSender) client(phoneNumberID string) *whatsapp.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[phoneNumberID]
	if !ok {
		c = whatsapp.NewClient(s.baseURL, s.accessToken, phoneNumberID)
		s.clients[phoneNumberID] = c
	}
	return c
}
