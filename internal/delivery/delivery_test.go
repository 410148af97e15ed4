package delivery

import (
	"agendabot/pkg/kafka"
	"agendabot/pkg/logger"
	"agendabot/pkg/model"
	"agendabot/pkg/whatsapp"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	published []kafka.Message
	err       error
}

func (p *mockPublisher) Publish(_ context.Context, msg kafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

type mockSender struct {
	sendFunc func(ctx context.Context, tenant *model.Tenant, to string, msg model.OutboundMessage) error
	sent     []model.OutboundMessage
}

func (s *mockSender) Send(ctx context.Context, tenant *model.Tenant, to string, msg model.OutboundMessage) error {
	if s.sendFunc != nil {
		if err := s.sendFunc(ctx, tenant, to, msg); err != nil {
			return err
		}
	}
	s.sent = append(s.sent, msg)
	return nil
}

var testTenant = &model.Tenant{ID: "tenant-1", PhoneNumberID: "1098765"}

func TestKafkaSender_KeysByConversation(t *testing.T) {
	pub := &mockPublisher{}
	sender := NewKafkaSender(pub, nil)

	err := sender.Send(context.Background(), testTenant, "5215512345678", model.Buttons("¿Confirmas?", "Sí", "No"))
	require.NoError(t, err)
	require.Len(t, pub.published, 1)

	msg := pub.published[0]
	assert.Equal(t, "tenant-1:5215512345678", msg.Key)
	assert.Equal(t, EventOutboundMessage, msg.GetEventType())
	assert.Equal(t, "tenant-1", msg.GetTenantID())

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, "1098765", env.PhoneNumberID)
	assert.Equal(t, "5215512345678", env.To)
	assert.Equal(t, model.KindButtons, env.Message.Kind)
	assert.Equal(t, []string{"Sí", "No"}, env.Message.Options)
}

func TestKafkaSender_Errors(t *testing.T) {
	sender := NewKafkaSender(&mockPublisher{err: errors.New("broker down")}, nil)
	err := sender.Send(context.Background(), testTenant, "5215512345678", model.Text("hola"))
	require.Error(t, err)

	err = sender.Send(context.Background(), nil, "5215512345678", model.Text("hola"))
	require.Error(t, err)
}

func TestDeliver_StopsAtFirstFailure(t *testing.T) {
	sender := &mockSender{
		sendFunc: func(_ context.Context, _ *model.Tenant, _ string, msg model.OutboundMessage) error {
			if msg.Body == "second" {
				return errors.New("boom")
			}
			return nil
		},
	}
	msgs := []model.OutboundMessage{model.Text("first"), model.Text("second"), model.Text("third")}

	err := Deliver(context.Background(), sender, testTenant, "5215512345678", msgs, logger.Discard())
	require.Error(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "first", sender.sent[0].Body)
}

func TestWhatsAppSender_UsesTenantNumber(t *testing.T) {
	var path string
	var payload whatsapp.Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	sender := NewWhatsAppSender(srv.URL, "token", nil)
	err := sender.Send(context.Background(), testTenant, "5215512345678", model.Text("Hola"))
	require.NoError(t, err)
	assert.Equal(t, "/1098765/messages", path)
	assert.Equal(t, "5215512345678", payload.To)
	require.NotNil(t, payload.Text)
	assert.Equal(t, "Hola", payload.Text.Body)

	err = sender.Send(context.Background(), &model.Tenant{ID: "t"}, "5215512345678", model.Text("Hola"))
	require.Error(t, err)
}

func TestDispatcher_Handle(t *testing.T) {
	envelope := Envelope{TenantID: "tenant-1", PhoneNumberID: "1098765", To: "5215512345678", Message: model.Text("hola")}

	tests := []struct {
		name      string
		value     any
		raw       []byte
		sendErr   error
		wantErr   bool
		errorType kafka.ErrorType
	}{
		{name: "sent", value: envelope},
		{name: "undecodable", raw: []byte("{"), wantErr: true, errorType: kafka.ErrorTypePermanent},
		{name: "missing recipient", value: Envelope{PhoneNumberID: "1"}, wantErr: true, errorType: kafka.ErrorTypePermanent},
		{
			name:      "rejected by api",
			value:     envelope,
			sendErr:   &whatsapp.APIError{StatusCode: http.StatusBadRequest, Message: "bad recipient"},
			wantErr:   true,
			errorType: kafka.ErrorTypePermanent,
		},
		{
			name:      "throttled",
			value:     envelope,
			sendErr:   &whatsapp.APIError{StatusCode: http.StatusTooManyRequests},
			wantErr:   true,
			errorType: kafka.ErrorTypeTransient,
		},
		{name: "network", value: envelope, sendErr: errors.New("dial tcp"), wantErr: true, errorType: kafka.ErrorTypeTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &mockSender{
				sendFunc: func(_ context.Context, tenant *model.Tenant, to string, _ model.OutboundMessage) error {
					assert.Equal(t, "1098765", tenant.PhoneNumberID)
					assert.Equal(t, "5215512345678", to)
					return tt.sendErr
				},
			}
			raw := tt.raw
			if raw == nil {
				var err error
				raw, err = json.Marshal(tt.value)
				require.NoError(t, err)
			}
			msg := kafka.NewRawMessage("tenant-1:5215512345678", raw, kafka.Metadata{EventType: EventOutboundMessage})

			err := NewDispatcher(sender, logger.Discard()).Handle(context.Background(), msg)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Len(t, sender.sent, 1)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.errorType, kafka.ClassifyError(err))
		})
	}
}
