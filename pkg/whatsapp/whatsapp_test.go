package whatsapp

import (
	"agendabot/pkg/model"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Sí, agendar", 20, "Sí, agendar"},
		{"Volver al menú de horarios", 20, "Volver al menú de..."},
		{"exactly twenty chars", 20, "exactly twenty chars"},
		{"Limpieza dental profunda", 24, "Limpieza dental profunda"},
		{"Limpieza dental profunda con flúor", 24, "Limpieza dental profu..."},
	}
	for _, tt := range tests {
		got := Truncate(tt.in, tt.max)
		assert.Equal(t, tt.want, got)
		assert.LessOrEqual(t, len([]rune(got)), tt.max)
	}
}

func TestNewList_AssignsRowIDsAndTruncates(t *testing.T) {
	rows := []model.ListRow{
		{Title: "Limpieza dental profunda con flúor", Description: "Precio: $500"},
		{Title: "Consulta"},
	}
	p := NewList("5215550001111", "¿Qué servicio deseas agendar?", "Servicios Disponibles", "Ver Servicios", rows)

	require.NotNil(t, p.Interactive)
	assert.Equal(t, "list", p.Interactive.Type)
	section := p.Interactive.Action.Sections[0]
	assert.Equal(t, "Servicios Disponibles", section.Title)
	assert.Equal(t, "row_0", section.Rows[0].ID)
	assert.Equal(t, "row_1", section.Rows[1].ID)
	assert.Equal(t, "Limpieza dental profu...", section.Rows[0].Title)
	assert.Empty(t, section.Rows[1].Description)
}

func TestNewButtons_CapsAtThree(t *testing.T) {
	p := NewButtons("5215550001111", "¿Confirmas?", []string{"Sí, agendar", "No, cancelar", "Tal vez", "Otro"})
	buttons := p.Interactive.Action.Buttons
	require.Len(t, buttons, MaxButtons)
	assert.Equal(t, "btn_0", buttons[0].Reply.ID)
	assert.Equal(t, "reply", buttons[0].Type)
}

func TestFromOutbound(t *testing.T) {
	p, err := FromOutbound("521", model.Text("hola"))
	require.NoError(t, err)
	assert.Equal(t, "text", p.Type)
	assert.Equal(t, "hola", p.Text.Body)

	_, err = FromOutbound("521", model.OutboundMessage{Kind: "carousel"})
	assert.Error(t, err)
}

func TestClient_Send(t *testing.T) {
	var gotPath, gotAuth string
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.X"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token-1", "1234567890")
	require.NoError(t, c.Send(context.Background(), NewText("5215550001111", "Cita agendada con éxito 🎉")))

	assert.Equal(t, "/1234567890/messages", gotPath)
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "5215550001111", got.To)
}

func TestClient_SendReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Recipient phone number not in allowed list","code":131030}}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "t", "1").Send(context.Background(), NewText("521", "hola"))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Recipient phone number not in allowed list", apiErr.Message)
	assert.False(t, apiErr.Temporary())
}
