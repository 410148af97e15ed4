package webhook

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metaTextBody = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA_ID",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "525550001111", "phone_number_id": "1098765"},
        "contacts": [{"profile": {"name": "Ana López"}, "wa_id": "525512345678"}],
        "messages": [{
          "from": "525512345678",
          "id": "wamid.HBgM",
          "timestamp": "1716372000",
          "type": "text",
          "text": {"body": "Hola, quiero una cita"}
        }]
      }
    }]
  }]
}`

const metaListReplyBody = `{
  "object": "whatsapp_business_account",
  "entry": [{"changes": [{"field": "messages", "value": {
    "metadata": {"display_phone_number": "525550001111", "phone_number_id": "1098765"},
    "messages": [{
      "from": "525512345678", "id": "wamid.2", "timestamp": "1716372060", "type": "interactive",
      "interactive": {"type": "list_reply", "list_reply": {"id": "row_0", "title": "Manicura"}}
    }]
  }}]}]
}`

const metaStatusBody = `{
  "object": "whatsapp_business_account",
  "entry": [{"changes": [{"field": "messages", "value": {
    "metadata": {"phone_number_id": "1098765"},
    "statuses": [{"id": "wamid.1", "status": "delivered"}]
  }}]}]
}`

func TestNormalize_Meta(t *testing.T) {
	inbound, err := Normalize(PlatformMeta, []byte(metaTextBody))
	require.NoError(t, err)
	require.Len(t, inbound, 1)

	in := inbound[0]
	assert.Equal(t, "1098765", in.PhoneNumberID)
	assert.Equal(t, "525550001111", in.DisplayNumber)
	assert.Equal(t, "525512345678", in.Message.CustomerID)
	assert.Equal(t, "Ana López", in.Message.SenderName)
	assert.Equal(t, "Hola, quiero una cita", in.Message.Text)
	assert.Equal(t, "wamid.HBgM", in.Message.MessageID)
	assert.Equal(t, time.Unix(1716372000, 0).UTC(), in.Message.Timestamp)
	assert.Nil(t, in.Message.Reply)
}

func TestNormalize_MetaListReply(t *testing.T) {
	inbound, err := Normalize(PlatformMeta, []byte(metaListReplyBody))
	require.NoError(t, err)
	require.Len(t, inbound, 1)
	require.NotNil(t, inbound[0].Message.Reply)
	assert.Equal(t, "Manicura", inbound[0].Message.Reply.Title)
	assert.Equal(t, "Manicura", inbound[0].Message.Content())
}

func TestNormalize_MetaStatusesOnly(t *testing.T) {
	inbound, err := Normalize(PlatformMeta, []byte(metaStatusBody))
	require.NoError(t, err)
	assert.Empty(t, inbound)
}

func TestNormalize_Wati(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCount int
		wantText  string
		wantReply string
	}{
		{
			name:      "text",
			body:      `{"id":"1","whatsappMessageId":"wamid.9","waId":"525512345678","text":"hola","type":"text","timestamp":"1716372000","senderName":"Ana"}`,
			wantCount: 1,
			wantText:  "hola",
		},
		{
			name:      "list reply",
			body:      `{"waId":"525512345678","type":"interactive","listReply":{"title":"Mañana","description":""}}`,
			wantCount: 1,
			wantReply: "Mañana",
		},
		{
			name:      "button reply",
			body:      `{"waId":"525512345678","type":"button","buttonReply":{"text":"Sí, agendar","payload":"btn_0"}}`,
			wantCount: 1,
			wantReply: "Sí, agendar",
		},
		{
			name: "business echo",
			body: `{"waId":"525512345678","text":"Hola","owner":true}`,
		},
		{
			name: "no sender",
			body: `{"text":"Hola"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inbound, err := Normalize(PlatformWati, []byte(tt.body))
			require.NoError(t, err)
			require.Len(t, inbound, tt.wantCount)
			if tt.wantCount == 0 {
				return
			}
			msg := inbound[0].Message
			assert.Equal(t, tt.wantText, msg.Text)
			if tt.wantReply != "" {
				require.NotNil(t, msg.Reply)
				assert.Equal(t, tt.wantReply, msg.Reply.Title)
			}
		})
	}
}

func TestNormalize_Errors(t *testing.T) {
	_, err := Normalize(PlatformMeta, []byte(`{"entry": [`))
	assert.True(t, errors.Is(err, ErrMalformedPayload))

	_, err = Normalize("telegram", []byte(`{}`))
	assert.True(t, errors.Is(err, ErrUnknownPlatform))
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		raw      string
		wantCode string
		wantText string
	}{
		{raw: "PROMO10: quiero una cita", wantCode: "PROMO10", wantText: "quiero una cita"},
		{raw: "abc: uno: dos", wantCode: "abc", wantText: "uno: dos"},
		{raw: "  hola  ", wantText: "hola"},
		{raw: "10:30", wantText: "10:30"},
		{raw: "quiero cita a las: 10", wantText: "quiero cita a las: 10"},
		{raw: ": sin código", wantText: ": sin código"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			code, text := ParseCode(tt.raw)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantText, text)
		})
	}
}
