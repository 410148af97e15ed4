package webhook

import (
	"agendabot/pkg/model"
	"agendabot/pkg/sanitizer"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	PlatformMeta = "meta"
	PlatformWati = "wati"
)

var (
	ErrMalformedPayload = errors.New("malformed webhook payload")
	ErrUnknownPlatform  = errors.New("unknown webhook platform")
)

// Inbound is one customer message together with the business number it was
// sent to. WATI does not report the business number, so both fields are empty
// for it and the default tenant answers.
type Inbound struct {
	Platform      string
	PhoneNumberID string
	DisplayNumber string
	Message       model.InboundMessage
}

// Normalize turns a provider webhook body into inbound messages. Status
// callbacks and messages from unknown senders yield nothing.
func Normalize(platform string, body []byte) ([]Inbound, error) {
	switch platform {
	case PlatformMeta:
		var payload metaPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return payload.inbound(), nil
	case PlatformWati:
		var payload watiPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return payload.inbound(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}
}

type metaPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string    `json:"field"`
			Value metaValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type metaValue struct {
	Metadata struct {
		DisplayPhoneNumber string `json:"display_phone_number"`
		PhoneNumberID      string `json:"phone_number_id"`
	} `json:"metadata"`
	Contacts []struct {
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
		WaID string `json:"wa_id"`
	} `json:"contacts"`
	Messages []metaMessage `json:"messages"`
}

type metaMessage struct {
	From      string          `json:"from"`
	ID        string          `json:"id"`
	Timestamp json.RawMessage `json:"timestamp"`
	Type      string          `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		Type        string     `json:"type"`
		ButtonReply *metaReply `json:"button_reply"`
		ListReply   *metaReply `json:"list_reply"`
	} `json:"interactive"`
	Button *struct {
		Text    string `json:"text"`
		Payload string `json:"payload"`
	} `json:"button"`
}

type metaReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (p metaPayload) inbound() []Inbound {
	var out []Inbound
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != "" && change.Field != "messages" {
				continue
			}
			value := change.Value
			names := make(map[string]string, len(value.Contacts))
			for _, contact := range value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}

			for _, m := range value.Messages {
				customerID := sanitizer.CustomerID(m.From)
				if customerID == "" {
					continue
				}
				msg := model.InboundMessage{
					MessageID:  m.ID,
					CustomerID: customerID,
					SenderName: names[m.From],
					Timestamp:  parseUnix(m.Timestamp),
				}
				switch {
				case m.Text != nil:
					msg.Text = m.Text.Body
				case m.Interactive != nil && m.Interactive.ButtonReply != nil:
					msg.Reply = &model.Reply{ID: m.Interactive.ButtonReply.ID, Title: m.Interactive.ButtonReply.Title}
				case m.Interactive != nil && m.Interactive.ListReply != nil:
					msg.Reply = &model.Reply{ID: m.Interactive.ListReply.ID, Title: m.Interactive.ListReply.Title}
				case m.Button != nil:
					msg.Reply = &model.Reply{ID: m.Button.Payload, Title: m.Button.Text}
				}

				out = append(out, Inbound{
					Platform:      PlatformMeta,
					PhoneNumberID: value.Metadata.PhoneNumberID,
					DisplayNumber: value.Metadata.DisplayPhoneNumber,
					Message:       msg,
				})
			}
		}
	}
	return out
}

type watiPayload struct {
	ID                string          `json:"id"`
	WhatsappMessageID string          `json:"whatsappMessageId"`
	WaID              string          `json:"waId"`
	Text              string          `json:"text"`
	Type              string          `json:"type"`
	Timestamp         json.RawMessage `json:"timestamp"`
	SenderName        string          `json:"senderName"`
	Owner             bool            `json:"owner"`
	ListReply         *struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"listReply"`
	ButtonReply *struct {
		Text    string `json:"text"`
		Payload string `json:"payload"`
	} `json:"buttonReply"`
}

func (p watiPayload) inbound() []Inbound {
	// owner marks messages the business itself sent
	if p.Owner {
		return nil
	}
	customerID := sanitizer.CustomerID(p.WaID)
	if customerID == "" {
		return nil
	}

	msg := model.InboundMessage{
		MessageID:  p.WhatsappMessageID,
		CustomerID: customerID,
		Text:       p.Text,
		SenderName: p.SenderName,
		Timestamp:  parseUnix(p.Timestamp),
	}
	if msg.MessageID == "" {
		msg.MessageID = p.ID
	}
	switch {
	case p.ListReply != nil && p.ListReply.Title != "":
		msg.Reply = &model.Reply{ID: p.ListReply.ID, Title: p.ListReply.Title}
	case p.ButtonReply != nil && p.ButtonReply.Text != "":
		msg.Reply = &model.Reply{ID: p.ButtonReply.Payload, Title: p.ButtonReply.Text}
	}

	return []Inbound{{Platform: PlatformWati, Message: msg}}
}

// parseUnix reads epoch seconds sent either as a JSON number or a string.
func parseUnix(raw json.RawMessage) time.Time {
	s := strings.Trim(string(raw), `" `)
	if s == "" {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
