package whatsapp

import (
	"agendabot/pkg/model"
	"fmt"
	"strings"
)

// Cloud API display limits, in characters.
const (
	MaxButtonTitle    = 20
	MaxListButton     = 20
	MaxSectionTitle   = 24
	MaxRowTitle       = 24
	MaxRowDescription = 72
	MaxButtons        = 3
	MaxRows           = 10
)

const ellipsis = "..."

type Payload struct {
	MessagingProduct string       `json:"messaging_product"`
	RecipientType    string       `json:"recipient_type"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *TextBody    `json:"text,omitempty"`
	Interactive      *Interactive `json:"interactive,omitempty"`
}

type TextBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type Interactive struct {
	Type   string  `json:"type"`
	Body   Body    `json:"body"`
	Action *Action `json:"action"`
}

type Body struct {
	Text string `json:"text"`
}

type Action struct {
	Button   string    `json:"button,omitempty"`
	Buttons  []Button  `json:"buttons,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

type Button struct {
	Type  string      `json:"type"`
	Reply ButtonReply `json:"reply"`
}

type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Truncate shortens s to max characters, ending in "..." when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-len(ellipsis)]) + ellipsis
}

// TrimEllipsis undoes the visible part of Truncate so a reply title can be prefix matched.
func TrimEllipsis(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ellipsis)
}

func NewText(to, body string) Payload {
	return Payload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &TextBody{Body: body},
	}
}

func NewButtons(to, body string, options []string) Payload {
	if len(options) > MaxButtons {
		options = options[:MaxButtons]
	}
	buttons := make([]Button, 0, len(options))
	for i, opt := range options {
		buttons = append(buttons, Button{
			Type:  "reply",
			Reply: ButtonReply{ID: fmt.Sprintf("btn_%d", i), Title: Truncate(opt, MaxButtonTitle)},
		})
	}
	return Payload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "interactive",
		Interactive: &Interactive{
			Type:   "button",
			Body:   Body{Text: body},
			Action: &Action{Buttons: buttons},
		},
	}
}

func NewList(to, body, title, buttonLabel string, rows []model.ListRow) Payload {
	if len(rows) > MaxRows {
		rows = rows[:MaxRows]
	}
	out := make([]Row, 0, len(rows))
	for i, row := range rows {
		out = append(out, Row{
			ID:          fmt.Sprintf("row_%d", i),
			Title:       Truncate(row.Title, MaxRowTitle),
			Description: Truncate(row.Description, MaxRowDescription),
		})
	}
	return Payload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "interactive",
		Interactive: &Interactive{
			Type: "list",
			Body: Body{Text: body},
			Action: &Action{
				Button: Truncate(buttonLabel, MaxListButton),
				Sections: []Section{{
					Title: Truncate(title, MaxSectionTitle),
					Rows:  out,
				}},
			},
		},
	}
}

// FromOutbound converts a conversation message into its Cloud API payload.
func FromOutbound(to string, msg model.OutboundMessage) (Payload, error) {
	switch msg.Kind {
	case model.KindText, "":
		return NewText(to, msg.Body), nil
	case model.KindButtons:
		return NewButtons(to, msg.Body, msg.Options), nil
	case model.KindList:
		return NewList(to, msg.Body, msg.Title, msg.ButtonLabel, msg.Rows), nil
	default:
		return Payload{}, fmt.Errorf("unsupported message kind %q", msg.Kind)
	}
}
