package model

import "time"

type MessageKind string

const (
	KindText    MessageKind = "text"
	KindButtons MessageKind = "buttons"
	KindList    MessageKind = "list"
)

type ListRow struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// OutboundMessage is the channel-agnostic reply the conversation produces.
type OutboundMessage struct {
	Kind        MessageKind `json:"kind"`
	Body        string      `json:"body"`
	Options     []string    `json:"options,omitempty"`
	Title       string      `json:"title,omitempty"`
	ButtonLabel string      `json:"button_label,omitempty"`
	Rows        []ListRow   `json:"rows,omitempty"`
}

func Text(body string) OutboundMessage {
	return OutboundMessage{Kind: KindText, Body: body}
}

func Buttons(body string, options ...string) OutboundMessage {
	return OutboundMessage{Kind: KindButtons, Body: body, Options: options}
}

func List(body, title, buttonLabel string, rows []ListRow) OutboundMessage {
	return OutboundMessage{Kind: KindList, Body: body, Title: title, ButtonLabel: buttonLabel, Rows: rows}
}

// Reply is a structured selection (list row or button) made by the customer.
type Reply struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title" validate:"required"`
}

// InboundMessage is a channel message after normalisation.
type InboundMessage struct {
	MessageID  string    `json:"message_id,omitempty"`
	CustomerID string    `json:"customer_id" validate:"required,max=32"`
	Text       string    `json:"text" validate:"max=4096"`
	Reply      *Reply    `json:"reply,omitempty" validate:"omitempty"`
	SenderName string    `json:"sender_name,omitempty" validate:"max=256"`
	Timestamp  time.Time `json:"timestamp"`
	Code       string    `json:"code,omitempty"`
}

// Content is the text the conversation should act on: the selected reply
// title when the customer tapped an option, the typed text otherwise.
func (m InboundMessage) Content() string {
	if m.Reply != nil && m.Reply.Title != "" {
		return m.Reply.Title
	}
	return m.Text
}
