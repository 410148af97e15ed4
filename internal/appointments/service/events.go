package service

import (
	"agendabot/pkg/kafka"
	"agendabot/pkg/model"
	"context"
)

const (
	EventAppointmentBooked    = "appointment.booked"
	EventAppointmentCancelled = "appointment.cancelled"

	eventSchemaVersion = "1"
	eventSource        = "agendabot.appointments"
)

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type AppointmentEvent struct {
	Type        string             `json:"type"`
	Appointment *model.Appointment `json:"appointment"`
}

func newAppointmentEvent(eventType string, appointment *model.Appointment) (kafka.Message, error) {
	return kafka.NewJSONMessage(appointment.ID, AppointmentEvent{Type: eventType, Appointment: appointment}, kafka.Metadata{
		EventType:      eventType,
		TenantID:       appointment.TenantID,
		ConversationID: model.SessionKey(appointment.TenantID, appointment.CustomerID),
		SchemaVersion:  eventSchemaVersion,
		Source:         eventSource,
	})
}
