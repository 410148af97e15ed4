package model

import (
	"fmt"
	"time"
)

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

type Appointment struct {
	ID               string            `json:"id" bson:"_id" validate:"required,uuid4"`
	TenantID         string            `json:"tenant_id" bson:"tenant_id" validate:"required"`
	CustomerID       string            `json:"customer_id" bson:"customer_id" validate:"required"`
	CustomerName     string            `json:"customer_name" bson:"customer_name" validate:"required,min=3,max=100"`
	ServiceID        string            `json:"service_id" bson:"service_id" validate:"required"`
	ServiceName      string            `json:"service_name" bson:"service_name" validate:"omitempty,max=100"`
	Date             string            `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	Time             string            `json:"time" bson:"time" validate:"required,clock"`
	Turn             string            `json:"turn,omitempty" bson:"turn,omitempty"`
	StaffID          string            `json:"staff_id,omitempty" bson:"staff_id,omitempty"`
	Status           AppointmentStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled"`
	Folio            string            `json:"folio" bson:"folio" validate:"required,len=6,alphanum,uppercase"`
	CommissionAmount float64           `json:"commission_amount" bson:"commission_amount" validate:"min=0"`
	CreatedAt        time.Time         `json:"created_at" bson:"created_at"`
	CancelledAt      *time.Time        `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}

// DisplayFolio is the reference shown to customers.
func (a *Appointment) DisplayFolio() string {
	return "APP-" + a.Folio
}

// BookingRequest is what the conversation collects before reserving a slot.
type BookingRequest struct {
	CustomerID       string  `json:"customer_id" validate:"required"`
	CustomerName     string  `json:"customer_name" validate:"required,min=3,max=100"`
	ServiceID        string  `json:"service_id" validate:"required"`
	ServiceName      string  `json:"service_name" validate:"omitempty,max=100"`
	Date             string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time             string  `json:"time" validate:"required,clock"`
	Turn             string  `json:"turn,omitempty"`
	StaffID          string  `json:"staff_id,omitempty"`
	CommissionAmount float64 `json:"commission_amount" validate:"min=0"`
}

// SlotKey identifies a bookable slot: one live lock and one active appointment at most.
func SlotKey(tenantID, serviceID, date, clock string) string {
	return fmt.Sprintf("%s:%s:%s:%s", tenantID, serviceID, date, clock)
}
