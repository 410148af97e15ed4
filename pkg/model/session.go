package model

import "time"

// ConversationState is the closed set of states a conversation can be in.
type ConversationState string

const (
	StateIdle            ConversationState = "IDLE"
	StateSelectService   ConversationState = "SELECT_SERVICE"
	StateSelectDay       ConversationState = "SELECT_DAY"
	StateSelectTurn      ConversationState = "SELECT_TURN"
	StateSelectTime      ConversationState = "SELECT_TIME"
	StateCollectName     ConversationState = "COLLECT_NAME"
	StateConfirmation    ConversationState = "CONFIRMATION"
	StateCompleted       ConversationState = "COMPLETED"
	StateCancelled       ConversationState = "CANCELLED"
	StateAgentClassifier ConversationState = "AGENT_CLASSIFIER"
)

var conversationStates = []ConversationState{
	StateIdle,
	StateSelectService,
	StateSelectDay,
	StateSelectTurn,
	StateSelectTime,
	StateCollectName,
	StateConfirmation,
	StateCompleted,
	StateCancelled,
	StateAgentClassifier,
}

// ConversationStates lists every state in flow order.
func ConversationStates() []ConversationState {
	out := make([]ConversationState, len(conversationStates))
	copy(out, conversationStates)
	return out
}

func (s ConversationState) Valid() bool {
	for _, known := range conversationStates {
		if s == known {
			return true
		}
	}
	return false
}

// ParseState maps a stored tag back to a state. Unknown tags become IDLE.
func ParseState(tag string) ConversationState {
	s := ConversationState(tag)
	if s.Valid() {
		return s
	}
	return StateIdle
}

// IdleLike reports whether the state behaves as the start of a new flow.
func (s ConversationState) IdleLike() bool {
	return s == StateIdle || s == StateCompleted || s == StateCancelled
}

// Memory holds what the customer has chosen so far in the booking flow.
type Memory struct {
	ServiceID    string `json:"serviceId,omitempty" bson:"service_id,omitempty"`
	ServiceName  string `json:"serviceName,omitempty" bson:"service_name,omitempty"`
	Date         string `json:"date,omitempty" bson:"date,omitempty"`
	Turn         string `json:"turn,omitempty" bson:"turn,omitempty"`
	Time         string `json:"time,omitempty" bson:"time,omitempty"`
	CustomerName string `json:"customerName,omitempty" bson:"customer_name,omitempty"`
	LastFolio    string `json:"lastFolio,omitempty" bson:"last_folio,omitempty"`
}

// MemoryPatch is a shallow update to Memory. Nil fields are left alone, a
// pointer to "" clears the field.
type MemoryPatch struct {
	ServiceID    *string
	ServiceName  *string
	Date         *string
	Turn         *string
	Time         *string
	CustomerName *string
	LastFolio    *string
}

// Merge returns a copy of m with the patch applied.
func (m Memory) Merge(p *MemoryPatch) Memory {
	if p == nil {
		return m
	}
	apply(&m.ServiceID, p.ServiceID)
	apply(&m.ServiceName, p.ServiceName)
	apply(&m.Date, p.Date)
	apply(&m.Turn, p.Turn)
	apply(&m.Time, p.Time)
	apply(&m.CustomerName, p.CustomerName)
	apply(&m.LastFolio, p.LastFolio)
	return m
}

func apply(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// Session is the per (tenant, customer) conversation record.
type Session struct {
	TenantID   string            `json:"tenant_id" bson:"tenant_id"`
	CustomerID string            `json:"customer_id" bson:"customer_id"`
	State      ConversationState `json:"state" bson:"state"`
	Memory     Memory            `json:"memory" bson:"memory"`
	ExpiresAt  time.Time         `json:"expires_at" bson:"expires_at"`
	UpdatedAt  time.Time         `json:"updated_at" bson:"updated_at"`
}

func NewSession(tenantID, customerID string) *Session {
	return &Session{
		TenantID:   tenantID,
		CustomerID: customerID,
		State:      StateIdle,
	}
}

func (s *Session) Key() string {
	return SessionKey(s.TenantID, s.CustomerID)
}

// Expired reports whether the session is past its expiry. A zero expiry never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func SessionKey(tenantID, customerID string) string {
	return tenantID + ":" + customerID
}
