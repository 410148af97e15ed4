package sessions

import (
	"context"
	"errors"
	"time"

	"agendabot/pkg/logger"
	"agendabot/pkg/model"
)

// Manager applies session lifecycle rules on top of a Store: a missing,
// expired or corrupt record is replaced by a fresh IDLE session.
type Manager struct {
	store Store
	ttl   time.Duration
	log   *logger.Logger
	now   func() time.Time
}

func NewManager(store Store, ttl time.Duration, log *logger.Logger) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		log:   log,
		now:   time.Now,
	}
}

// Load returns the live session for the pair or a fresh one.
func (m *Manager) Load(ctx context.Context, tenantID, customerID string) (*model.Session, error) {
	session, err := m.store.Get(ctx, tenantID, customerID)
	if errors.Is(err, ErrNotFound) {
		return model.NewSession(tenantID, customerID), nil
	}
	if errors.Is(err, ErrCorrupt) {
		m.log.Warn("Corrupt session record, starting over",
			"tenant_id", tenantID,
			"customer_id", customerID,
			"error", err,
		)
		return model.NewSession(tenantID, customerID), nil
	}
	if err != nil {
		return nil, err
	}

	if session.Expired(m.now()) {
		m.log.Debug("Session expired, starting over",
			"tenant_id", tenantID,
			"customer_id", customerID,
			"expired_at", session.ExpiresAt,
		)
		return model.NewSession(tenantID, customerID), nil
	}

	if !session.State.Valid() {
		m.log.Warn("Unknown session state, resetting to IDLE",
			"tenant_id", tenantID,
			"customer_id", customerID,
			"state", session.State,
		)
		session.State = model.ParseState(string(session.State))
	}
	session.TenantID = tenantID
	session.CustomerID = customerID
	return session, nil
}

// Save stamps the session and pushes its expiry forward by the TTL.
func (m *Manager) Save(ctx context.Context, session *model.Session) error {
	now := m.now().UTC()
	session.UpdatedAt = now
	session.ExpiresAt = now.Add(m.ttl)
	return m.store.Save(ctx, session, m.ttl)
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}
