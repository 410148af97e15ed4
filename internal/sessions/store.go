package sessions

import (
	"context"
	"errors"
	"time"

	"agendabot/pkg/model"
)

// ErrNotFound is returned by a Store when no session is stored under the key.
var ErrNotFound = errors.New("session not found")

// ErrCorrupt wraps a stored record that no longer decodes into a session.
var ErrCorrupt = errors.New("session record corrupt")

// Store persists conversation sessions keyed by (tenant, customer). Records
// are overwritten on every turn and expire passively after ttl.
type Store interface {
	Get(ctx context.Context, tenantID, customerID string) (*model.Session, error)
	Save(ctx context.Context, session *model.Session, ttl time.Duration) error
}
