package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agendabot/pkg/model"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

type redisStore struct {
	client *redis.Client
}

// NewRedisStore keeps each session as a JSON string under
// "session:<tenant>:<customer>" with the session TTL as key expiry.
func NewRedisStore(client *redis.Client) Store {
	if client == nil {
		panic("sessions: redis client cannot be nil")
	}
	return &redisStore{client: client}
}

func redisKey(tenantID, customerID string) string {
	return sessionKeyPrefix + model.SessionKey(tenantID, customerID)
}

func (s *redisStore) Get(ctx context.Context, tenantID, customerID string) (*model.Session, error) {
	data, err := s.client.Get(ctx, redisKey(tenantID, customerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sessions: failed to load session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &session, nil
}

func (s *redisStore) Save(ctx context.Context, session *model.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("sessions: failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(session.TenantID, session.CustomerID), data, ttl).Err(); err != nil {
		return fmt.Errorf("sessions: failed to persist session: %w", err)
	}
	return nil
}
