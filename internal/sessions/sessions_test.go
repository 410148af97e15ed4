package sessions

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"agendabot/pkg/logger"
	"agendabot/pkg/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisStore(client)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	mr, store := newRedis(t)
	ctx := context.Background()

	session := model.NewSession("tenant-1", "5215512345678")
	session.State = model.StateSelectDay
	session.Memory = model.Memory{ServiceID: "srv-1", ServiceName: "Manicura"}

	require.NoError(t, store.Save(ctx, session, time.Hour))
	assert.True(t, mr.Exists("session:tenant-1:5215512345678"))
	assert.Equal(t, time.Hour, mr.TTL("session:tenant-1:5215512345678"))

	got, err := store.Get(ctx, "tenant-1", "5215512345678")
	require.NoError(t, err)
	assert.Equal(t, model.StateSelectDay, got.State)
	assert.Equal(t, "srv-1", got.Memory.ServiceID)
}

func TestRedisStore_MissingAndExpired(t *testing.T) {
	mr, store := newRedis(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "tenant-1", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, model.NewSession("tenant-1", "c-1"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err = store.Get(ctx, "tenant-1", "c-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_TenantsAreIsolated(t *testing.T) {
	_, store := newRedis(t)
	ctx := context.Background()

	s := model.NewSession("tenant-1", "c-1")
	s.State = model.StateConfirmation
	require.NoError(t, store.Save(ctx, s, time.Hour))

	_, err := store.Get(ctx, "tenant-2", "c-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	mr, store := newRedis(t)
	require.NoError(t, mr.Set("session:tenant-1:c-1", "{not json"))

	_, err := store.Get(context.Background(), "tenant-1", "c-1")
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.NotErrorIs(t, err, ErrNotFound)

	session, err := NewManager(store, time.Hour, logger.Discard()).Load(context.Background(), "tenant-1", "c-1")
	require.NoError(t, err)
	assert.Equal(t, model.StateIdle, session.State)
	assert.Equal(t, "c-1", session.CustomerID)
}

type mockStore struct {
	getFunc  func(ctx context.Context, tenantID, customerID string) (*model.Session, error)
	saveFunc func(ctx context.Context, session *model.Session, ttl time.Duration) error
}

func (m *mockStore) Get(ctx context.Context, tenantID, customerID string) (*model.Session, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, tenantID, customerID)
	}
	return nil, ErrNotFound
}

func (m *mockStore) Save(ctx context.Context, session *model.Session, ttl time.Duration) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, session, ttl)
	}
	return nil
}

var fixedNow = time.Date(2024, time.May, 22, 10, 0, 0, 0, time.UTC)

func newManager(store Store) *Manager {
	m := NewManager(store, 24*time.Hour, logger.Discard())
	m.now = func() time.Time { return fixedNow }
	return m
}

func TestManagerLoad(t *testing.T) {
	tests := []struct {
		name      string
		stored    *model.Session
		getErr    error
		wantState model.ConversationState
		wantMem   model.Memory
		wantErr   bool
	}{
		{
			name:      "no record",
			getErr:    ErrNotFound,
			wantState: model.StateIdle,
		},
		{
			name: "expired record",
			stored: &model.Session{
				State:     model.StateSelectTime,
				Memory:    model.Memory{ServiceID: "srv-1"},
				ExpiresAt: fixedNow.Add(-time.Second),
			},
			wantState: model.StateIdle,
		},
		{
			name: "live record",
			stored: &model.Session{
				State:     model.StateSelectTime,
				Memory:    model.Memory{ServiceID: "srv-1"},
				ExpiresAt: fixedNow.Add(time.Hour),
			},
			wantState: model.StateSelectTime,
			wantMem:   model.Memory{ServiceID: "srv-1"},
		},
		{
			name: "unknown state tag",
			stored: &model.Session{
				State:     model.ConversationState("soporte"),
				Memory:    model.Memory{ServiceID: "srv-1"},
				ExpiresAt: fixedNow.Add(time.Hour),
			},
			wantState: model.StateIdle,
			wantMem:   model.Memory{ServiceID: "srv-1"},
		},
		{
			name:      "corrupt record",
			getErr:    fmt.Errorf("%w: invalid character", ErrCorrupt),
			wantState: model.StateIdle,
		},
		{
			name:    "store failure",
			getErr:  errors.New("redis down"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{
				getFunc: func(context.Context, string, string) (*model.Session, error) {
					return tt.stored, tt.getErr
				},
			}

			session, err := newManager(store).Load(context.Background(), "tenant-1", "c-1")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, session.State)
			assert.Equal(t, tt.wantMem, session.Memory)
			assert.Equal(t, "tenant-1", session.TenantID)
			assert.Equal(t, "c-1", session.CustomerID)
		})
	}
}

func TestManagerSave_ExtendsExpiry(t *testing.T) {
	var gotTTL time.Duration
	var saved *model.Session
	store := &mockStore{
		saveFunc: func(_ context.Context, s *model.Session, ttl time.Duration) error {
			saved, gotTTL = s, ttl
			return nil
		},
	}

	session := model.NewSession("tenant-1", "c-1")
	require.NoError(t, newManager(store).Save(context.Background(), session))

	assert.Equal(t, 24*time.Hour, gotTTL)
	assert.Equal(t, fixedNow, saved.UpdatedAt)
	assert.Equal(t, fixedNow.Add(24*time.Hour), saved.ExpiresAt)
}
