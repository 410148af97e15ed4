package repository

import (
	"agendabot/pkg/config"
	mongotx "agendabot/pkg/db/mongo"
	"agendabot/pkg/model"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	SlotLockCollectionName = "Slot_locks"
)

// SlotLockRepository guards a slot key while an appointment is written.
// Acquire must be a single atomic operation against the shared store.
type SlotLockRepository interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type mongoSlotLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoSlotLockRepository(cfg *config.Config) SlotLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotLockRepository{
		cfg:        cfg,
		collection: db.Collection(SlotLockCollectionName),
		now:        time.Now,
	}
}

// Acquire upserts the lock only when no document exists or the stored one has
// expired. A live lock makes the filter miss, the upsert then collides on _id
// and the duplicate-key error means somebody else holds the slot.
func (r *mongoSlotLockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := r.now().UTC().Truncate(time.Millisecond)
	lock := model.SlotLock{ID: key, ExpiresAt: now.Add(ttl), CreatedAt: now}

	filter := bson.M{"_id": key, "expires_at": bson.M{"$lte": now}}
	update := bson.M{"$set": bson.M{"expires_at": lock.ExpiresAt, "created_at": lock.CreatedAt}}
	opts := options.FindOneAndUpdate().SetUpsert(true)

	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Err()
	switch {
	case err == nil, errors.Is(err, mongo.ErrNoDocuments):
		return true, nil
	case mongo.IsDuplicateKeyError(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to acquire slot lock: %w", err)
	}
}

// Release deletes the lock; releasing a missing key is a no-op.
func (r *mongoSlotLockRepository) Release(ctx context.Context, key string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to release slot lock: %w", err)
	}
	return nil
}
