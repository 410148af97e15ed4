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
	CollectionName = "Customers"
)

var ErrNotFound = errors.New("customer not found")

type CustomerRepository interface {
	// Touch records an interaction, creating the profile on first contact.
	// An empty name leaves the stored one alone.
	Touch(ctx context.Context, tenantID, channelID, name string, at time.Time) (*model.Customer, error)
	SetHumanSupport(ctx context.Context, tenantID, channelID string, active bool) error
}

type mongoCustomerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCustomerRepository(cfg *config.Config) CustomerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCustomerRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoCustomerRepository) Touch(ctx context.Context, tenantID, channelID, name string, at time.Time) (*model.Customer, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	at = at.UTC().Truncate(time.Millisecond)
	set := bson.M{"last_interaction": at}
	if name != "" {
		set["name"] = name
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"human_support_active": false,
			"created_at":           at,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var customer model.Customer
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"tenant_id": tenantID, "channel_id": channelID}, update, opts).Decode(&customer)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert customer: %w", err)
	}
	return &customer, nil
}

func (r *mongoCustomerRepository) SetHumanSupport(ctx context.Context, tenantID, channelID string, active bool) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"tenant_id": tenantID, "channel_id": channelID},
		bson.M{"$set": bson.M{"human_support_active": active}},
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, channelID)
	}
	return nil
}
