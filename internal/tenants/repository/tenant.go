package repository

import (
	tenantserrors "agendabot/internal/tenants/errors"
	"agendabot/pkg/config"
	mongotx "agendabot/pkg/db/mongo"
	"agendabot/pkg/model"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Tenants"
)

// TenantRepository is read-only: tenants are onboarded outside this service.
type TenantRepository interface {
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
	// FindByChannel matches either the Meta phone_number_id or the E.164 channel number.
	FindByChannel(ctx context.Context, phoneNumberID, channelNumber string) (*model.Tenant, error)
	Upsert(ctx context.Context, tenant *model.Tenant) error
}

type mongoTenantRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTenantRepository(cfg *config.Config) TenantRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTenantRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTenantRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"_id": id}, id)
}

func (r *mongoTenantRepository) FindByChannel(ctx context.Context, phoneNumberID, channelNumber string) (*model.Tenant, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var or bson.A
	if phoneNumberID != "" {
		or = append(or, bson.M{"phone_number_id": phoneNumberID})
	}
	if channelNumber != "" {
		or = append(or, bson.M{"channel_number": channelNumber})
	}
	if len(or) == 0 {
		return nil, tenantserrors.ErrNotFound
	}

	return r.findOne(ctx, bson.M{"$or": or}, phoneNumberID+channelNumber)
}

func (r *mongoTenantRepository) findOne(ctx context.Context, filter bson.M, ref string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.collection.FindOne(ctx, filter).Decode(&tenant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", tenantserrors.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("failed to find tenant: %w", err)
	}
	return &tenant, nil
}

func (r *mongoTenantRepository) Upsert(ctx context.Context, tenant *model.Tenant) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": tenant.ID}, tenant, opts); err != nil {
		return fmt.Errorf("failed to upsert tenant: %w", err)
	}
	return nil
}
