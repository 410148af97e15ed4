package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agendabot/pkg/config"
	mongotx "agendabot/pkg/db/mongo"
	"agendabot/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Sessions"

type sessionDocument struct {
	ID            string `bson:"_id"`
	model.Session `bson:",inline"`
}

type mongoStore struct {
	cfg        *config.Config
	collection *mongo.Collection
}

// NewMongoStore keeps sessions in the Sessions collection. A TTL index on
// expires_at removes stale documents; Get still checks expiry itself since
// the TTL monitor only runs once a minute.
func NewMongoStore(cfg *config.Config) Store {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoStore{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (s *mongoStore) Get(ctx context.Context, tenantID, customerID string) (*model.Session, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	res := s.collection.FindOne(ctx, bson.M{"_id": model.SessionKey(tenantID, customerID)})
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sessions: failed to load session: %w", err)
	}

	var doc sessionDocument
	if err := res.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &doc.Session, nil
}

func (s *mongoStore) Save(ctx context.Context, session *model.Session, ttl time.Duration) error {
	ctx, cancel := mongotx.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	doc := sessionDocument{ID: session.Key(), Session: *session}
	if doc.ExpiresAt.IsZero() {
		doc.ExpiresAt = time.Now().UTC().Add(ttl)
	}

	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("sessions: failed to persist session: %w", err)
	}
	return nil
}
