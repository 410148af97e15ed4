package repository

import (
	appointmentserrors "agendabot/internal/appointments/errors"
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
	CollectionName = "Appointments"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	FindByFolio(ctx context.Context, tenantID, folio string) (*model.Appointment, error)
	FindByCustomer(ctx context.Context, tenantID, customerID string, limit int, offset int64) ([]*model.Appointment, error)
	CountByCustomer(ctx context.Context, tenantID, customerID string) (int64, error)
	ExistsActive(ctx context.Context, tenantID, serviceID, date, clock string) (bool, error)
	BookedTimes(ctx context.Context, tenantID, serviceID, from, to string) (map[string]map[string]bool, error)
	Cancel(ctx context.Context, tenantID, folio string, at time.Time) (*model.Appointment, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoAppointmentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoAppointmentRepository(cfg *config.Config) AppointmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// activeSlotFilter matches the non-cancelled appointments of one service.
func activeSlotFilter(tenantID, serviceID string) bson.M {
	return bson.M{
		"tenant_id":  tenantID,
		"service_id": serviceID,
		"status":     bson.M{"$ne": model.AppointmentCancelled},
	}
}

func (r *mongoAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	if _, err := r.collection.InsertOne(ctx, appointment); err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *mongoAppointmentRepository) FindByFolio(ctx context.Context, tenantID, folio string) (*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var appointment model.Appointment
	err := r.collection.FindOne(ctx, bson.M{"tenant_id": tenantID, "folio": folio}).Decode(&appointment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appointmentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}
	return &appointment, nil
}

func (r *mongoAppointmentRepository) FindByCustomer(ctx context.Context, tenantID, customerID string, limit int, offset int64) ([]*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "time", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, customerFilter(tenantID, customerID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appointments []*model.Appointment
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	if appointments == nil {
		appointments = []*model.Appointment{}
	}
	return appointments, nil
}

func (r *mongoAppointmentRepository) CountByCustomer(ctx context.Context, tenantID, customerID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, customerFilter(tenantID, customerID))
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func customerFilter(tenantID, customerID string) bson.M {
	filter := bson.M{"tenant_id": tenantID}
	if customerID != "" {
		filter["customer_id"] = customerID
	}
	return filter
}

func (r *mongoAppointmentRepository) ExistsActive(ctx context.Context, tenantID, serviceID, date, clock string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := activeSlotFilter(tenantID, serviceID)
	filter["date"] = date
	filter["time"] = clock

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return count > 0, nil
}

// BookedTimes loads every active start time in [from, to] with a single range query.
func (r *mongoAppointmentRepository) BookedTimes(ctx context.Context, tenantID, serviceID, from, to string) (map[string]map[string]bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := activeSlotFilter(tenantID, serviceID)
	filter["date"] = bson.M{"$gte": from, "$lte": to}
	opts := options.Find().SetProjection(bson.M{"date": 1, "time": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query booked times: %w", err)
	}
	defer cursor.Close(ctx)

	booked := make(map[string]map[string]bool)
	for cursor.Next(ctx) {
		var row struct {
			Date string `bson:"date"`
			Time string `bson:"time"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode booked time: %w", err)
		}
		if booked[row.Date] == nil {
			booked[row.Date] = make(map[string]bool)
		}
		booked[row.Date][row.Time] = true
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate booked times: %w", err)
	}
	return booked, nil
}

func (r *mongoAppointmentRepository) Cancel(ctx context.Context, tenantID, folio string, at time.Time) (*model.Appointment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"tenant_id": tenantID,
		"folio":     folio,
		"status":    bson.M{"$ne": model.AppointmentCancelled},
	}
	update := bson.M{"$set": bson.M{
		"status":       model.AppointmentCancelled,
		"cancelled_at": at.UTC().Truncate(time.Millisecond),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var appointment model.Appointment
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&appointment)
	if err == nil {
		return &appointment, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	if _, findErr := r.FindByFolio(ctx, tenantID, folio); findErr != nil {
		return nil, findErr
	}
	return nil, appointmentserrors.ErrAlreadyCancelled
}

func (r *mongoAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
