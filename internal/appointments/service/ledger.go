package service

import (
	appointmentserrors "agendabot/internal/appointments/errors"
	"agendabot/internal/appointments/repository"
	"agendabot/internal/appointments/validator"
	"agendabot/pkg/config"
	apperrors "agendabot/pkg/errors"
	"agendabot/pkg/metrics"
	"agendabot/pkg/model"
	"agendabot/pkg/sanitizer"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

const (
	outcomeBooked    = "booked"
	outcomeContended = "contended"
	outcomeTaken     = "taken"
	outcomeFailed    = "failed"
	outcomeCancelled = "cancelled"
)

type LedgerService interface {
	// BookAppointment reserves the slot and persists the appointment. A slot
	// held by another conversation, or already booked, yields (nil, nil).
	BookAppointment(ctx context.Context, tenantID string, req *model.BookingRequest) (*model.Appointment, error)
	CheckAvailability(ctx context.Context, tenantID, serviceID, date, clock string) (bool, error)
	BookedTimes(ctx context.Context, tenantID, serviceID, from, to string) (map[string]map[string]bool, error)
	CancelAppointment(ctx context.Context, tenantID, folio string) (*model.Appointment, error)
	GetByFolio(ctx context.Context, tenantID, folio string) (*model.Appointment, error)
	ListByCustomer(ctx context.Context, tenantID, customerID string, limit int, offset int64) ([]*model.Appointment, int64, error)
}

type ledgerService struct {
	repo      repository.AppointmentRepository
	locks     repository.SlotLockRepository
	validator *validator.AppointmentValidator
	events    EventPublisher
	metrics   *metrics.Metrics
	cfg       *config.Config
	now       func() time.Time
	folio     func() (string, error)
}

// NewLedgerService wires the ledger. events and m may be nil.
func NewLedgerService(
	repo repository.AppointmentRepository,
	locks repository.SlotLockRepository,
	validator *validator.AppointmentValidator,
	events EventPublisher,
	m *metrics.Metrics,
	cfg *config.Config,
) LedgerService {
	return &ledgerService{
		repo:      repo,
		locks:     locks,
		validator: validator,
		events:    events,
		metrics:   m,
		cfg:       cfg,
		now:       time.Now,
		folio:     NewFolio,
	}
}

func (s *ledgerService) BookAppointment(ctx context.Context, tenantID string, req *model.BookingRequest) (*model.Appointment, error) {
	if tenantID == "" {
		return nil, apperrors.InvalidInput("Tenant ID cannot be empty")
	}
	s.sanitize(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking request validation failed", "tenant_id", tenantID, "error", err)
		return nil, apperrors.Validation("Booking request validation failed", map[string]any{"error": err.Error()})
	}

	key := model.SlotKey(tenantID, req.ServiceID, req.Date, req.Time)
	acquired, err := s.locks.Acquire(ctx, key, s.cfg.SlotLockTTL)
	if err != nil {
		s.metrics.ObserveBooking(outcomeFailed)
		s.cfg.Log.Error("Failed to acquire slot lock", "lock_key", key, "error", err)
		return nil, apperrors.Internal("Failed to reserve slot", err)
	}
	s.metrics.ObserveLock(s.cfg.LockBackend, acquired)
	if !acquired {
		s.metrics.ObserveBooking(outcomeContended)
		s.cfg.Log.Info("Slot lock busy", "lock_key", key)
		return nil, nil
	}
	defer s.release(ctx, key)

	appointment, err := s.newAppointment(tenantID, req)
	if err != nil {
		s.metrics.ObserveBooking(outcomeFailed)
		return nil, err
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		taken, err := s.repo.ExistsActive(sessCtx, tenantID, req.ServiceID, req.Date, req.Time)
		if err != nil {
			return err
		}
		if taken {
			return appointmentserrors.ErrSlotTaken
		}
		return s.repo.Create(sessCtx, appointment)
	})
	if errors.Is(err, appointmentserrors.ErrSlotTaken) {
		s.metrics.ObserveBooking(outcomeTaken)
		s.cfg.Log.Info("Slot already booked", "lock_key", key)
		return nil, nil
	}
	if err != nil {
		s.metrics.ObserveBooking(outcomeFailed)
		s.cfg.Log.Error("Failed to persist appointment", "lock_key", key, "error", err)
		return nil, storeError("Failed to create appointment", err)
	}

	s.metrics.ObserveBooking(outcomeBooked)
	s.publish(ctx, EventAppointmentBooked, appointment)
	s.cfg.Log.Info("Appointment booked",
		"id", appointment.ID,
		"tenant_id", tenantID,
		"service_id", appointment.ServiceID,
		"date", appointment.Date,
		"time", appointment.Time,
		"folio", appointment.Folio,
	)
	return appointment, nil
}

// release runs on every exit path of BookAppointment, panics included, and
// outlives a cancelled request context.
func (s *ledgerService) release(ctx context.Context, key string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()

	if err := s.locks.Release(releaseCtx, key); err != nil {
		s.cfg.Log.Warn("Failed to release slot lock", "lock_key", key, "error", err)
	}
}

func (s *ledgerService) newAppointment(tenantID string, req *model.BookingRequest) (*model.Appointment, error) {
	folio, err := s.folio()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate folio", err)
	}
	return &model.Appointment{
		ID:               uuid.New().String(),
		TenantID:         tenantID,
		CustomerID:       req.CustomerID,
		CustomerName:     req.CustomerName,
		ServiceID:        req.ServiceID,
		ServiceName:      req.ServiceName,
		Date:             req.Date,
		Time:             req.Time,
		Turn:             req.Turn,
		StaffID:          req.StaffID,
		Status:           model.AppointmentConfirmed,
		Folio:            folio,
		CommissionAmount: req.CommissionAmount,
		CreatedAt:        s.now().UTC().Truncate(time.Millisecond),
	}, nil
}

func (s *ledgerService) CheckAvailability(ctx context.Context, tenantID, serviceID, date, clock string) (bool, error) {
	if tenantID == "" || serviceID == "" || date == "" || clock == "" {
		return false, apperrors.InvalidInput("Tenant, service, date and time are required")
	}

	taken, err := s.repo.ExistsActive(ctx, tenantID, serviceID, date, clock)
	if err != nil {
		s.cfg.Log.Error("Failed to check availability", "tenant_id", tenantID, "service_id", serviceID, "error", err)
		return false, storeError("Failed to check availability", err)
	}
	return !taken, nil
}

func (s *ledgerService) BookedTimes(ctx context.Context, tenantID, serviceID, from, to string) (map[string]map[string]bool, error) {
	if tenantID == "" || serviceID == "" {
		return nil, apperrors.InvalidInput("Tenant and service are required")
	}
	if to < from {
		return nil, apperrors.InvalidInput(appointmentserrors.ErrInvalidRange.Error())
	}

	booked, err := s.repo.BookedTimes(ctx, tenantID, serviceID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to load booked times",
			"tenant_id", tenantID,
			"service_id", serviceID,
			"from", from,
			"to", to,
			"error", err,
		)
		return nil, storeError("Failed to load booked times", err)
	}
	return booked, nil
}

func (s *ledgerService) CancelAppointment(ctx context.Context, tenantID, folio string) (*model.Appointment, error) {
	folio = NormalizeFolio(folio)
	if tenantID == "" || folio == "" {
		return nil, apperrors.InvalidInput("Tenant and folio are required")
	}

	appointment, err := s.repo.Cancel(ctx, tenantID, folio, s.now())
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", folio)
		}
		if errors.Is(err, appointmentserrors.ErrAlreadyCancelled) {
			return nil, apperrors.Conflict("Appointment already cancelled")
		}
		s.cfg.Log.Error("Failed to cancel appointment", "tenant_id", tenantID, "folio", folio, "error", err)
		return nil, apperrors.Internal("Failed to cancel appointment", err)
	}

	s.metrics.ObserveBooking(outcomeCancelled)
	s.publish(ctx, EventAppointmentCancelled, appointment)
	s.cfg.Log.Info("Appointment cancelled", "id", appointment.ID, "tenant_id", tenantID, "folio", folio)
	return appointment, nil
}

func (s *ledgerService) GetByFolio(ctx context.Context, tenantID, folio string) (*model.Appointment, error) {
	folio = NormalizeFolio(folio)
	if tenantID == "" || folio == "" {
		return nil, apperrors.InvalidInput("Tenant and folio are required")
	}

	appointment, err := s.repo.FindByFolio(ctx, tenantID, folio)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", folio)
		}
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}
	return appointment, nil
}

func (s *ledgerService) ListByCustomer(ctx context.Context, tenantID, customerID string, limit int, offset int64) ([]*model.Appointment, int64, error) {
	if tenantID == "" {
		return nil, 0, apperrors.InvalidInput("Tenant ID cannot be empty")
	}

	var count int64
	var appointments []*model.Appointment
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		count, err = s.repo.CountByCustomer(gctx, tenantID, customerID)
		if err != nil {
			s.cfg.Log.Error("Failed to count appointments", "tenant_id", tenantID, "error", err)
			return apperrors.Internal("Failed to count appointments", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		appointments, err = s.repo.FindByCustomer(gctx, tenantID, customerID, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list appointments", "tenant_id", tenantID, "limit", limit, "offset", offset, "error", err)
			return apperrors.Internal("Failed to retrieve appointments", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return appointments, count, nil
}

// storeError maps a repository failure to a timeout when the deadline ran out.
func storeError(msg string, err error) *apperrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(msg)
	}
	return apperrors.Internal(msg, err)
}

func (s *ledgerService) publish(ctx context.Context, eventType string, appointment *model.Appointment) {
	if s.events == nil {
		return
	}
	event, err := newAppointmentEvent(eventType, appointment)
	if err == nil {
		err = s.events.Publish(ctx, event)
	}
	if err != nil {
		s.cfg.Log.Warn("Failed to publish appointment event",
			"event_type", eventType,
			"id", appointment.ID,
			"error", err,
		)
	}
}

func (s *ledgerService) sanitize(req *model.BookingRequest) {
	req.CustomerName = sanitizer.NormalizeName(req.CustomerName)
	req.ServiceName = sanitizer.TrimAndNormalize(req.ServiceName)
	req.Date = sanitizer.TrimAndNormalize(req.Date)
	req.Time = sanitizer.TrimAndNormalize(req.Time)
}
