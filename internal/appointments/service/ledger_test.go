package service

import (
	appointmentserrors "agendabot/internal/appointments/errors"
	"agendabot/internal/appointments/validator"
	"agendabot/pkg/config"
	mongotx "agendabot/pkg/db/mongo"
	apperrors "agendabot/pkg/errors"
	"agendabot/pkg/kafka"
	"agendabot/pkg/logger"
	"agendabot/pkg/model"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockAppointmentRepository struct {
	createFunc          func(ctx context.Context, appointment *model.Appointment) error
	findByFolioFunc     func(ctx context.Context, tenantID, folio string) (*model.Appointment, error)
	findByCustomerFunc  func(ctx context.Context, tenantID, customerID string, limit int, offset int64) ([]*model.Appointment, error)
	countByCustomerFunc func(ctx context.Context, tenantID, customerID string) (int64, error)
	existsActiveFunc    func(ctx context.Context, tenantID, serviceID, date, clock string) (bool, error)
	bookedTimesFunc     func(ctx context.Context, tenantID, serviceID, from, to string) (map[string]map[string]bool, error)
	cancelFunc          func(ctx context.Context, tenantID, folio string, at time.Time) (*model.Appointment, error)
}

func (m *mockAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, appointment)
	}
	return nil
}

func (m *mockAppointmentRepository) FindByFolio(ctx context.Context, tenantID, folio string) (*model.Appointment, error) {
	if m.findByFolioFunc != nil {
		return m.findByFolioFunc(ctx, tenantID, folio)
	}
	return nil, appointmentserrors.ErrNotFound
}

func (m *mockAppointmentRepository) FindByCustomer(ctx context.Context, tenantID, customerID string, limit int, offset int64) ([]*model.Appointment, error) {
	if m.findByCustomerFunc != nil {
		return m.findByCustomerFunc(ctx, tenantID, customerID, limit, offset)
	}
	return []*model.Appointment{}, nil
}

func (m *mockAppointmentRepository) CountByCustomer(ctx context.Context, tenantID, customerID string) (int64, error) {
	if m.countByCustomerFunc != nil {
		return m.countByCustomerFunc(ctx, tenantID, customerID)
	}
	return 0, nil
}

func (m *mockAppointmentRepository) ExistsActive(ctx context.Context, tenantID, serviceID, date, clock string) (bool, error) {
	if m.existsActiveFunc != nil {
		return m.existsActiveFunc(ctx, tenantID, serviceID, date, clock)
	}
	return false, nil
}

func (m *mockAppointmentRepository) BookedTimes(ctx context.Context, tenantID, serviceID, from, to string) (map[string]map[string]bool, error) {
	if m.bookedTimesFunc != nil {
		return m.bookedTimesFunc(ctx, tenantID, serviceID, from, to)
	}
	return map[string]map[string]bool{}, nil
}

func (m *mockAppointmentRepository) Cancel(ctx context.Context, tenantID, folio string, at time.Time) (*model.Appointment, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, tenantID, folio, at)
	}
	return nil, appointmentserrors.ErrNotFound
}

func (m *mockAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

// memoryLocks is an in-process stand-in for the shared lock store.
type memoryLocks struct {
	mu       sync.Mutex
	held     map[string]bool
	released []string
	failWith error
}

func newMemoryLocks() *memoryLocks {
	return &memoryLocks{held: map[string]bool{}}
}

func (l *memoryLocks) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	if l.failWith != nil {
		return false, l.failWith
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memoryLocks) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	l.released = append(l.released, key)
	return nil
}

type mockPublisher struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (p *mockPublisher) Publish(_ context.Context, msg kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

func testConfig() *config.Config {
	return &config.Config{
		Log:          logger.Discard(),
		SlotLockTTL:  30 * time.Second,
		WriteTimeout: time.Second,
		LockBackend:  config.BackendMongo,
	}
}

func newTestLedger(repo *mockAppointmentRepository, locks *memoryLocks, events EventPublisher) *ledgerService {
	cfg := testConfig()
	svc := NewLedgerService(repo, locks, validator.NewAppointmentValidator(cfg.Log), events, nil, cfg).(*ledgerService)
	svc.now = func() time.Time { return time.Date(2024, time.May, 22, 10, 0, 0, 0, time.UTC) }
	svc.folio = func() (string, error) { return "K3X9QA", nil }
	return svc
}

func bookingRequest() *model.BookingRequest {
	return &model.BookingRequest{
		CustomerID:   "5215512345678",
		CustomerName: "  Ana   Lopez ",
		ServiceID:    "srv-1",
		ServiceName:  "Manicura",
		Date:         "2024-05-23",
		Time:         "09:00",
		Turn:         "Matutino",
	}
}

const lockKey = "tenant-1:srv-1:2024-05-23:09:00"

func TestBookAppointment_Success(t *testing.T) {
	var created *model.Appointment
	repo := &mockAppointmentRepository{
		createFunc: func(ctx context.Context, a *model.Appointment) error {
			if _, ok := ctx.(mongo.SessionContext); !ok {
				t.Error("Create should run inside the transaction")
			}
			created = a
			return nil
		},
	}
	locks := newMemoryLocks()
	events := &mockPublisher{}
	svc := newTestLedger(repo, locks, events)

	appt, err := svc.BookAppointment(context.Background(), "tenant-1", bookingRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt == nil {
		t.Fatal("expected an appointment")
	}
	if appt != created {
		t.Error("returned appointment should be the persisted one")
	}
	if appt.Folio != "K3X9QA" || appt.DisplayFolio() != "APP-K3X9QA" {
		t.Errorf("unexpected folio %q", appt.Folio)
	}
	if appt.Status != model.AppointmentConfirmed {
		t.Errorf("status = %s, want confirmed", appt.Status)
	}
	if appt.CustomerName != "Ana Lopez" {
		t.Errorf("customer name should be normalised, got %q", appt.CustomerName)
	}
	if appt.ID == "" || appt.TenantID != "tenant-1" {
		t.Errorf("id/tenant not set: %+v", appt)
	}
	if len(locks.released) != 1 || locks.released[0] != lockKey {
		t.Errorf("lock should be released once, got %v", locks.released)
	}
	if len(events.messages) != 1 || events.messages[0].GetEventType() != EventAppointmentBooked {
		t.Errorf("expected one booked event, got %v", events.messages)
	}
	if events.messages[0].GetTenantID() != "tenant-1" || events.messages[0].Key != appt.ID {
		t.Errorf("event should be keyed by appointment and tagged with tenant")
	}
}

func TestBookAppointment_LockBusy(t *testing.T) {
	repo := &mockAppointmentRepository{
		createFunc: func(context.Context, *model.Appointment) error {
			t.Error("nothing must be written when the lock is busy")
			return nil
		},
	}
	locks := newMemoryLocks()
	locks.held[lockKey] = true
	svc := newTestLedger(repo, locks, nil)

	appt, err := svc.BookAppointment(context.Background(), "tenant-1", bookingRequest())
	if err != nil {
		t.Fatalf("contention is not an error, got %v", err)
	}
	if appt != nil {
		t.Errorf("expected nil appointment, got %+v", appt)
	}
	if len(locks.released) != 0 {
		t.Errorf("a lock we never held must not be released, got %v", locks.released)
	}
}

func TestBookAppointment_SlotAlreadyBooked(t *testing.T) {
	repo := &mockAppointmentRepository{
		existsActiveFunc: func(context.Context, string, string, string, string) (bool, error) { return true, nil },
		createFunc: func(context.Context, *model.Appointment) error {
			t.Error("Create must not run for a taken slot")
			return nil
		},
	}
	locks := newMemoryLocks()
	svc := newTestLedger(repo, locks, nil)

	appt, err := svc.BookAppointment(context.Background(), "tenant-1", bookingRequest())
	if err != nil || appt != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", appt, err)
	}
	if len(locks.released) != 1 {
		t.Errorf("lock should still be released, got %v", locks.released)
	}
}

func TestBookAppointment_PersistFailureReleasesLock(t *testing.T) {
	repo := &mockAppointmentRepository{
		createFunc: func(context.Context, *model.Appointment) error { return errors.New("write conflict") },
	}
	locks := newMemoryLocks()
	events := &mockPublisher{}
	svc := newTestLedger(repo, locks, events)

	appt, err := svc.BookAppointment(context.Background(), "tenant-1", bookingRequest())
	if appt != nil {
		t.Errorf("expected no appointment, got %+v", appt)
	}
	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("expected internal error, got %v", err)
	}
	if len(locks.released) != 1 {
		t.Errorf("lock must be released after a failed write, got %v", locks.released)
	}
	if len(events.messages) != 0 {
		t.Error("no event should be published for a failed booking")
	}
}

func TestBookAppointment_PanicReleasesLock(t *testing.T) {
	repo := &mockAppointmentRepository{
		createFunc: func(context.Context, *model.Appointment) error { panic("driver exploded") },
	}
	locks := newMemoryLocks()
	svc := newTestLedger(repo, locks, nil)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected the panic to propagate")
			}
		}()
		_, _ = svc.BookAppointment(context.Background(), "tenant-1", bookingRequest())
	}()

	if len(locks.released) != 1 || locks.held[lockKey] {
		t.Errorf("lock must be released on panic, released=%v", locks.released)
	}
}

func TestBookAppointment_CancelledContextStillReleases(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := &mockAppointmentRepository{
		createFunc: func(context.Context, *model.Appointment) error {
			cancel()
			return context.Canceled
		},
	}
	locks := newMemoryLocks()
	svc := newTestLedger(repo, locks, nil)

	_, _ = svc.BookAppointment(ctx, "tenant-1", bookingRequest())
	if len(locks.released) != 1 {
		t.Errorf("lock must be released after the request is cancelled, got %v", locks.released)
	}
}

func TestBookAppointment_InvalidRequest(t *testing.T) {
	locks := newMemoryLocks()
	svc := newTestLedger(&mockAppointmentRepository{}, locks, nil)

	req := bookingRequest()
	req.CustomerName = "Al"
	_, err := svc.BookAppointment(context.Background(), "tenant-1", req)
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if len(locks.held) != 0 {
		t.Error("no lock should be taken for an invalid request")
	}

	_, err = svc.BookAppointment(context.Background(), "", bookingRequest())
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input for empty tenant, got %v", err)
	}
}

func TestBookAppointment_LockStoreDown(t *testing.T) {
	locks := newMemoryLocks()
	locks.failWith = errors.New("connection refused")
	svc := newTestLedger(&mockAppointmentRepository{}, locks, nil)

	_, err := svc.BookAppointment(context.Background(), "tenant-1", bookingRequest())
	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestBookAppointment_EventFailureDoesNotFailBooking(t *testing.T) {
	events := &mockPublisher{err: errors.New("broker down")}
	svc := newTestLedger(&mockAppointmentRepository{}, newMemoryLocks(), events)

	appt, err := svc.BookAppointment(context.Background(), "tenant-1", bookingRequest())
	if err != nil || appt == nil {
		t.Fatalf("booking should succeed without the event, got (%v, %v)", appt, err)
	}
}

func TestBookAppointment_ConcurrentSameSlot(t *testing.T) {
	var mu sync.Mutex
	booked := map[string]bool{}
	repo := &mockAppointmentRepository{
		existsActiveFunc: func(_ context.Context, _, _, date, clock string) (bool, error) {
			mu.Lock()
			defer mu.Unlock()
			return booked[date+" "+clock], nil
		},
		createFunc: func(_ context.Context, a *model.Appointment) error {
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			defer mu.Unlock()
			booked[a.Date+" "+a.Time] = true
			return nil
		},
	}
	svc := newTestLedger(repo, newMemoryLocks(), nil)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			appt, err := svc.BookAppointment(context.Background(), "tenant-1", bookingRequest())
			if err == nil && appt != nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("exactly one booking should win, got %d", wins.Load())
	}
}

func TestCheckAvailability(t *testing.T) {
	repo := &mockAppointmentRepository{
		existsActiveFunc: func(_ context.Context, _, _, _, clock string) (bool, error) {
			return clock == "10:00", nil
		},
	}
	svc := newTestLedger(repo, newMemoryLocks(), nil)

	free, err := svc.CheckAvailability(context.Background(), "tenant-1", "srv-1", "2024-05-23", "09:00")
	if err != nil || !free {
		t.Errorf("09:00 should be free, got (%v, %v)", free, err)
	}
	free, err = svc.CheckAvailability(context.Background(), "tenant-1", "srv-1", "2024-05-23", "10:00")
	if err != nil || free {
		t.Errorf("10:00 should be taken, got (%v, %v)", free, err)
	}
	if _, err := svc.CheckAvailability(context.Background(), "tenant-1", "", "2024-05-23", "10:00"); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestCheckAvailability_StoreDeadline(t *testing.T) {
	repo := &mockAppointmentRepository{
		existsActiveFunc: func(context.Context, string, string, string, string) (bool, error) {
			return false, context.DeadlineExceeded
		},
	}
	svc := newTestLedger(repo, newMemoryLocks(), nil)

	_, err := svc.CheckAvailability(context.Background(), "tenant-1", "srv-1", "2024-05-23", "09:00")
	if !apperrors.HasCode(err, apperrors.CodeTimeout) {
		t.Errorf("expected timeout, got %v", err)
	}
}

func TestBookedTimes_InvalidRange(t *testing.T) {
	svc := newTestLedger(&mockAppointmentRepository{}, newMemoryLocks(), nil)

	_, err := svc.BookedTimes(context.Background(), "tenant-1", "srv-1", "2024-05-29", "2024-05-23")
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestCancelAppointment(t *testing.T) {
	tests := []struct {
		name     string
		folio    string
		repoErr  error
		wantCode string
	}{
		{"success with display folio", "app-k3x9qa", nil, ""},
		{"not found", "ZZZZZZ", appointmentserrors.ErrNotFound, apperrors.CodeNotFound},
		{"already cancelled", "K3X9QA", appointmentserrors.ErrAlreadyCancelled, apperrors.CodeConflict},
		{"store failure", "K3X9QA", errors.New("timeout"), apperrors.CodeInternal},
		{"empty folio", "  ", nil, apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotFolio string
			repo := &mockAppointmentRepository{
				cancelFunc: func(_ context.Context, tenantID, folio string, _ time.Time) (*model.Appointment, error) {
					gotFolio = folio
					if tt.repoErr != nil {
						return nil, tt.repoErr
					}
					return &model.Appointment{ID: "a-1", TenantID: tenantID, Folio: folio, Status: model.AppointmentCancelled}, nil
				},
			}
			events := &mockPublisher{}
			svc := newTestLedger(repo, newMemoryLocks(), events)

			appt, err := svc.CancelAppointment(context.Background(), "tenant-1", tt.folio)
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Errorf("expected %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotFolio != "K3X9QA" {
				t.Errorf("folio should be normalised, got %q", gotFolio)
			}
			if appt.Status != model.AppointmentCancelled {
				t.Errorf("status = %s, want cancelled", appt.Status)
			}
			if len(events.messages) != 1 || events.messages[0].GetEventType() != EventAppointmentCancelled {
				t.Errorf("expected a cancelled event, got %v", events.messages)
			}
		})
	}
}

func TestListByCustomer(t *testing.T) {
	repo := &mockAppointmentRepository{
		countByCustomerFunc: func(context.Context, string, string) (int64, error) { return 3, nil },
		findByCustomerFunc: func(_ context.Context, _, customerID string, limit int, _ int64) ([]*model.Appointment, error) {
			return []*model.Appointment{{ID: "a-1", CustomerID: customerID}}, nil
		},
	}
	svc := newTestLedger(repo, newMemoryLocks(), nil)

	appts, count, err := svc.ListByCustomer(context.Background(), "tenant-1", "5215512345678", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 || len(appts) != 1 {
		t.Errorf("got %d appointments, count %d", len(appts), count)
	}

	repo.countByCustomerFunc = func(context.Context, string, string) (int64, error) { return 0, errors.New("boom") }
	if _, _, err := svc.ListByCustomer(context.Background(), "tenant-1", "", 10, 0); !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestFolio(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		f, err := NewFolio()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(f) != 6 || strings.ToUpper(f) != f {
			t.Errorf("folio %q should be 6 uppercase characters", f)
		}
		seen[f] = true
	}
	if len(seen) < 45 {
		t.Errorf("folios look far from random: %d distinct of 50", len(seen))
	}

	if got := NormalizeFolio(" app-k3x9qa "); got != "K3X9QA" {
		t.Errorf("NormalizeFolio() = %q", got)
	}
}
