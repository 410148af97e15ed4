package webhook

import (
	"agendabot/internal/conversation"
	"agendabot/internal/delivery"
	"agendabot/internal/intent"
	apperrors "agendabot/pkg/errors"
	"agendabot/pkg/logger"
	"agendabot/pkg/metrics"
	"agendabot/pkg/middleware"
	"agendabot/pkg/model"
	"agendabot/pkg/sanitizer"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

const (
	resultProcessed = "processed"
	resultDuplicate = "duplicate"
	resultSupport   = "support"
	resultInvalid   = "invalid"
	resultFailed    = "failed"

	seenKeyPrefix = "wamid:"
)

type TenantResolver interface {
	Resolve(ctx context.Context, phoneNumberID, displayNumber string) (*model.Tenant, error)
}

type CustomerTracker interface {
	Touch(ctx context.Context, tenantID, channelID, name string) (*model.Customer, error)
}

type SessionLoader interface {
	Load(ctx context.Context, tenantID, customerID string) (*model.Session, error)
}

// Processor runs one conversation step; *conversation.Orchestrator implements it.
type Processor interface {
	Process(ctx context.Context, c *conversation.Context) (*conversation.Response, error)
}

type Dependencies struct {
	Tenants    TenantResolver
	Customers  CustomerTracker
	Sessions   SessionLoader
	Classifier intent.Classifier
	Processor  Processor
	Sender     delivery.Sender
	// Seen drops provider redeliveries by message id. Optional.
	Seen    middleware.IdempotencyStore
	Metrics *metrics.Metrics
	Log     *logger.Logger
}

// Service takes a normalised inbound message through one conversation turn
// and delivers the replies.
type Service struct {
	tenants    TenantResolver
	customers  CustomerTracker
	sessions   SessionLoader
	classifier intent.Classifier
	processor  Processor
	sender     delivery.Sender
	seen       middleware.IdempotencyStore
	validate   *validator.Validate
	metrics    *metrics.Metrics
	log        *logger.Logger
	now        func() time.Time
}

func NewService(deps Dependencies) *Service {
	return &Service{
		tenants:    deps.Tenants,
		customers:  deps.Customers,
		sessions:   deps.Sessions,
		classifier: deps.Classifier,
		processor:  deps.Processor,
		sender:     deps.Sender,
		seen:       deps.Seen,
		validate:   validator.New(),
		metrics:    deps.Metrics,
		log:        deps.Log,
		now:        time.Now,
	}
}

func (s *Service) Handle(ctx context.Context, in Inbound) error {
	msg := in.Message
	if msg.Reply == nil {
		msg.Code, msg.Text = ParseCode(msg.Text)
	}
	if err := s.validate.Struct(msg); err != nil {
		s.metrics.ObserveWebhook(resultInvalid)
		return apperrors.Validation("Inbound message validation failed", map[string]any{"error": err.Error()})
	}

	if s.duplicate(ctx, msg.MessageID) {
		s.metrics.ObserveWebhook(resultDuplicate)
		s.log.Debug("Duplicate webhook delivery dropped", "message_id", msg.MessageID)
		return nil
	}

	tenant, err := s.tenants.Resolve(ctx, in.PhoneNumberID, in.DisplayNumber)
	if err != nil {
		s.metrics.ObserveWebhook(resultFailed)
		return err
	}
	log := s.log.Conversation(tenant.ID, msg.CustomerID)

	var customer *model.Customer
	var session *model.Session
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		customer, err = s.customers.Touch(gctx, tenant.ID, msg.CustomerID, msg.SenderName)
		return err
	})
	g.Go(func() error {
		var err error
		session, err = s.sessions.Load(gctx, tenant.ID, msg.CustomerID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.ObserveWebhook(resultFailed)
		log.Error("Failed to load conversation", "error", err)
		return err
	}

	if customer.HumanSupportActive {
		s.markSeen(ctx, msg.MessageID)
		s.metrics.ObserveWebhook(resultSupport)
		log.Info("Human support active, bot stays silent")
		return nil
	}

	c := &conversation.Context{
		TenantID: tenant.ID,
		Tenant:   tenant,
		Customer: customer,
		Session:  *session,
		Message:  msg,
	}
	if session.State.IdleLike() || session.State == model.StateAgentClassifier {
		c.Intent = s.classify(ctx, log, msg)
	}

	resp, err := s.processor.Process(ctx, c)
	if err != nil {
		s.metrics.ObserveWebhook(resultFailed)
		return fmt.Errorf("failed to process message: %w", err)
	}
	s.markSeen(ctx, msg.MessageID)

	if err := delivery.Deliver(ctx, s.sender, tenant, msg.CustomerID, resp.Messages, log); err != nil {
		s.metrics.ObserveWebhook(resultFailed)
		return err
	}
	s.metrics.ObserveWebhook(resultProcessed)
	return nil
}

func (s *Service) classify(ctx context.Context, log *logger.Logger, msg model.InboundMessage) intent.Intent {
	detected, err := s.classifier.Classify(ctx, sanitizer.CleanText(msg.Content()))
	if err != nil {
		log.Warn("Intent classification failed", "error", err)
		return ""
	}
	return detected
}

func (s *Service) duplicate(ctx context.Context, messageID string) bool {
	if s.seen == nil || messageID == "" {
		return false
	}
	_, ok := s.seen.Get(ctx, seenKeyPrefix+messageID)
	return ok
}

func (s *Service) markSeen(ctx context.Context, messageID string) {
	if s.seen == nil || messageID == "" {
		return
	}
	s.seen.Set(ctx, seenKeyPrefix+messageID, &middleware.CachedResponse{
		StatusCode: http.StatusOK,
		CreatedAt:  s.now().UTC(),
	})
}
