package service

import (
	"agendabot/internal/customers/repository"
	"agendabot/pkg/config"
	apperrors "agendabot/pkg/errors"
	"agendabot/pkg/model"
	"agendabot/pkg/sanitizer"
	"context"
	"errors"
	"time"
)

type CustomerService interface {
	Touch(ctx context.Context, tenantID, channelID, name string) (*model.Customer, error)
	// SetHumanSupport hands the conversation to a human (true) or back to the bot (false).
	SetHumanSupport(ctx context.Context, tenantID, channelID string, active bool) error
}

type customerService struct {
	repo repository.CustomerRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewCustomerService(repo repository.CustomerRepository, cfg *config.Config) CustomerService {
	return &customerService{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

func (s *customerService) Touch(ctx context.Context, tenantID, channelID, name string) (*model.Customer, error) {
	if tenantID == "" || channelID == "" {
		return nil, apperrors.InvalidInput("Tenant and customer are required")
	}

	customer, err := s.repo.Touch(ctx, tenantID, channelID, sanitizer.NormalizeName(name), s.now())
	if err != nil {
		s.cfg.Log.Error("Failed to record customer interaction",
			"tenant_id", tenantID,
			"customer_id", channelID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to record customer interaction", err)
	}
	return customer, nil
}

func (s *customerService) SetHumanSupport(ctx context.Context, tenantID, channelID string, active bool) error {
	if tenantID == "" || channelID == "" {
		return apperrors.InvalidInput("Tenant and customer are required")
	}

	if err := s.repo.SetHumanSupport(ctx, tenantID, channelID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFoundWithID("Customer", channelID)
		}
		s.cfg.Log.Error("Failed to update human support flag",
			"tenant_id", tenantID,
			"customer_id", channelID,
			"active", active,
			"error", err,
		)
		return apperrors.Internal("Failed to update customer", err)
	}

	s.cfg.Log.Info("Human support flag updated",
		"tenant_id", tenantID,
		"customer_id", channelID,
		"active", active,
	)
	return nil
}
