package service

import (
	tenantserrors "agendabot/internal/tenants/errors"
	"agendabot/internal/tenants/repository"
	"agendabot/internal/tenants/validator"
	"agendabot/pkg/config"
	apperrors "agendabot/pkg/errors"
	"agendabot/pkg/model"
	"agendabot/pkg/sanitizer"
	"context"
	"errors"
)

type TenantService interface {
	// Resolve maps the number a message was sent to onto a tenant, falling
	// back to the configured default tenant.
	Resolve(ctx context.Context, phoneNumberID, displayNumber string) (*model.Tenant, error)
	GetTenant(ctx context.Context, id string) (*model.Tenant, error)
	GetServices(ctx context.Context, tenantID string) ([]*model.Service, error)
	GetService(ctx context.Context, tenantID, serviceID string) (*model.Service, error)
}

type tenantService struct {
	tenants   repository.TenantRepository
	services  repository.ServiceRepository
	validator *validator.TenantValidator
	cfg       *config.Config

	tenantCache  *ttlCache[*model.Tenant]
	channelCache *ttlCache[string]
	serviceCache *ttlCache[[]*model.Service]
}

func NewTenantService(
	tenants repository.TenantRepository,
	services repository.ServiceRepository,
	validator *validator.TenantValidator,
	cfg *config.Config,
) TenantService {
	return &tenantService{
		tenants:      tenants,
		services:     services,
		validator:    validator,
		cfg:          cfg,
		tenantCache:  newTTLCache[*model.Tenant](cfg.TenantCacheTTL),
		channelCache: newTTLCache[string](cfg.TenantCacheTTL),
		serviceCache: newTTLCache[[]*model.Service](cfg.TenantCacheTTL),
	}
}

func (s *tenantService) Resolve(ctx context.Context, phoneNumberID, displayNumber string) (*model.Tenant, error) {
	channelNumber := sanitizer.NormalizePhone(displayNumber)
	channelKey := phoneNumberID + "|" + channelNumber

	if id, ok := s.channelCache.get(channelKey); ok {
		return s.GetTenant(ctx, id)
	}

	tenant, err := s.tenants.FindByChannel(ctx, phoneNumberID, channelNumber)
	switch {
	case err == nil:
		if err := s.check(tenant); err != nil {
			return nil, err
		}
		s.tenantCache.set(tenant.ID, tenant)
		s.channelCache.set(channelKey, tenant.ID)
		return tenant, nil
	case errors.Is(err, tenantserrors.ErrNotFound):
		if s.cfg.DefaultTenantID == "" {
			s.cfg.Log.Warn("No tenant for channel",
				"phone_number_id", phoneNumberID,
				"channel_number", channelNumber,
			)
			return nil, apperrors.NotFound("Tenant")
		}
		s.cfg.Log.Debug("No tenant for channel, using default tenant",
			"phone_number_id", phoneNumberID,
			"channel_number", channelNumber,
			"tenant_id", s.cfg.DefaultTenantID,
		)
		s.channelCache.set(channelKey, s.cfg.DefaultTenantID)
		return s.GetTenant(ctx, s.cfg.DefaultTenantID)
	default:
		s.cfg.Log.Error("Failed to resolve tenant",
			"phone_number_id", phoneNumberID,
			"channel_number", channelNumber,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to resolve tenant", err)
	}
}

func (s *tenantService) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Tenant ID cannot be empty")
	}
	if tenant, ok := s.tenantCache.get(id); ok {
		return tenant, nil
	}

	tenant, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, tenantserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Tenant", id)
		}
		s.cfg.Log.Error("Failed to get tenant", "tenant_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve tenant", err)
	}
	if err := s.check(tenant); err != nil {
		return nil, err
	}

	s.tenantCache.set(id, tenant)
	return tenant, nil
}

func (s *tenantService) GetServices(ctx context.Context, tenantID string) ([]*model.Service, error) {
	if tenantID == "" {
		return nil, apperrors.InvalidInput("Tenant ID cannot be empty")
	}
	if services, ok := s.serviceCache.get(tenantID); ok {
		return services, nil
	}

	all, err := s.services.ListByTenant(ctx, tenantID)
	if err != nil {
		s.cfg.Log.Error("Failed to list services", "tenant_id", tenantID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve services", err)
	}

	services := make([]*model.Service, 0, len(all))
	for _, svc := range all {
		if err := s.validator.ValidateService(svc); err != nil {
			s.cfg.Log.Warn("Skipping misconfigured service",
				"tenant_id", tenantID,
				"service_id", svc.ID,
				"error", err,
			)
			continue
		}
		services = append(services, svc)
	}

	s.serviceCache.set(tenantID, services)
	return services, nil
}

func (s *tenantService) GetService(ctx context.Context, tenantID, serviceID string) (*model.Service, error) {
	services, err := s.GetServices(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, svc := range services {
		if svc.ID == serviceID {
			return svc, nil
		}
	}
	return nil, apperrors.NotFoundWithID("Service", serviceID)
}

func (s *tenantService) check(tenant *model.Tenant) error {
	if err := s.validator.Validate(tenant); err != nil {
		s.cfg.Log.Error("Tenant configuration is invalid",
			"tenant_id", tenant.ID,
			"error", err,
		)
		return apperrors.Internal("Tenant configuration is invalid", tenantserrors.ErrMisconfigured)
	}
	return nil
}
