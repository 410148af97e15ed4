package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"agendabot/pkg/logger"
	"agendabot/pkg/model"
	"agendabot/pkg/sanitizer"
)

// SeedFile is the JSON layout accepted by Seed.
type SeedFile struct {
	Tenants []SeedTenant `json:"tenants"`
}

type SeedTenant struct {
	model.Tenant
	Services []model.Service `json:"services"`
}

type TenantWriter interface {
	Upsert(ctx context.Context, tenant *model.Tenant) error
}

type ServiceWriter interface {
	Upsert(ctx context.Context, service *model.Service) error
}

type TenantChecker interface {
	Validate(tenant *model.Tenant) error
	ValidateService(service *model.Service) error
}

func LoadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Seed upserts every tenant and its services. Nothing is written for a
// tenant that fails validation, and the first failure stops the run.
func Seed(ctx context.Context, seed *SeedFile, tenants TenantWriter, services ServiceWriter, checker TenantChecker, log *logger.Logger) error {
	now := time.Now().UTC()
	for i := range seed.Tenants {
		entry := &seed.Tenants[i]
		tenant := entry.Tenant
		tenant.ChannelNumber = sanitizer.NormalizePhone(tenant.ChannelNumber)
		if tenant.CreatedAt.IsZero() {
			tenant.CreatedAt = now
		}
		if err := checker.Validate(&tenant); err != nil {
			return fmt.Errorf("tenant %q: %w", tenant.ID, err)
		}

		for j := range entry.Services {
			svc := &entry.Services[j]
			svc.TenantID = tenant.ID
			if err := checker.ValidateService(svc); err != nil {
				return fmt.Errorf("tenant %q service %q: %w", tenant.ID, svc.ID, err)
			}
		}

		if err := tenants.Upsert(ctx, &tenant); err != nil {
			return fmt.Errorf("failed to upsert tenant %q: %w", tenant.ID, err)
		}
		for j := range entry.Services {
			if err := services.Upsert(ctx, &entry.Services[j]); err != nil {
				return fmt.Errorf("failed to upsert service %q: %w", entry.Services[j].ID, err)
			}
		}
		log.Info("Seeded tenant", "tenant_id", tenant.ID, "services", len(entry.Services))
	}
	return nil
}
