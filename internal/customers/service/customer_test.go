package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"agendabot/internal/customers/repository"
	"agendabot/pkg/config"
	apperrors "agendabot/pkg/errors"
	"agendabot/pkg/logger"
	"agendabot/pkg/model"
)

type mockCustomerRepository struct {
	touchFunc      func(ctx context.Context, tenantID, channelID, name string, at time.Time) (*model.Customer, error)
	setSupportFunc func(ctx context.Context, tenantID, channelID string, active bool) error
}

func (m *mockCustomerRepository) Touch(ctx context.Context, tenantID, channelID, name string, at time.Time) (*model.Customer, error) {
	return m.touchFunc(ctx, tenantID, channelID, name, at)
}

func (m *mockCustomerRepository) SetHumanSupport(ctx context.Context, tenantID, channelID string, active bool) error {
	return m.setSupportFunc(ctx, tenantID, channelID, active)
}

func newTestService(repo repository.CustomerRepository) *customerService {
	s := NewCustomerService(repo, &config.Config{Log: logger.Discard()}).(*customerService)
	s.now = func() time.Time { return time.Date(2024, 5, 22, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestTouch(t *testing.T) {
	repo := &mockCustomerRepository{
		touchFunc: func(_ context.Context, tenantID, channelID, name string, at time.Time) (*model.Customer, error) {
			if name != "ana lopez" {
				t.Errorf("expected normalised name, got %q", name)
			}
			return &model.Customer{TenantID: tenantID, ChannelID: channelID, Name: name, LastInteraction: at}, nil
		},
	}

	customer, err := newTestService(repo).Touch(context.Background(), "spa", "5215512345678", "  ana   lopez ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if customer.LastInteraction.IsZero() {
		t.Error("expected last interaction to be set")
	}

	if _, err := newTestService(repo).Touch(context.Background(), "", "x", ""); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}

	repo.touchFunc = func(context.Context, string, string, string, time.Time) (*model.Customer, error) {
		return nil, errors.New("mongo down")
	}
	if _, err := newTestService(repo).Touch(context.Background(), "spa", "x", ""); !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestSetHumanSupport(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		wantCode string
	}{
		{name: "updated"},
		{name: "unknown customer", repoErr: fmt.Errorf("%w: x", repository.ErrNotFound), wantCode: apperrors.CodeNotFound},
		{name: "store failure", repoErr: errors.New("boom"), wantCode: apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCustomerRepository{
				setSupportFunc: func(context.Context, string, string, bool) error { return tt.repoErr },
			}
			err := newTestService(repo).SetHumanSupport(context.Background(), "spa", "521", true)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}
