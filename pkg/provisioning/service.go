// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package provisioning

import (
	"context"
	"fmt"

	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/tracing"
	"github.com/canonical/marketplace-service/internal/types"
)

// ProvisionRequest carries the validated signup input. Validation happens at
// the HTTP boundary, before any write.
type ProvisionRequest struct {
	Email    string
	Password string

	ProfileName string

	TenantName string
	TenantType types.TenantType
	Prefecture string
	City       string
	Phone      string
}

type ProvisionResult struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
}

type Service struct {
	storage StorageInterface
	kratos  KratosClientInterface
	authz   AuthzInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// ProvisionTenantAndProfile creates the identity provider account, the tenant
// and the profile as one logical unit. The three records live in separate
// stores with no shared transaction, so a step failure unwinds what was
// already created, in reverse order. The error surfaced to the caller is
// always the original step failure, compensation problems only get logged.
func (s *Service) ProvisionTenantAndProfile(ctx context.Context, req *ProvisionRequest) (*ProvisionResult, error) {
	ctx, span := s.tracer.Start(ctx, "provisioning.Service.ProvisionTenantAndProfile")
	defer span.End()

	userID, err := s.kratos.CreateIdentity(ctx, req.Email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	tenant, err := s.storage.CreateTenant(ctx, &types.Tenant{
		Name:       req.TenantName,
		Type:       req.TenantType,
		Status:     types.TenantStatusActive,
		Prefecture: req.Prefecture,
		City:       req.City,
		Phone:      req.Phone,
	})
	if err != nil {
		s.compensateIdentity(ctx, userID)
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	// The creator of a new tenant is always its first admin. Upsert keyed by
	// the subject id, so a retry after a prior partial success does not trip
	// over a duplicate key.
	if _, err := s.storage.UpsertProfile(ctx, &types.Profile{
		ID:       userID,
		Name:     req.ProfileName,
		Role:     types.RoleTenantAdmin,
		TenantID: &tenant.ID,
		Active:   true,
	}); err != nil {
		s.compensateTenant(ctx, tenant.ID)
		s.compensateIdentity(ctx, userID)
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	// The relationship tuple is the advisory layer, not the system of record.
	// A failure here is worth a log line, never a rollback.
	if err := s.authz.AssignTenantOwner(ctx, tenant.ID, userID); err != nil {
		s.logger.Errorf("failed to assign tenant owner tuple for tenant %s: %v", tenant.ID, err)
	}

	return &ProvisionResult{UserID: userID, TenantID: tenant.ID}, nil
}

// Compensation runs on a context detached from the caller's cancellation, an
// abandoned signup request must not leave cleanup half done.

func (s *Service) compensateTenant(ctx context.Context, tenantID string) {
	if err := s.storage.DeleteTenant(context.WithoutCancel(ctx), tenantID); err != nil {
		s.logger.Security().CompensationFailure("delete_tenant", tenantID, err)
	}
}

func (s *Service) compensateIdentity(ctx context.Context, userID string) {
	if err := s.kratos.DeleteIdentity(context.WithoutCancel(ctx), userID); err != nil {
		s.logger.Security().CompensationFailure("delete_identity", userID, err)
	}
}

func NewService(
	storage StorageInterface,
	kratos KratosClientInterface,
	authz AuthzInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		kratos:  kratos,
		authz:   authz,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
