// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/tracing"
	"github.com/canonical/marketplace-service/internal/types"
)

// profileFetchLimit caps the admin listing working set. The platform operates
// tens of tenants, filtering happens in memory over one page.
const profileFetchLimit = 500

// UserFilter narrows the admin user listing. Zero values mean "any".
type UserFilter struct {
	Query        string
	Role         types.Role
	Active       *bool
	TenantStatus types.TenantStatus
	TenantType   types.TenantType
}

// User is the admin view of a profile: the profile itself, its tenant when it
// has one, and how many published listings that tenant currently carries.
type User struct {
	Profile           *types.Profile `json:"profile"`
	Tenant            *types.Tenant  `json:"tenant,omitempty"`
	PublishedListings int            `json:"published_listings"`
}

type Service struct {
	storage StorageInterface
	authz   AuthzInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *Service) ListUsers(ctx context.Context, filter *UserFilter) ([]*User, error) {
	ctx, span := s.tracer.Start(ctx, "admin.Service.ListUsers")
	defer span.End()

	profiles, err := s.storage.ListProfiles(ctx, profileFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	tenantIDs := make([]string, 0, len(profiles))
	seen := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		if p.TenantID != nil && !seen[*p.TenantID] {
			seen[*p.TenantID] = true
			tenantIDs = append(tenantIDs, *p.TenantID)
		}
	}

	tenants := make(map[string]*types.Tenant, len(tenantIDs))
	if len(tenantIDs) > 0 {
		rows, err := s.storage.ListTenantsByIDs(ctx, tenantIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to list tenants: %w", err)
		}
		for _, t := range rows {
			tenants[t.ID] = t
		}
	}

	counts, err := s.storage.CountPublishedListingsByTenant(ctx, tenantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count published listings: %w", err)
	}

	users := make([]*User, 0, len(profiles))
	for _, p := range profiles {
		user := &User{Profile: p}
		if p.TenantID != nil {
			user.Tenant = tenants[*p.TenantID]
			user.PublishedListings = counts[*p.TenantID]
		}
		if filter.matches(user) {
			users = append(users, user)
		}
	}

	return users, nil
}

func (f *UserFilter) matches(u *User) bool {
	if f == nil {
		return true
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(u.Profile.Name), strings.ToLower(f.Query)) {
		return false
	}
	if f.Role != "" && u.Profile.Role != f.Role {
		return false
	}
	if f.Active != nil && u.Profile.Active != *f.Active {
		return false
	}
	// Tenant filters exclude profiles that have no tenant at all.
	if f.TenantStatus != "" && (u.Tenant == nil || u.Tenant.Status != f.TenantStatus) {
		return false
	}
	if f.TenantType != "" && (u.Tenant == nil || u.Tenant.Type != f.TenantType) {
		return false
	}
	return true
}

func (s *Service) SetProfileActive(ctx context.Context, id string, active bool) error {
	ctx, span := s.tracer.Start(ctx, "admin.Service.SetProfileActive")
	defer span.End()

	return s.storage.SetProfileActive(ctx, id, active)
}

func (s *Service) ListTenants(ctx context.Context) ([]*types.Tenant, error) {
	ctx, span := s.tracer.Start(ctx, "admin.Service.ListTenants")
	defer span.End()

	return s.storage.ListTenants(ctx)
}

func (s *Service) SetTenantStatus(ctx context.Context, id string, status types.TenantStatus) error {
	ctx, span := s.tracer.Start(ctx, "admin.Service.SetTenantStatus")
	defer span.End()

	return s.storage.SetTenantStatus(ctx, id, status)
}

// DeleteTenant removes the tenant row and then its relationship tuples. Tuple
// cleanup failing leaves orphaned tuples behind, which the advisory layer
// tolerates, so it is logged rather than surfaced.
func (s *Service) DeleteTenant(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "admin.Service.DeleteTenant")
	defer span.End()

	if err := s.storage.DeleteTenant(ctx, id); err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}

	if err := s.authz.DeleteTenant(ctx, id); err != nil {
		s.logger.Errorf("failed to delete tuples for tenant %s: %v", id, err)
	}

	return nil
}

func NewService(
	storage StorageInterface,
	authz AuthzInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		authz:   authz,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
