// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package admin

import (
	"context"

	"github.com/canonical/marketplace-service/internal/types"
)

type ServiceInterface interface {
	ListUsers(ctx context.Context, filter *UserFilter) ([]*User, error)
	SetProfileActive(ctx context.Context, id string, active bool) error
	ListTenants(ctx context.Context) ([]*types.Tenant, error)
	SetTenantStatus(ctx context.Context, id string, status types.TenantStatus) error
	DeleteTenant(ctx context.Context, id string) error
}

type StorageInterface interface {
	ListProfiles(ctx context.Context, limit uint64) ([]*types.Profile, error)
	SetProfileActive(ctx context.Context, id string, active bool) error
	ListTenants(ctx context.Context) ([]*types.Tenant, error)
	ListTenantsByIDs(ctx context.Context, ids []string) ([]*types.Tenant, error)
	SetTenantStatus(ctx context.Context, id string, status types.TenantStatus) error
	DeleteTenant(ctx context.Context, id string) error
	CountPublishedListingsByTenant(ctx context.Context, tenantIDs []string) (map[string]int, error)
}

type AuthzInterface interface {
	DeleteTenant(ctx context.Context, tenantID string) error
}
