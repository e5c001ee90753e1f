// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"

	"github.com/canonical/marketplace-service/internal/types"
)

type StorageInterface interface {
	CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error)
	GetTenantByID(ctx context.Context, id string) (*types.Tenant, error)
	ListTenants(ctx context.Context) ([]*types.Tenant, error)
	ListTenantsByIDs(ctx context.Context, ids []string) ([]*types.Tenant, error)
	SetTenantStatus(ctx context.Context, id string, status types.TenantStatus) error
	DeleteTenant(ctx context.Context, id string) error

	GetProfileByID(ctx context.Context, id string) (*types.Profile, error)
	UpsertProfile(ctx context.Context, p *types.Profile) (*types.Profile, error)
	UpdateProfileName(ctx context.Context, id, name string) error
	SetProfileActive(ctx context.Context, id string, active bool) error
	ListProfiles(ctx context.Context, limit uint64) ([]*types.Profile, error)

	CreateListing(ctx context.Context, l *types.Listing) (*types.Listing, error)
	GetListingByID(ctx context.Context, id string) (*types.Listing, error)
	ListPublishedListings(ctx context.Context) ([]*types.Listing, error)
	ListListingsByTenantID(ctx context.Context, tenantID string) ([]*types.Listing, error)
	SetListingStatus(ctx context.Context, id string, status types.ListingStatus) error
	UpdateListing(ctx context.Context, l *types.Listing, paths []string) error
	DeleteListing(ctx context.Context, id string) error
	CountPublishedListingsByTenant(ctx context.Context, tenantIDs []string) (map[string]int, error)
}
