// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package listing

import (
	"context"

	"github.com/canonical/marketplace-service/internal/openfga"
	"github.com/canonical/marketplace-service/internal/types"
)

type ServiceInterface interface {
	ListPublishedListings(ctx context.Context) ([]*types.Listing, error)
	ListTenantListings(ctx context.Context, identity *types.ResolvedIdentity) ([]*types.Listing, error)
	GetListing(ctx context.Context, identity *types.ResolvedIdentity, id string) (*types.Listing, error)
	CreateListing(ctx context.Context, identity *types.ResolvedIdentity, listing *types.Listing) (*types.Listing, error)
	UpdateListing(ctx context.Context, identity *types.ResolvedIdentity, id string, listing *types.Listing, paths []string) (*types.Listing, error)
	ToggleListingStatus(ctx context.Context, identity *types.ResolvedIdentity, id string) (*types.Listing, error)
	DeleteListing(ctx context.Context, identity *types.ResolvedIdentity, id string) error
}

type StorageInterface interface {
	CreateListing(ctx context.Context, listing *types.Listing) (*types.Listing, error)
	GetListingByID(ctx context.Context, id string) (*types.Listing, error)
	ListPublishedListings(ctx context.Context) ([]*types.Listing, error)
	ListListingsByTenantID(ctx context.Context, tenantID string) ([]*types.Listing, error)
	SetListingStatus(ctx context.Context, id string, status types.ListingStatus) error
	UpdateListing(ctx context.Context, listing *types.Listing, paths []string) error
	DeleteListing(ctx context.Context, id string) error
}

type AuthzInterface interface {
	Check(ctx context.Context, user, relation, object string, tuples ...openfga.Tuple) (bool, error)
	CheckTenantAccess(ctx context.Context, tenantID, userID, relation string) (bool, error)
}
