// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/marketplace-service/internal/authorization"
	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/storage"
	"github.com/canonical/marketplace-service/internal/tracing"
	"github.com/canonical/marketplace-service/internal/types"
)

type Service struct {
	storage StorageInterface
	authz   AuthzInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *Service) ListPublishedListings(ctx context.Context) ([]*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "listing.Service.ListPublishedListings")
	defer span.End()

	return s.storage.ListPublishedListings(ctx)
}

func (s *Service) ListTenantListings(ctx context.Context, identity *types.ResolvedIdentity) ([]*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "listing.Service.ListTenantListings")
	defer span.End()

	if !identity.ActiveTenantMember() {
		return nil, ErrNotAuthenticated
	}

	return s.storage.ListListingsByTenantID(ctx, *identity.Profile.TenantID)
}

// GetListing returns a listing. Unpublished listings are only visible to the
// owning tenant and platform admins; everyone else gets a not-found, the same
// answer as for an id that never existed.
func (s *Service) GetListing(ctx context.Context, identity *types.ResolvedIdentity, id string) (*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "listing.Service.GetListing")
	defer span.End()

	listing, err := s.storage.GetListingByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if listing.Status == types.ListingStatusPublished {
		return listing, nil
	}

	if identity.Profile != nil {
		if identity.Profile.Role == types.RolePlatformAdmin {
			return listing, nil
		}
		if identity.Profile.TenantID != nil && *identity.Profile.TenantID == listing.OwnerTenantID {
			return listing, nil
		}
	}

	return nil, ErrNotFound
}

func (s *Service) CreateListing(ctx context.Context, identity *types.ResolvedIdentity, listing *types.Listing) (*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "listing.Service.CreateListing")
	defer span.End()

	if !identity.ActiveTenantMember() {
		return nil, ErrNotAuthenticated
	}

	// Ownership always comes from the caller's resolved tenant, whatever the
	// request body claimed.
	listing.OwnerTenantID = *identity.Profile.TenantID
	if !listing.Status.Valid() {
		listing.Status = types.ListingStatusStopped
	}

	created, err := s.storage.CreateListing(ctx, listing)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	return created, nil
}

func (s *Service) UpdateListing(ctx context.Context, identity *types.ResolvedIdentity, id string, listing *types.Listing, paths []string) (*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "listing.Service.UpdateListing")
	defer span.End()

	if _, err := s.authorizeOwnerMutation(ctx, identity, id); err != nil {
		return nil, err
	}

	listing.ID = id
	if err := s.storage.UpdateListing(ctx, listing, paths); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	return s.storage.GetListingByID(ctx, id)
}

// ToggleListingStatus flips the stored status. The next state is a function of
// what is in the database at call time, client input never participates.
func (s *Service) ToggleListingStatus(ctx context.Context, identity *types.ResolvedIdentity, id string) (*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "listing.Service.ToggleListingStatus")
	defer span.End()

	current, err := s.authorizeOwnerMutation(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if err := s.storage.SetListingStatus(ctx, id, current.Status.Toggle()); err != nil {
		return nil, fmt.Errorf("failed to toggle listing status: %w", err)
	}

	return s.storage.GetListingByID(ctx, id)
}

func (s *Service) DeleteListing(ctx context.Context, identity *types.ResolvedIdentity, id string) error {
	ctx, span := s.tracer.Start(ctx, "listing.Service.DeleteListing")
	defer span.End()

	if _, err := s.authorizeOwnerMutation(ctx, identity, id); err != nil {
		return err
	}

	if err := s.storage.DeleteListing(ctx, id); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	return nil
}

// authorizeOwnerMutation re-reads the listing with privileged storage access
// and checks ownership against the caller's resolved tenant. The fresh read is
// the point: the decision is never made on listing state the client supplied.
func (s *Service) authorizeOwnerMutation(ctx context.Context, identity *types.ResolvedIdentity, id string) (*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "listing.Service.authorizeOwnerMutation")
	defer span.End()

	if !identity.ActiveTenantMember() {
		return nil, ErrNotAuthenticated
	}

	listing, err := s.storage.GetListingByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if listing.OwnerTenantID != *identity.Profile.TenantID {
		s.logger.Security().AuthzFailure(identity.Profile.ID, "listing_owner_mutation")
		return nil, ErrForbidden
	}

	// Second opinion from the relationship store. The database decides, a
	// disagreement here points at drifted tuples and is worth a loud log.
	allowed, err := s.authz.CheckTenantAccess(ctx, listing.OwnerTenantID, identity.Profile.ID, authorization.CAN_EDIT_PERMISSION)
	if err != nil {
		s.logger.Errorf("authorization check failed for listing %s: %v", id, err)
	} else if !allowed {
		s.logger.Warnf("authorization store denies can_edit for user %s on tenant %s, database grants it", identity.Profile.ID, listing.OwnerTenantID)
	}

	return listing, nil
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
