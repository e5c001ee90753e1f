// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/marketplace-service/internal/kratos"
	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/storage"
	"github.com/canonical/marketplace-service/internal/tracing"
	"github.com/canonical/marketplace-service/internal/types"
)

type Service struct {
	storage StorageInterface
	kratos  KratosClientInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Resolve performs the three lookups in order and stops at the first one that
// fails. A missing session and a broken session lookup are different outcomes:
// the first is an anonymous caller, the second is an operational fault.
func (s *Service) Resolve(ctx context.Context, sessionToken string) *types.ResolvedIdentity {
	ctx, span := s.tracer.Start(ctx, "identity.Service.Resolve")
	defer span.End()

	session, err := s.kratos.GetSession(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, kratos.ErrNoSession) {
			return &types.ResolvedIdentity{Outcome: types.OutcomeNoSession}
		}
		s.logger.Errorf("session lookup failed: %v", err)
		return &types.ResolvedIdentity{Outcome: types.OutcomeSessionError, Err: "session lookup failed"}
	}

	profile, err := s.storage.GetProfileByID(ctx, session.SubjectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Authenticated but not provisioned. The caller decides what
			// onboarding to offer, we just report the state.
			return &types.ResolvedIdentity{Outcome: types.OutcomeProfileMissing, Session: session}
		}
		s.logger.Errorf("profile lookup failed for subject %s: %v", session.SubjectID, err)
		return &types.ResolvedIdentity{Outcome: types.OutcomeProfileError, Session: session, Err: "profile lookup failed"}
	}

	identity := &types.ResolvedIdentity{
		Outcome: types.OutcomeResolved,
		Session: session,
		Profile: profile,
	}

	if profile.TenantID != nil {
		tenant, err := s.storage.GetTenantByID(ctx, *profile.TenantID)
		if err != nil {
			identity.Outcome = types.OutcomeTenantError
			if errors.Is(err, storage.ErrNotFound) {
				// A profile pointing at a tenant that no longer exists is an
				// operational fault, never a valid tenantless state.
				s.logger.Errorf("tenant %s referenced by profile %s does not exist", *profile.TenantID, profile.ID)
				identity.Err = "tenant not found"
				return identity
			}
			s.logger.Errorf("tenant lookup failed for profile %s: %v", profile.ID, err)
			identity.Err = "tenant lookup failed"
			return identity
		}
		identity.Tenant = tenant
	}

	return identity
}

// ErrNoProfile reports a profile mutation from a caller whose identity does
// not carry a resolved profile.
var ErrNoProfile = errors.New("no resolved profile")

// UpdateDisplayName persists a new display name on the caller's profile and
// mirrors it into the identity provider's public metadata. The profile row is
// the serving copy, the metadata write is best effort.
func (s *Service) UpdateDisplayName(ctx context.Context, identity *types.ResolvedIdentity, name string) (*types.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "identity.Service.UpdateDisplayName")
	defer span.End()

	if !identity.Authenticated() || identity.Profile == nil {
		return nil, ErrNoProfile
	}

	if err := s.storage.UpdateProfileName(ctx, identity.Profile.ID, name); err != nil {
		return nil, fmt.Errorf("failed to update profile name: %w", err)
	}

	if err := s.kratos.UpdateIdentityMetadata(ctx, identity.Profile.ID, map[string]interface{}{"display_name": name}); err != nil {
		s.logger.Errorf("failed to mirror display name into identity metadata for %s: %v", identity.Profile.ID, err)
	}

	updated := *identity.Profile
	updated.Name = name

	return &updated, nil
}

func NewService(
	storage StorageInterface,
	kratos KratosClientInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		kratos:  kratos,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
