// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/storage"
	"github.com/canonical/marketplace-service/internal/tracing"
)

type Service struct {
	storage StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// HandleSettingsUpdate mirrors a display name change made in Kratos onto the
// business profile. The profile is the serving copy of the name, Kratos
// metadata is where the user edits it.
func (s *Service) HandleSettingsUpdate(ctx context.Context, identityID, displayName string) error {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleSettingsUpdate")
	defer span.End()

	if identityID == "" {
		return fmt.Errorf("identity ID is empty")
	}
	if displayName == "" {
		s.logger.Debugf("settings update for %s carries no display name, nothing to sync", identityID)
		return nil
	}

	profile, err := s.storage.GetProfileByID(ctx, identityID)
	if err != nil {
		// An identity mid-provisioning has no profile yet. The signup
		// transaction writes the name itself, so there is nothing to do.
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Debugf("no profile for identity %s, skipping name sync", identityID)
			return nil
		}
		return fmt.Errorf("failed to load profile: %w", err)
	}

	if profile.Name == displayName {
		return nil
	}

	if err := s.storage.UpdateProfileName(ctx, identityID, displayName); err != nil {
		return fmt.Errorf("failed to sync profile name: %w", err)
	}

	s.logger.Infof("synced profile name for %s", identityID)
	return nil
}

func NewService(
	storage StorageInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
