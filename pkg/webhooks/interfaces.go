// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"

	"github.com/canonical/marketplace-service/internal/types"
)

// StorageInterface defines the storage operations required by the webhooks package.
// It is a subset of the internal/storage interface.
type StorageInterface interface {
	GetProfileByID(ctx context.Context, id string) (*types.Profile, error)
	UpdateProfileName(ctx context.Context, id, name string) error
}

// ServiceInterface defines the webhook service operations.
type ServiceInterface interface {
	HandleSettingsUpdate(ctx context.Context, identityID, displayName string) error
}
