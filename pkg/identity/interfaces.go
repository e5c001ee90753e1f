// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"context"

	"github.com/canonical/marketplace-service/internal/types"
)

type ServiceInterface interface {
	// Resolve walks session, profile and tenant for the caller. It never
	// returns an error: every failure mode is a distinct Outcome on the
	// returned identity.
	Resolve(ctx context.Context, sessionToken string) *types.ResolvedIdentity
	UpdateDisplayName(ctx context.Context, identity *types.ResolvedIdentity, name string) (*types.Profile, error)
}

type StorageInterface interface {
	GetProfileByID(ctx context.Context, id string) (*types.Profile, error)
	GetTenantByID(ctx context.Context, id string) (*types.Tenant, error)
	UpdateProfileName(ctx context.Context, id, name string) error
}

type KratosClientInterface interface {
	GetSession(ctx context.Context, sessionToken string) (*types.Session, error)
	UpdateIdentityMetadata(ctx context.Context, identityID string, fields map[string]interface{}) error
}
