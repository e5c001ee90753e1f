// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package provisioning

import (
	"context"

	"github.com/canonical/marketplace-service/internal/types"
)

type ServiceInterface interface {
	ProvisionTenantAndProfile(ctx context.Context, req *ProvisionRequest) (*ProvisionResult, error)
}

type StorageInterface interface {
	CreateTenant(ctx context.Context, t *types.Tenant) (*types.Tenant, error)
	DeleteTenant(ctx context.Context, id string) error
	UpsertProfile(ctx context.Context, p *types.Profile) (*types.Profile, error)
}

type KratosClientInterface interface {
	CreateIdentity(ctx context.Context, email, password string) (string, error)
	DeleteIdentity(ctx context.Context, identityID string) error
}

type AuthzInterface interface {
	AssignTenantOwner(ctx context.Context, tenantID, userID string) error
}
