// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package auth

import (
	"context"

	"github.com/canonical/marketplace-service/internal/types"
)

type ServiceInterface interface {
	Login(ctx context.Context, email, password string) (string, *types.Session, error)
	Logout(ctx context.Context, sessionToken string) error
	CreateRecoveryCode(ctx context.Context, email, expiresIn string) (*RecoveryCode, error)
	UpdatePassword(ctx context.Context, identity *types.ResolvedIdentity, newPassword string) error
}

type KratosClientInterface interface {
	SignInWithPassword(ctx context.Context, email, password string) (string, *types.Session, error)
	SignOut(ctx context.Context, sessionToken string) error
	CreateRecoveryCode(ctx context.Context, identityID string, expiresIn string) (string, string, error)
	UpdatePassword(ctx context.Context, identityID, newPassword string) error
	GetIdentityIDByEmail(ctx context.Context, email string) (string, error)
}
