// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"context"

	"github.com/canonical/marketplace-service/internal/types"
)

type contextKey struct{}

var identityContextKey = contextKey{}

func WithIdentity(ctx context.Context, identity *types.ResolvedIdentity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the resolved identity for the request. Requests
// that did not pass through the resolver middleware yield an anonymous
// identity rather than a nil pointer.
func IdentityFromContext(ctx context.Context) *types.ResolvedIdentity {
	if identity, ok := ctx.Value(identityContextKey).(*types.ResolvedIdentity); ok {
		return identity
	}
	return &types.ResolvedIdentity{Outcome: types.OutcomeNoSession}
}
