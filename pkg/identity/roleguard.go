// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"net/http"
	"slices"

	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/tracing"
	"github.com/canonical/marketplace-service/internal/types"
)

// RoleGuard gates routes on the resolved profile role. Unauthenticated
// callers are sent to the sign-in page, authenticated callers with the wrong
// role are sent home. The two destinations are deliberately different:
// "log in first" and "you don't belong here" are different answers.
type RoleGuard struct {
	signInURL string
	homeURL   string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (g *RoleGuard) RequireRole(roles ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := g.tracer.Start(r.Context(), "identity.RoleGuard.RequireRole")
			defer span.End()

			identity := IdentityFromContext(ctx)

			// A caller without a resolvable profile is treated as
			// unauthenticated: there is no role to authorize against, so the
			// remediation is the sign-in surface, not the home page.
			if !identity.Authenticated() || identity.Profile == nil {
				http.Redirect(w, r, g.signInURL, http.StatusFound)
				return
			}

			if !slices.Contains(roles, identity.Profile.Role) {
				g.logger.Security().AuthzFailure(identity.Profile.ID, "role_guard")
				http.Redirect(w, r, g.homeURL, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePlatformAdmin is the guard for the back-office surfaces.
func (g *RoleGuard) RequirePlatformAdmin() func(http.Handler) http.Handler {
	return g.RequireRole(types.RolePlatformAdmin)
}

func NewRoleGuard(signInURL, homeURL string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *RoleGuard {
	return &RoleGuard{
		signInURL: signInURL,
		homeURL:   homeURL,
		tracer:    tracer,
		monitor:   monitor,
		logger:    logger,
	}
}
