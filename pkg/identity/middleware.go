// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"net/http"

	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/tracing"
)

const (
	// SessionTokenHeader carries the Kratos session token for API clients.
	SessionTokenHeader = "X-Session-Token"
	// SessionCookieName is the Kratos session cookie set by browser flows.
	SessionCookieName = "ory_kratos_session"
)

type Middleware struct {
	service ServiceInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// ResolveIdentity resolves the caller on every request and stores the result
// in the context. It never rejects: guards downstream decide what each
// outcome means for their route.
func (m *Middleware) ResolveIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "identity.Middleware.ResolveIdentity")
			defer span.End()

			identity := m.service.Resolve(ctx, sessionToken(r))

			ctx = WithIdentity(ctx, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) string {
	if token := r.Header.Get(SessionTokenHeader); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func NewMiddleware(service ServiceInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		service: service,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
