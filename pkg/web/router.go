// Copyright 2025 Canonical Ltd
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/canonical/marketplace-service/internal/authorization"
	"github.com/canonical/marketplace-service/internal/db"
	"github.com/canonical/marketplace-service/internal/kratos"
	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/storage"
	"github.com/canonical/marketplace-service/internal/tracing"
	"github.com/canonical/marketplace-service/pkg/admin"
	"github.com/canonical/marketplace-service/pkg/auth"
	"github.com/canonical/marketplace-service/pkg/authentication"
	"github.com/canonical/marketplace-service/pkg/identity"
	"github.com/canonical/marketplace-service/pkg/listing"
	"github.com/canonical/marketplace-service/pkg/metrics"
	"github.com/canonical/marketplace-service/pkg/provisioning"
	"github.com/canonical/marketplace-service/pkg/status"
	"github.com/canonical/marketplace-service/pkg/webhooks"
)

type RouterConfig struct {
	SignInURL   string
	HomeURL     string
	CORSOrigins []string
}

func NewRouter(
	cfg RouterConfig,
	s storage.StorageInterface,
	dbClient db.DBClientInterface,
	kratosClient kratos.ClientInterface,
	authorizer authorization.AuthorizerInterface,
	jwtVerifier authentication.TokenVerifierInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	identityService := identity.NewService(s, kratosClient, tracer, monitor, logger)

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS(cfg.CORSOrigins),
		db.TransactionMiddleware(dbClient, logger),
		identity.NewMiddleware(identityService, tracer, monitor, logger).ResolveIdentity(),
	)

	router.Use(middlewares...)

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(tracer, monitor, logger).RegisterEndpoints(router)

	identity.NewAPI(identityService, tracer, monitor, logger).RegisterEndpoints(router)

	listingService := listing.NewService(s, authorizer, tracer, monitor, logger)
	listing.NewAPI(listingService, tracer, monitor, logger).RegisterEndpoints(router)

	provisioningService := provisioning.NewService(s, kratosClient, authorizer, tracer, monitor, logger)
	provisioning.NewAPI(provisioningService, tracer, monitor, logger).RegisterEndpoints(router)

	authService := auth.NewService(kratosClient, tracer, monitor, logger)
	authAPI := auth.NewAPI(authService, tracer, monitor, logger)
	authAPI.RegisterEndpoints(router)
	authAPI.RegisterPrivilegedEndpoints(
		router.With(authentication.NewMiddleware(jwtVerifier, tracer, monitor, logger).Authenticate()),
	)

	webhooksService := webhooks.NewService(s, tracer, monitor, logger)
	webhooks.NewAPI(webhooksService).RegisterEndpoints(router)

	roleGuard := identity.NewRoleGuard(cfg.SignInURL, cfg.HomeURL, tracer, monitor, logger)
	adminService := admin.NewService(s, authorizer, tracer, monitor, logger)
	admin.NewAPI(adminService, tracer, monitor, logger).RegisterEndpoints(
		router.With(roleGuard.RequirePlatformAdmin()),
	)

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}

func middlewareCORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(
		cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", identity.SessionTokenHeader},
			AllowCredentials: true,
			MaxAge:           300,
		},
	)
}
