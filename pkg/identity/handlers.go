// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"encoding/json"
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	httpTypes "github.com/canonical/marketplace-service/internal/http/types"
	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/tracing"
	"github.com/canonical/marketplace-service/internal/types"
)

type API struct {
	service  ServiceInterface
	validate *validator.Validate

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

type UpdateMeRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=255"`
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Get("/api/v0/me", a.me)
	mux.Patch("/api/v0/me", a.updateMe)
}

// me reports the caller's resolution state. Anonymous callers get a 200 with
// outcome NO_SESSION, only operational faults surface as a 500.
func (a *API) me(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "identity.API.me")
	defer span.End()

	identity := IdentityFromContext(ctx)

	status := http.StatusOK
	switch identity.Outcome {
	case types.OutcomeSessionError, types.OutcomeProfileError, types.OutcomeTenantError:
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(identity); err != nil {
		a.logger.Errorf("failed to encode identity response: %v", err)
	}
}

// updateMe changes the caller's display name. The name lives on the profile
// row and is mirrored into the identity provider's public metadata.
func (a *API) updateMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "identity.API.updateMe")
	defer span.End()

	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := a.service.UpdateDisplayName(ctx, IdentityFromContext(ctx), req.DisplayName)
	if err != nil {
		if errors.Is(err, ErrNoProfile) {
			a.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		a.logger.Errorf("failed to update display name: %v", err)
		a.writeError(w, http.StatusInternalServerError, "failed to update display name")
		return
	}

	if err := httpTypes.WriteResponse(w, http.StatusOK, profile); err != nil {
		a.logger.Errorf("failed to encode response: %v", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, message string) {
	if err := httpTypes.WriteErrorResponse(w, status, message); err != nil {
		a.logger.Errorf("failed to encode error response: %v", err)
	}
}

func NewAPI(service ServiceInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	return &API{
		service:  service,
		validate: validator.New(),
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}
