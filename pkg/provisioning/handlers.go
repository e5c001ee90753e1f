// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package provisioning

import (
	"encoding/json"
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	httpTypes "github.com/canonical/marketplace-service/internal/http/types"
	"github.com/canonical/marketplace-service/internal/kratos"
	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/storage"
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

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`

	ProfileName string `json:"profile_name" validate:"required"`

	TenantName string `json:"tenant_name" validate:"required"`
	TenantType string `json:"tenant_type" validate:"required,oneof=DEMAND SUPPLY BOTH"`
	Prefecture string `json:"prefecture" validate:"required"`
	City       string `json:"city" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Post("/api/v0/signup", a.signup)
}

func (a *API) signup(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "provisioning.API.signup")
	defer span.End()

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Fail fast, nothing is created for a validation failure.
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.service.ProvisionTenantAndProfile(ctx, &ProvisionRequest{
		Email:       req.Email,
		Password:    req.Password,
		ProfileName: req.ProfileName,
		TenantName:  req.TenantName,
		TenantType:  types.TenantType(req.TenantType),
		Prefecture:  req.Prefecture,
		City:        req.City,
		Phone:       req.Phone,
	})
	if err != nil {
		if errors.Is(err, kratos.ErrDuplicateIdentity) || errors.Is(err, storage.ErrDuplicateKey) {
			a.writeError(w, http.StatusConflict, "account already exists")
			return
		}
		a.logger.Errorf("signup failed: %v", err)
		a.writeError(w, http.StatusInternalServerError, "signup failed")
		return
	}

	a.writeResponse(w, http.StatusCreated, result)
}

func (a *API) writeResponse(w http.ResponseWriter, status int, data any) {
	if err := httpTypes.WriteResponse(w, status, data); err != nil {
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
