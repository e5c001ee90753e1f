// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	httpTypes "github.com/canonical/marketplace-service/internal/http/types"
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

type SetTenantStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}

type SetProfileActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// RegisterEndpoints mounts the admin surfaces. The router wraps the whole
// group with the platform admin role guard.
func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/admin/users", a.listUsers)
	mux.Patch("/api/v0/admin/users/{id}/active", a.setProfileActive)
	mux.Get("/api/v0/admin/tenants", a.listTenants)
	mux.Patch("/api/v0/admin/tenants/{id}/status", a.setTenantStatus)
	mux.Delete("/api/v0/admin/tenants/{id}", a.deleteTenant)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "admin.API.listUsers")
	defer span.End()

	filter, err := userFilterFromQuery(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, err := a.service.ListUsers(ctx, filter)
	if err != nil {
		a.logger.Errorf("failed to list users: %v", err)
		a.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	a.writeResponse(w, http.StatusOK, users)
}

func userFilterFromQuery(r *http.Request) (*UserFilter, error) {
	filter := &UserFilter{
		Query: r.URL.Query().Get("q"),
	}

	if role := r.URL.Query().Get("role"); role != "" {
		if !types.Role(role).Valid() {
			return nil, errors.New("unknown role filter")
		}
		filter.Role = types.Role(role)
	}
	if active := r.URL.Query().Get("active"); active != "" {
		parsed, err := strconv.ParseBool(active)
		if err != nil {
			return nil, errors.New("active filter must be a boolean")
		}
		filter.Active = &parsed
	}
	if status := r.URL.Query().Get("tenant_status"); status != "" {
		if !types.TenantStatus(status).Valid() {
			return nil, errors.New("unknown tenant status filter")
		}
		filter.TenantStatus = types.TenantStatus(status)
	}
	if tenantType := r.URL.Query().Get("tenant_type"); tenantType != "" {
		if !types.TenantType(tenantType).Valid() {
			return nil, errors.New("unknown tenant type filter")
		}
		filter.TenantType = types.TenantType(tenantType)
	}

	return filter, nil
}

func (a *API) setProfileActive(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "admin.API.setProfileActive")
	defer span.End()

	var req SetProfileActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.service.SetProfileActive(ctx, chi.URLParam(r, "id"), *req.Active); err != nil {
		a.writeStorageError(w, "profile", err)
		return
	}

	a.writeResponse(w, http.StatusOK, nil)
}

func (a *API) listTenants(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "admin.API.listTenants")
	defer span.End()

	tenants, err := a.service.ListTenants(ctx)
	if err != nil {
		a.logger.Errorf("failed to list tenants: %v", err)
		a.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	a.writeResponse(w, http.StatusOK, tenants)
}

func (a *API) setTenantStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "admin.API.setTenantStatus")
	defer span.End()

	var req SetTenantStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.service.SetTenantStatus(ctx, chi.URLParam(r, "id"), types.TenantStatus(req.Status)); err != nil {
		a.writeStorageError(w, "tenant", err)
		return
	}

	a.writeResponse(w, http.StatusOK, nil)
}

func (a *API) deleteTenant(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "admin.API.deleteTenant")
	defer span.End()

	if err := a.service.DeleteTenant(ctx, chi.URLParam(r, "id")); err != nil {
		a.writeStorageError(w, "tenant", err)
		return
	}

	a.writeResponse(w, http.StatusOK, nil)
}

func (a *API) writeStorageError(w http.ResponseWriter, resource string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		a.writeError(w, http.StatusNotFound, resource+" not found")
		return
	}
	a.logger.Errorf("admin request failed: %v", err)
	a.writeError(w, http.StatusInternalServerError, "internal server error")
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
