// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package auth

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
	"github.com/canonical/marketplace-service/pkg/identity"
)

type API struct {
	service  ServiceInterface
	validate *validator.Validate

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	SessionToken string         `json:"session_token"`
	Session      *types.Session `json:"session"`
}

type RecoveryRequest struct {
	Email     string `json:"email" validate:"required,email"`
	ExpiresIn string `json:"expires_in"`
}

type UpdatePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Post("/api/v0/auth/login", a.login)
	mux.Post("/api/v0/auth/logout", a.logout)
	mux.Post("/api/v0/auth/password", a.updatePassword)
}

// RegisterPrivilegedEndpoints mounts the operator-facing recovery endpoint.
// The router wraps it with bearer token authentication.
func (a *API) RegisterPrivilegedEndpoints(mux chi.Router) {
	mux.Post("/api/v0/auth/recovery", a.recovery)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "auth.API.login")
	defer span.End()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, session, err := a.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			a.writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		a.logger.Errorf("login failed: %v", err)
		a.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	a.writeResponse(w, http.StatusOK, LoginResponse{SessionToken: token, Session: session})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "auth.API.logout")
	defer span.End()

	if err := a.service.Logout(ctx, sessionToken(r)); err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			a.writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		a.logger.Errorf("logout failed: %v", err)
		a.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	a.writeResponse(w, http.StatusOK, nil)
}

func (a *API) recovery(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "auth.API.recovery")
	defer span.End()

	var req RecoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	code, err := a.service.CreateRecoveryCode(ctx, req.Email, req.ExpiresIn)
	if err != nil {
		if errors.Is(err, ErrUnknownEmail) {
			a.writeError(w, http.StatusNotFound, "no account for email")
			return
		}
		a.logger.Errorf("recovery code creation failed: %v", err)
		a.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	a.writeResponse(w, http.StatusOK, code)
}

func (a *API) updatePassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "auth.API.updatePassword")
	defer span.End()

	var req UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.service.UpdatePassword(ctx, identity.IdentityFromContext(ctx), req.Password); err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			a.writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		a.logger.Errorf("password update failed: %v", err)
		a.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	a.writeResponse(w, http.StatusOK, nil)
}

func sessionToken(r *http.Request) string {
	if token := r.Header.Get(identity.SessionTokenHeader); token != "" {
		return token
	}
	if cookie, err := r.Cookie(identity.SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
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
