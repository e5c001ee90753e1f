// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package listing

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

type CreateListingRequest struct {
	Category     string `json:"category"`
	Name         string `json:"name" validate:"required"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Location     string `json:"location"`
	PriceRental  *int64 `json:"price_rental" validate:"omitempty,gte=0"`
	PriceSale    *int64 `json:"price_sale" validate:"omitempty,gte=0"`
	Status       string `json:"status" validate:"omitempty,oneof=PUBLISHED STOPPED"`
}

type UpdateListingRequest struct {
	Category     *string `json:"category"`
	Name         *string `json:"name" validate:"omitempty,min=1"`
	Manufacturer *string `json:"manufacturer"`
	Model        *string `json:"model"`
	Location     *string `json:"location"`
	PriceRental  *int64  `json:"price_rental" validate:"omitempty,gte=0"`
	PriceSale    *int64  `json:"price_sale" validate:"omitempty,gte=0"`
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Get("/api/v0/listings", a.listPublished)
	// Static segment, registered alongside the {id} route; chi prefers the
	// static match so "mine" is never read as a listing id.
	mux.Get("/api/v0/listings/mine", a.listMine)
	mux.Get("/api/v0/listings/{id}", a.get)
	mux.Post("/api/v0/listings", a.create)
	mux.Patch("/api/v0/listings/{id}", a.update)
	mux.Post("/api/v0/listings/{id}/toggle", a.toggleStatus)
	mux.Delete("/api/v0/listings/{id}", a.delete)
}

func (a *API) listPublished(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "listing.API.listPublished")
	defer span.End()

	listings, err := a.service.ListPublishedListings(ctx)
	if err != nil {
		a.logger.Errorf("failed to list published listings: %v", err)
		a.writeServiceError(w, err)
		return
	}

	a.writeResponse(w, http.StatusOK, listings)
}

func (a *API) listMine(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "listing.API.listMine")
	defer span.End()

	listings, err := a.service.ListTenantListings(ctx, identity.IdentityFromContext(ctx))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	a.writeResponse(w, http.StatusOK, listings)
}

func (a *API) get(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "listing.API.get")
	defer span.End()

	listing, err := a.service.GetListing(ctx, identity.IdentityFromContext(ctx), chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	a.writeResponse(w, http.StatusOK, listing)
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "listing.API.create")
	defer span.End()

	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing := &types.Listing{
		Category:     req.Category,
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		Model:        req.Model,
		Location:     req.Location,
		PriceRental:  req.PriceRental,
		PriceSale:    req.PriceSale,
		Status:       types.ListingStatus(req.Status),
	}

	created, err := a.service.CreateListing(ctx, identity.IdentityFromContext(ctx), listing)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	a.writeResponse(w, http.StatusCreated, created)
}

func (a *API) update(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "listing.API.update")
	defer span.End()

	var req UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, paths := req.apply()
	if len(paths) == 0 {
		a.writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	updated, err := a.service.UpdateListing(ctx, identity.IdentityFromContext(ctx), chi.URLParam(r, "id"), listing, paths)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	a.writeResponse(w, http.StatusOK, updated)
}

func (a *API) toggleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "listing.API.toggleStatus")
	defer span.End()

	updated, err := a.service.ToggleListingStatus(ctx, identity.IdentityFromContext(ctx), chi.URLParam(r, "id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	a.writeResponse(w, http.StatusOK, updated)
}

func (a *API) delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "listing.API.delete")
	defer span.End()

	if err := a.service.DeleteListing(ctx, identity.IdentityFromContext(ctx), chi.URLParam(r, "id")); err != nil {
		a.writeServiceError(w, err)
		return
	}

	a.writeResponse(w, http.StatusOK, nil)
}

// apply turns the sparse request into an update payload plus the list of
// fields it actually set.
func (r *UpdateListingRequest) apply() (*types.Listing, []string) {
	listing := new(types.Listing)
	paths := make([]string, 0, 7)

	if r.Category != nil {
		listing.Category = *r.Category
		paths = append(paths, "category")
	}
	if r.Name != nil {
		listing.Name = *r.Name
		paths = append(paths, "name")
	}
	if r.Manufacturer != nil {
		listing.Manufacturer = *r.Manufacturer
		paths = append(paths, "manufacturer")
	}
	if r.Model != nil {
		listing.Model = *r.Model
		paths = append(paths, "model")
	}
	if r.Location != nil {
		listing.Location = *r.Location
		paths = append(paths, "location")
	}
	if r.PriceRental != nil {
		listing.PriceRental = r.PriceRental
		paths = append(paths, "price_rental")
	}
	if r.PriceSale != nil {
		listing.PriceSale = r.PriceSale
		paths = append(paths, "price_sale")
	}

	return listing, paths
}

// writeServiceError maps service errors onto HTTP statuses. Forbidden and
// not-found produce the same 404 so callers cannot enumerate foreign listing ids.
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		a.writeError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotFound):
		a.writeError(w, http.StatusNotFound, "listing not found")
	default:
		a.logger.Errorf("listing request failed: %v", err)
		a.writeError(w, http.StatusInternalServerError, "internal server error")
	}
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
