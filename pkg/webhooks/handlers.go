// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type API struct {
	service ServiceInterface
}

func NewAPI(service ServiceInterface) *API {
	return &API{
		service: service,
	}
}

func (a *API) RegisterEndpoints(mux *chi.Mux) {
	mux.Post("/webhooks/settings", a.settings)
}

func (a *API) settings(w http.ResponseWriter, r *http.Request) {
	var payload SettingsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.service.HandleSettingsUpdate(r.Context(), payload.Identity.ID, payload.Identity.MetadataPublic.DisplayName); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
