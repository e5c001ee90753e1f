// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package listing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chi "github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/marketplace-service/internal/types"
)

func TestHandleToggleStatus(t *testing.T) {
	testCases := []struct {
		name           string
		serviceErr     error
		expectedStatus int
	}{
		{
			name:           "toggled",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not authenticated",
			serviceErr:     ErrNotAuthenticated,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "foreign listing reads as missing",
			serviceErr:     ErrForbidden,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "missing listing",
			serviceErr:     ErrNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "storage failure",
			serviceErr:     errors.New("db down"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			mockTracer.EXPECT().Start(gomock.Any(), "listing.API.toggleStatus").
				Return(context.Background(), trace.SpanFromContext(context.Background()))

			if tc.serviceErr != nil {
				mockService.EXPECT().ToggleListingStatus(gomock.Any(), gomock.Any(), testListingID).Return(nil, tc.serviceErr)
				if tc.expectedStatus == http.StatusInternalServerError {
					mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any())
				}
			} else {
				mockService.EXPECT().ToggleListingStatus(gomock.Any(), gomock.Any(), testListingID).
					Return(&types.Listing{ID: testListingID, Status: types.ListingStatusPublished}, nil)
			}

			mux := chi.NewMux()
			NewAPI(mockService, mockTracer, mockMonitor, mockLogger).RegisterEndpoints(mux)

			req := httptest.NewRequest(http.MethodPost, "/api/v0/listings/"+testListingID+"/toggle", nil)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d", tc.expectedStatus, rec.Code)
			}
		})
	}
}

func TestHandleForbiddenAndMissingAreIndistinguishable(t *testing.T) {
	bodies := make(map[string]string, 2)

	for name, serviceErr := range map[string]error{"forbidden": ErrForbidden, "missing": ErrNotFound} {
		ctrl := gomock.NewController(t)

		mockService := NewMockServiceInterface(ctrl)
		mockTracer := NewMockTracingInterface(ctrl)
		mockMonitor := NewMockMonitorInterface(ctrl)
		mockLogger := NewMockLoggerInterface(ctrl)

		mockTracer.EXPECT().Start(gomock.Any(), "listing.API.delete").
			Return(context.Background(), trace.SpanFromContext(context.Background()))
		mockService.EXPECT().DeleteListing(gomock.Any(), gomock.Any(), testListingID).Return(serviceErr)

		mux := chi.NewMux()
		NewAPI(mockService, mockTracer, mockMonitor, mockLogger).RegisterEndpoints(mux)

		req := httptest.NewRequest(http.MethodDelete, "/api/v0/listings/"+testListingID, nil)
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", name, http.StatusNotFound, rec.Code)
		}
		bodies[name] = rec.Body.String()

		ctrl.Finish()
	}

	if bodies["forbidden"] != bodies["missing"] {
		t.Errorf("responses differ, ids can be enumerated: %q vs %q", bodies["forbidden"], bodies["missing"])
	}
}

func TestHandleCreateListing(t *testing.T) {
	testCases := []struct {
		name           string
		payload        string
		expectService  bool
		expectedStatus int
	}{
		{
			name:           "created",
			payload:        `{"name": "20t crawler excavator", "category": "excavator", "price_rental": 150000}`,
			expectService:  true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "name is required",
			payload:        `{"category": "excavator"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative price rejected",
			payload:        `{"name": "crane", "price_sale": -1}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown status rejected",
			payload:        `{"name": "crane", "status": "ARCHIVED"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed json",
			payload:        `{"name": `,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			mockTracer.EXPECT().Start(gomock.Any(), "listing.API.create").
				Return(context.Background(), trace.SpanFromContext(context.Background()))

			if tc.expectService {
				mockService.EXPECT().CreateListing(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, _ *types.ResolvedIdentity, listing *types.Listing) (*types.Listing, error) {
						listing.ID = testListingID
						return listing, nil
					})
			}

			mux := chi.NewMux()
			NewAPI(mockService, mockTracer, mockMonitor, mockLogger).RegisterEndpoints(mux)

			req := httptest.NewRequest(http.MethodPost, "/api/v0/listings", strings.NewReader(tc.payload))
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tc.expectedStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleUpdateListing(t *testing.T) {
	testCases := []struct {
		name           string
		payload        string
		expectedPaths  []string
		expectedStatus int
	}{
		{
			name:           "sparse update",
			payload:        `{"name": "renamed", "price_sale": 4200000}`,
			expectedPaths:  []string{"name", "price_sale"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "empty update rejected",
			payload:        `{}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockServiceInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			mockTracer.EXPECT().Start(gomock.Any(), "listing.API.update").
				Return(context.Background(), trace.SpanFromContext(context.Background()))

			if tc.expectedPaths != nil {
				mockService.EXPECT().UpdateListing(gomock.Any(), gomock.Any(), testListingID, gomock.Any(), tc.expectedPaths).
					Return(&types.Listing{ID: testListingID, Name: "renamed"}, nil)
			}

			mux := chi.NewMux()
			NewAPI(mockService, mockTracer, mockMonitor, mockLogger).RegisterEndpoints(mux)

			req := httptest.NewRequest(http.MethodPatch, "/api/v0/listings/"+testListingID, strings.NewReader(tc.payload))
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tc.expectedStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleListMine(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockServiceInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	// The static "mine" segment must route to the dashboard handler, never to
	// the {id} lookup.
	mockTracer.EXPECT().Start(gomock.Any(), "listing.API.listMine").
		Return(context.Background(), trace.SpanFromContext(context.Background()))
	mockService.EXPECT().ListTenantListings(gomock.Any(), gomock.Any()).
		Return([]*types.Listing{{ID: testListingID, Status: types.ListingStatusStopped}}, nil)

	mux := chi.NewMux()
	NewAPI(mockService, mockTracer, mockMonitor, mockLogger).RegisterEndpoints(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/listings/mine", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestHandleListPublished(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockServiceInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), "listing.API.listPublished").
		Return(context.Background(), trace.SpanFromContext(context.Background()))
	mockService.EXPECT().ListPublishedListings(gomock.Any()).
		Return([]*types.Listing{{ID: testListingID, Status: types.ListingStatusPublished}}, nil)

	mux := chi.NewMux()
	NewAPI(mockService, mockTracer, mockMonitor, mockLogger).RegisterEndpoints(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/listings", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response struct {
		Data []*types.Listing `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Data) != 1 {
		t.Errorf("expected 1 listing, got %d", len(response.Data))
	}
}
