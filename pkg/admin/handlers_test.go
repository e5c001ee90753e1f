// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chi "github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/marketplace-service/internal/storage"
	"github.com/canonical/marketplace-service/internal/types"
)

func newTestAPI(t *testing.T, spanName string) (*API, *MockServiceInterface) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockService := NewMockServiceInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), spanName).
		Return(context.Background(), trace.SpanFromContext(context.Background()))

	return NewAPI(mockService, mockTracer, mockMonitor, mockLogger), mockService
}

func TestHandleListUsersFilterParsing(t *testing.T) {
	testCases := []struct {
		name           string
		query          string
		expectedFilter *UserFilter
		expectedStatus int
	}{
		{
			name:           "no filters",
			query:          "",
			expectedFilter: &UserFilter{},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "all filters",
			query: "?q=taro&role=TENANT_ADMIN&active=true&tenant_status=ACTIVE&tenant_type=SUPPLY",
			expectedFilter: &UserFilter{
				Query:        "taro",
				Role:         types.RoleTenantAdmin,
				Active:       boolPtr(true),
				TenantStatus: types.TenantStatusActive,
				TenantType:   types.TenantTypeSupply,
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown role",
			query:          "?role=SUPERUSER",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad active flag",
			query:          "?active=maybe",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown tenant type",
			query:          "?tenant_type=RENTAL",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api, mockService := newTestAPI(t, "admin.API.listUsers")

			if tc.expectedFilter != nil {
				mockService.EXPECT().ListUsers(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, filter *UserFilter) ([]*User, error) {
						if filter.Query != tc.expectedFilter.Query ||
							filter.Role != tc.expectedFilter.Role ||
							filter.TenantStatus != tc.expectedFilter.TenantStatus ||
							filter.TenantType != tc.expectedFilter.TenantType {
							t.Errorf("expected filter %+v, got %+v", tc.expectedFilter, filter)
						}
						if (filter.Active == nil) != (tc.expectedFilter.Active == nil) {
							t.Errorf("expected active %v, got %v", tc.expectedFilter.Active, filter.Active)
						}
						return []*User{}, nil
					})
			}

			mux := chi.NewMux()
			api.RegisterEndpoints(mux)

			req := httptest.NewRequest(http.MethodGet, "/api/v0/admin/users"+tc.query, nil)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tc.expectedStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleSetTenantStatus(t *testing.T) {
	testCases := []struct {
		name           string
		payload        string
		serviceErr     error
		expectService  bool
		expectedStatus int
	}{
		{
			name:           "deactivated",
			payload:        `{"status": "INACTIVE"}`,
			expectService:  true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown status",
			payload:        `{"status": "SUSPENDED"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing tenant",
			payload:        `{"status": "INACTIVE"}`,
			serviceErr:     storage.ErrNotFound,
			expectService:  true,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api, mockService := newTestAPI(t, "admin.API.setTenantStatus")

			if tc.expectService {
				mockService.EXPECT().SetTenantStatus(gomock.Any(), supplyTenantID, types.TenantStatusInactive).
					Return(tc.serviceErr)
			}

			mux := chi.NewMux()
			api.RegisterEndpoints(mux)

			req := httptest.NewRequest(http.MethodPatch, "/api/v0/admin/tenants/"+supplyTenantID+"/status", strings.NewReader(tc.payload))
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tc.expectedStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleSetProfileActive(t *testing.T) {
	api, mockService := newTestAPI(t, "admin.API.setProfileActive")

	mockService.EXPECT().SetProfileActive(gomock.Any(), "p2", false).Return(nil)

	mux := chi.NewMux()
	api.RegisterEndpoints(mux)

	req := httptest.NewRequest(http.MethodPatch, "/api/v0/admin/users/p2/active", strings.NewReader(`{"active": false}`))
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
}

func TestHandleDeleteTenant(t *testing.T) {
	api, mockService := newTestAPI(t, "admin.API.deleteTenant")

	mockService.EXPECT().DeleteTenant(gomock.Any(), supplyTenantID).Return(nil)

	mux := chi.NewMux()
	api.RegisterEndpoints(mux)

	req := httptest.NewRequest(http.MethodDelete, "/api/v0/admin/tenants/"+supplyTenantID, nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}
