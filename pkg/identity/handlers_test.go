// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

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

func TestAPI_Me(t *testing.T) {
	testCases := []struct {
		name           string
		identity       *types.ResolvedIdentity
		expectedStatus int
	}{
		{
			name:           "anonymous caller is a recognised state",
			identity:       &types.ResolvedIdentity{Outcome: types.OutcomeNoSession},
			expectedStatus: http.StatusOK,
		},
		{
			name: "missing profile is a recognised state",
			identity: &types.ResolvedIdentity{
				Outcome: types.OutcomeProfileMissing,
				Session: &types.Session{SubjectID: "user-1", Email: "owner@acme.test"},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "resolved",
			identity: &types.ResolvedIdentity{
				Outcome: types.OutcomeResolved,
				Session: &types.Session{SubjectID: "user-1"},
				Profile: &types.Profile{ID: "user-1", Role: types.RoleTenantAdmin, Active: true},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "session error surfaces as server fault",
			identity:       &types.ResolvedIdentity{Outcome: types.OutcomeSessionError, Err: "session lookup failed"},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name: "profile error surfaces as server fault",
			identity: &types.ResolvedIdentity{
				Outcome: types.OutcomeProfileError,
				Session: &types.Session{SubjectID: "user-1"},
				Err:     "profile lookup failed",
			},
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

			mockTracer.EXPECT().Start(gomock.Any(), "identity.API.me").
				DoAndReturn(func(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
					return ctx, trace.SpanFromContext(ctx)
				})

			mux := chi.NewMux()
			NewAPI(mockService, mockTracer, mockMonitor, mockLogger).RegisterEndpoints(mux)

			req := httptest.NewRequest(http.MethodGet, "/api/v0/me", nil)
			req = req.WithContext(WithIdentity(req.Context(), tc.identity))
			rr := httptest.NewRecorder()

			mux.ServeHTTP(rr, req)

			if rr.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d", tc.expectedStatus, rr.Code)
			}

			var body types.ResolvedIdentity
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Outcome != tc.identity.Outcome {
				t.Errorf("expected outcome %s, got %s", tc.identity.Outcome, body.Outcome)
			}
		})
	}
}

func TestAPI_UpdateMe(t *testing.T) {
	resolved := &types.ResolvedIdentity{
		Outcome: types.OutcomeResolved,
		Session: &types.Session{SubjectID: "user-1"},
		Profile: &types.Profile{ID: "user-1", Role: types.RoleTenantAdmin, Active: true},
	}

	testCases := []struct {
		name           string
		identity       *types.ResolvedIdentity
		payload        string
		serviceErr     error
		expectService  bool
		expectedStatus int
	}{
		{
			name:           "updated",
			identity:       resolved,
			payload:        `{"display_name": "New Name"}`,
			expectService:  true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "display name is required",
			identity:       resolved,
			payload:        `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed json",
			identity:       resolved,
			payload:        `{"display_name": `,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "anonymous caller",
			identity:       &types.ResolvedIdentity{Outcome: types.OutcomeNoSession},
			payload:        `{"display_name": "New Name"}`,
			serviceErr:     ErrNoProfile,
			expectService:  true,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "storage failure",
			identity:       resolved,
			payload:        `{"display_name": "New Name"}`,
			serviceErr:     errors.New("db down"),
			expectService:  true,
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

			mockTracer.EXPECT().Start(gomock.Any(), "identity.API.updateMe").
				DoAndReturn(func(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
					return ctx, trace.SpanFromContext(ctx)
				})

			if tc.expectService {
				if tc.serviceErr != nil {
					mockService.EXPECT().UpdateDisplayName(gomock.Any(), tc.identity, "New Name").Return(nil, tc.serviceErr)
					if tc.expectedStatus == http.StatusInternalServerError {
						mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any())
					}
				} else {
					mockService.EXPECT().UpdateDisplayName(gomock.Any(), tc.identity, "New Name").
						Return(&types.Profile{ID: "user-1", Name: "New Name", Role: types.RoleTenantAdmin, Active: true}, nil)
				}
			}

			mux := chi.NewMux()
			NewAPI(mockService, mockTracer, mockMonitor, mockLogger).RegisterEndpoints(mux)

			req := httptest.NewRequest(http.MethodPatch, "/api/v0/me", strings.NewReader(tc.payload))
			req = req.WithContext(WithIdentity(req.Context(), tc.identity))
			rr := httptest.NewRecorder()

			mux.ServeHTTP(rr, req)

			if rr.Code != tc.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tc.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}
