// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/marketplace-service/internal/types"
)

func TestMiddleware_ResolveIdentity(t *testing.T) {
	testCases := []struct {
		name          string
		setupRequest  func(*http.Request)
		expectedToken string
	}{
		{
			name:          "no credentials",
			setupRequest:  func(r *http.Request) {},
			expectedToken: "",
		},
		{
			name: "session token header",
			setupRequest: func(r *http.Request) {
				r.Header.Set(SessionTokenHeader, "header-token")
			},
			expectedToken: "header-token",
		},
		{
			name: "session cookie",
			setupRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
			},
			expectedToken: "cookie-token",
		},
		{
			name: "header wins over cookie",
			setupRequest: func(r *http.Request) {
				r.Header.Set(SessionTokenHeader, "header-token")
				r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
			},
			expectedToken: "header-token",
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

			resolved := &types.ResolvedIdentity{Outcome: types.OutcomeNoSession}

			mockTracer.EXPECT().Start(gomock.Any(), "identity.Middleware.ResolveIdentity").
				DoAndReturn(func(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
					return ctx, trace.SpanFromContext(ctx)
				})
			mockService.EXPECT().Resolve(gomock.Any(), tc.expectedToken).Return(resolved)

			mdw := NewMiddleware(mockService, mockTracer, mockMonitor, mockLogger)

			var got *types.ResolvedIdentity
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = IdentityFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v0/me", nil)
			tc.setupRequest(req)
			rr := httptest.NewRecorder()

			mdw.ResolveIdentity()(handler).ServeHTTP(rr, req)

			if got != resolved {
				t.Error("expected resolved identity to be stored in request context")
			}
		})
	}
}

func TestIdentityFromContextDefaultsToAnonymous(t *testing.T) {
	identity := IdentityFromContext(context.Background())

	if identity == nil {
		t.Fatal("expected non-nil identity")
	}
	if identity.Outcome != types.OutcomeNoSession {
		t.Errorf("expected outcome %s, got %s", types.OutcomeNoSession, identity.Outcome)
	}
}
