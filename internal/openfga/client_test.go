// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package openfga

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/tracing"
)

type batchCheckRequest struct {
	Checks []struct {
		CorrelationID string `json:"correlation_id"`
		User          string `json:"user"`
		Relation      string `json:"relation"`
		Object        string `json:"object"`
	} `json:"checks"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	logger := logging.NewNoopLogger()
	cfg := NewConfig(
		"http",
		strings.TrimPrefix(ts.URL, "http://"),
		"01GXSA8YR785C4FYS40MWPYCMA",
		"",
		"",
		false,
		tracing.NewNoopTracer(),
		monitoring.NewNoopMonitor("openfga-test", logger),
		logger,
	)

	return NewClient(cfg)
}

func TestClient_BatchCheck(t *testing.T) {
	testCases := []struct {
		name            string
		results         map[string]map[string]interface{}
		expectedAllowed bool
		expectedErr     bool
	}{
		{
			name: "all allowed",
			results: map[string]map[string]interface{}{
				"0": {"allowed": true},
				"1": {"allowed": true},
			},
			expectedAllowed: true,
		},
		{
			name: "one denied",
			results: map[string]map[string]interface{}{
				"0": {"allowed": true},
				"1": {"allowed": false},
			},
			expectedAllowed: false,
		},
		{
			name: "check level error",
			results: map[string]map[string]interface{}{
				"0": {"allowed": true},
				"1": {"error": map[string]interface{}{"input_error": "validation_error", "message": "relation not found"}},
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasSuffix(r.URL.Path, "/batch-check") {
					t.Errorf("unexpected path %s", r.URL.Path)
				}

				var req batchCheckRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("failed to decode batch check request: %v", err)
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				if len(req.Checks) != 2 {
					t.Errorf("expected 2 checks, got %d", len(req.Checks))
				}
				for _, check := range req.Checks {
					if check.CorrelationID == "" {
						t.Error("expected correlation id on every check")
					}
				}

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": tc.results})
			})

			allowed, err := c.BatchCheck(
				context.Background(),
				TupleWithContext{Tuple: Tuple{User: "user:u1", Relation: "member", Object: "tenant:t1"}},
				TupleWithContext{Tuple: Tuple{User: "user:u1", Relation: "can_edit", Object: "tenant:t1"}},
			)

			if tc.expectedErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if allowed != tc.expectedAllowed {
				t.Errorf("expected allowed %v, got %v", tc.expectedAllowed, allowed)
			}
		})
	}
}

func TestClient_Check(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/check") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"allowed": true})
	})

	allowed, err := c.Check(context.Background(), "user:u1", "member", "tenant:t1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !allowed {
		t.Error("expected check to be allowed")
	}
}
