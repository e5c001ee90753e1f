// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteResponse(t *testing.T) {
	rr := httptest.NewRecorder()

	if err := WriteResponse(rr, http.StatusCreated, map[string]string{"id": "123"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rr.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content type application/json, got %q", ct)
	}

	var resp Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != http.StatusCreated {
		t.Errorf("expected envelope status %d, got %d", http.StatusCreated, resp.Status)
	}
}

func TestWriteErrorResponse(t *testing.T) {
	rr := httptest.NewRecorder()

	if err := WriteErrorResponse(rr, http.StatusNotFound, "listing not found"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "listing not found" {
		t.Errorf("expected message %q, got %q", "listing not found", resp.Message)
	}
	if resp.Data != nil {
		t.Error("error responses must not carry data")
	}
}
