// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package admin

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/marketplace-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package admin -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package admin -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package admin -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package admin -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

const (
	supplyTenantID = "22222222-0000-0000-0000-000000000001"
	demandTenantID = "22222222-0000-0000-0000-000000000002"
)

func strPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

func newTestService(t *testing.T, spanName string) (*Service, *MockStorageInterface, *MockAuthzInterface, *MockLoggerInterface) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockStorage := NewMockStorageInterface(ctrl)
	mockAuthz := NewMockAuthzInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), spanName).
		Return(context.Background(), trace.SpanFromContext(context.Background()))

	return NewService(mockStorage, mockAuthz, mockTracer, mockMonitor, mockLogger),
		mockStorage, mockAuthz, mockLogger
}

func expectDirectory(mockStorage *MockStorageInterface) {
	profiles := []*types.Profile{
		{ID: "p1", Name: "Taro Yamada", Role: types.RoleTenantAdmin, TenantID: strPtr(supplyTenantID), Active: true},
		{ID: "p2", Name: "Hanako Sato", Role: types.RoleTenantMember, TenantID: strPtr(supplyTenantID), Active: false},
		{ID: "p3", Name: "Jiro Tanaka", Role: types.RoleTenantAdmin, TenantID: strPtr(demandTenantID), Active: true},
		{ID: "p4", Name: "Platform Op", Role: types.RolePlatformAdmin, Active: true},
	}
	tenants := []*types.Tenant{
		{ID: supplyTenantID, Name: "Supply Co", Type: types.TenantTypeSupply, Status: types.TenantStatusActive},
		{ID: demandTenantID, Name: "Demand Co", Type: types.TenantTypeDemand, Status: types.TenantStatusInactive},
	}

	mockStorage.EXPECT().ListProfiles(gomock.Any(), uint64(profileFetchLimit)).Return(profiles, nil)
	mockStorage.EXPECT().ListTenantsByIDs(gomock.Any(), []string{supplyTenantID, demandTenantID}).Return(tenants, nil)
	mockStorage.EXPECT().CountPublishedListingsByTenant(gomock.Any(), []string{supplyTenantID, demandTenantID}).
		Return(map[string]int{supplyTenantID: 3}, nil)
}

func TestService_ListUsers(t *testing.T) {
	testCases := []struct {
		name        string
		filter      *UserFilter
		expectedIDs []string
	}{
		{
			name:        "no filter returns everyone",
			filter:      &UserFilter{},
			expectedIDs: []string{"p1", "p2", "p3", "p4"},
		},
		{
			name:        "name query is case insensitive",
			filter:      &UserFilter{Query: "taro"},
			expectedIDs: []string{"p1"},
		},
		{
			name:        "role filter",
			filter:      &UserFilter{Role: types.RoleTenantAdmin},
			expectedIDs: []string{"p1", "p3"},
		},
		{
			name:        "inactive only",
			filter:      &UserFilter{Active: boolPtr(false)},
			expectedIDs: []string{"p2"},
		},
		{
			name:        "tenant status filter excludes tenantless profiles",
			filter:      &UserFilter{TenantStatus: types.TenantStatusActive},
			expectedIDs: []string{"p1", "p2"},
		},
		{
			name:        "tenant type filter",
			filter:      &UserFilter{TenantType: types.TenantTypeDemand},
			expectedIDs: []string{"p3"},
		},
		{
			name:        "combined filters",
			filter:      &UserFilter{Role: types.RoleTenantAdmin, TenantStatus: types.TenantStatusActive},
			expectedIDs: []string{"p1"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, mockStorage, _, _ := newTestService(t, "admin.Service.ListUsers")
			expectDirectory(mockStorage)

			users, err := s.ListUsers(context.Background(), tc.filter)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			ids := make([]string, 0, len(users))
			for _, u := range users {
				ids = append(ids, u.Profile.ID)
			}
			if len(ids) != len(tc.expectedIDs) {
				t.Fatalf("expected %v, got %v", tc.expectedIDs, ids)
			}
			for i := range ids {
				if ids[i] != tc.expectedIDs[i] {
					t.Fatalf("expected %v, got %v", tc.expectedIDs, ids)
				}
			}
		})
	}
}

func TestService_ListUsersCarriesListingCounts(t *testing.T) {
	s, mockStorage, _, _ := newTestService(t, "admin.Service.ListUsers")
	expectDirectory(mockStorage)

	users, err := s.ListUsers(context.Background(), &UserFilter{Query: "taro yamada"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].PublishedListings != 3 {
		t.Errorf("expected 3 published listings, got %d", users[0].PublishedListings)
	}
	if users[0].Tenant == nil || users[0].Tenant.Name != "Supply Co" {
		t.Errorf("expected the tenant record attached, got %+v", users[0].Tenant)
	}
}

func TestService_DeleteTenantCleansUpTuples(t *testing.T) {
	s, mockStorage, mockAuthz, _ := newTestService(t, "admin.Service.DeleteTenant")

	gomock.InOrder(
		mockStorage.EXPECT().DeleteTenant(gomock.Any(), supplyTenantID).Return(nil),
		mockAuthz.EXPECT().DeleteTenant(gomock.Any(), supplyTenantID).Return(nil),
	)

	if err := s.DeleteTenant(context.Background(), supplyTenantID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestService_DeleteTenantTupleFailureIsNotFatal(t *testing.T) {
	s, mockStorage, mockAuthz, mockLogger := newTestService(t, "admin.Service.DeleteTenant")

	mockStorage.EXPECT().DeleteTenant(gomock.Any(), supplyTenantID).Return(nil)
	mockAuthz.EXPECT().DeleteTenant(gomock.Any(), supplyTenantID).Return(errors.New("fga down"))
	mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any(), gomock.Any())

	if err := s.DeleteTenant(context.Background(), supplyTenantID); err != nil {
		t.Fatalf("tuple cleanup is advisory, got %v", err)
	}
}

func TestService_DeleteTenantRowFailureSkipsTuples(t *testing.T) {
	s, mockStorage, _, _ := newTestService(t, "admin.Service.DeleteTenant")

	mockStorage.EXPECT().DeleteTenant(gomock.Any(), supplyTenantID).Return(errors.New("db down"))

	if err := s.DeleteTenant(context.Background(), supplyTenantID); err == nil {
		t.Fatal("expected an error")
	}
}
