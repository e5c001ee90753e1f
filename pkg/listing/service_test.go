// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package listing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/marketplace-service/internal/authorization"
	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/storage"
	"github.com/canonical/marketplace-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package listing -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package listing -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package listing -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package listing -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

const (
	testListingID = "aaaaaaaa-0000-0000-0000-000000000001"
	testTenantID  = "bbbbbbbb-0000-0000-0000-000000000001"
	otherTenantID = "bbbbbbbb-0000-0000-0000-000000000002"
	testProfileID = "cccccccc-0000-0000-0000-000000000001"
)

func strPtr(s string) *string {
	return &s
}

func memberIdentity(tenantID string) *types.ResolvedIdentity {
	return &types.ResolvedIdentity{
		Outcome: types.OutcomeResolved,
		Profile: &types.Profile{
			ID:       testProfileID,
			Role:     types.RoleTenantAdmin,
			TenantID: strPtr(tenantID),
			Active:   true,
		},
	}
}

func anonymousIdentity() *types.ResolvedIdentity {
	return &types.ResolvedIdentity{Outcome: types.OutcomeNoSession}
}

func expectSpan(mockTracer *MockTracingInterface, name string) {
	mockTracer.EXPECT().Start(gomock.Any(), name).
		Return(context.Background(), trace.SpanFromContext(context.Background()))
}

func TestService_ToggleListingStatus(t *testing.T) {
	testCases := []struct {
		name           string
		storedStatus   types.ListingStatus
		expectedStatus types.ListingStatus
	}{
		{
			name:           "published listing is stopped",
			storedStatus:   types.ListingStatusPublished,
			expectedStatus: types.ListingStatusStopped,
		},
		{
			name:           "stopped listing is published",
			storedStatus:   types.ListingStatusStopped,
			expectedStatus: types.ListingStatusPublished,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockAuthz := NewMockAuthzInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			expectSpan(mockTracer, "listing.Service.ToggleListingStatus")
			expectSpan(mockTracer, "listing.Service.authorizeOwnerMutation")

			stored := &types.Listing{ID: testListingID, OwnerTenantID: testTenantID, Status: tc.storedStatus}
			gomock.InOrder(
				mockStorage.EXPECT().GetListingByID(gomock.Any(), testListingID).Return(stored, nil),
				mockStorage.EXPECT().SetListingStatus(gomock.Any(), testListingID, tc.expectedStatus).Return(nil),
				mockStorage.EXPECT().GetListingByID(gomock.Any(), testListingID).
					Return(&types.Listing{ID: testListingID, OwnerTenantID: testTenantID, Status: tc.expectedStatus}, nil),
			)
			mockAuthz.EXPECT().CheckTenantAccess(gomock.Any(), testTenantID, testProfileID, authorization.CAN_EDIT_PERMISSION).Return(true, nil)

			s := NewService(mockStorage, mockAuthz, mockTracer, mockMonitor, mockLogger)

			updated, err := s.ToggleListingStatus(context.Background(), memberIdentity(testTenantID), testListingID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if updated.Status != tc.expectedStatus {
				t.Errorf("expected status %s, got %s", tc.expectedStatus, updated.Status)
			}
		})
	}
}

func TestService_OwnerMutationGuards(t *testing.T) {
	testCases := []struct {
		name        string
		identity    *types.ResolvedIdentity
		setupMocks  func(*MockStorageInterface, *MockAuthzInterface, *MockLoggerInterface)
		expectedErr error
	}{
		{
			name:        "anonymous caller",
			identity:    anonymousIdentity(),
			setupMocks:  func(*MockStorageInterface, *MockAuthzInterface, *MockLoggerInterface) {},
			expectedErr: ErrNotAuthenticated,
		},
		{
			name: "profile without tenant",
			identity: &types.ResolvedIdentity{
				Outcome: types.OutcomeResolved,
				Profile: &types.Profile{ID: testProfileID, Role: types.RolePlatformAdmin, Active: true},
			},
			setupMocks:  func(*MockStorageInterface, *MockAuthzInterface, *MockLoggerInterface) {},
			expectedErr: ErrNotAuthenticated,
		},
		{
			name: "deactivated profile",
			identity: &types.ResolvedIdentity{
				Outcome: types.OutcomeResolved,
				Profile: &types.Profile{ID: testProfileID, Role: types.RoleTenantMember, TenantID: strPtr(testTenantID), Active: false},
			},
			setupMocks:  func(*MockStorageInterface, *MockAuthzInterface, *MockLoggerInterface) {},
			expectedErr: ErrNotAuthenticated,
		},
		{
			name:     "listing does not exist",
			identity: memberIdentity(testTenantID),
			setupMocks: func(mockStorage *MockStorageInterface, mockAuthz *MockAuthzInterface, mockLogger *MockLoggerInterface) {
				mockStorage.EXPECT().GetListingByID(gomock.Any(), testListingID).Return(nil, storage.ErrNotFound)
			},
			expectedErr: ErrNotFound,
		},
		{
			name:     "listing owned by another tenant",
			identity: memberIdentity(testTenantID),
			setupMocks: func(mockStorage *MockStorageInterface, mockAuthz *MockAuthzInterface, mockLogger *MockLoggerInterface) {
				mockStorage.EXPECT().GetListingByID(gomock.Any(), testListingID).
					Return(&types.Listing{ID: testListingID, OwnerTenantID: otherTenantID, Status: types.ListingStatusPublished}, nil)
				mockLogger.EXPECT().Security().Return(logging.NewNoopLogger().Security())
			},
			expectedErr: ErrForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockAuthz := NewMockAuthzInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			expectSpan(mockTracer, "listing.Service.DeleteListing")
			expectSpan(mockTracer, "listing.Service.authorizeOwnerMutation")
			tc.setupMocks(mockStorage, mockAuthz, mockLogger)

			s := NewService(mockStorage, mockAuthz, mockTracer, mockMonitor, mockLogger)

			err := s.DeleteListing(context.Background(), tc.identity, testListingID)
			if !errors.Is(err, tc.expectedErr) {
				t.Errorf("expected error %v, got %v", tc.expectedErr, err)
			}
		})
	}
}

func TestService_OwnerMutationSurvivesAuthzStoreDisagreement(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockAuthz := NewMockAuthzInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	expectSpan(mockTracer, "listing.Service.DeleteListing")
	expectSpan(mockTracer, "listing.Service.authorizeOwnerMutation")

	mockStorage.EXPECT().GetListingByID(gomock.Any(), testListingID).
		Return(&types.Listing{ID: testListingID, OwnerTenantID: testTenantID, Status: types.ListingStatusStopped}, nil)
	mockAuthz.EXPECT().CheckTenantAccess(gomock.Any(), testTenantID, testProfileID, authorization.CAN_EDIT_PERMISSION).Return(false, nil)
	mockLogger.EXPECT().Warnf(gomock.Any(), gomock.Any(), gomock.Any())
	mockStorage.EXPECT().DeleteListing(gomock.Any(), testListingID).Return(nil)

	s := NewService(mockStorage, mockAuthz, mockTracer, mockMonitor, mockLogger)

	if err := s.DeleteListing(context.Background(), memberIdentity(testTenantID), testListingID); err != nil {
		t.Fatalf("database ownership grants the mutation, got %v", err)
	}
}

func TestService_CreateListingForcesOwnership(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockAuthz := NewMockAuthzInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	expectSpan(mockTracer, "listing.Service.CreateListing")

	mockStorage.EXPECT().CreateListing(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, listing *types.Listing) (*types.Listing, error) {
			if listing.OwnerTenantID != testTenantID {
				t.Errorf("expected owner %s, got %s", testTenantID, listing.OwnerTenantID)
			}
			if listing.Status != types.ListingStatusStopped {
				t.Errorf("expected default status STOPPED, got %s", listing.Status)
			}
			return listing, nil
		})

	s := NewService(mockStorage, mockAuthz, mockTracer, mockMonitor, mockLogger)

	// The request claims a foreign owner and no status at all.
	_, err := s.CreateListing(context.Background(), memberIdentity(testTenantID), &types.Listing{
		Name:          "20t crawler excavator",
		OwnerTenantID: otherTenantID,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestService_GetListing(t *testing.T) {
	stopped := &types.Listing{ID: testListingID, OwnerTenantID: testTenantID, Status: types.ListingStatusStopped}
	published := &types.Listing{ID: testListingID, OwnerTenantID: testTenantID, Status: types.ListingStatusPublished}

	testCases := []struct {
		name        string
		identity    *types.ResolvedIdentity
		stored      *types.Listing
		expectedErr error
	}{
		{
			name:     "published listing visible to anonymous",
			identity: anonymousIdentity(),
			stored:   published,
		},
		{
			name:     "stopped listing visible to owner tenant",
			identity: memberIdentity(testTenantID),
			stored:   stopped,
		},
		{
			name: "stopped listing visible to platform admin",
			identity: &types.ResolvedIdentity{
				Outcome: types.OutcomeResolved,
				Profile: &types.Profile{ID: testProfileID, Role: types.RolePlatformAdmin, Active: true},
			},
			stored: stopped,
		},
		{
			name:        "stopped listing hidden from other tenants",
			identity:    memberIdentity(otherTenantID),
			stored:      stopped,
			expectedErr: ErrNotFound,
		},
		{
			name:        "stopped listing hidden from anonymous",
			identity:    anonymousIdentity(),
			stored:      stopped,
			expectedErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockAuthz := NewMockAuthzInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			expectSpan(mockTracer, "listing.Service.GetListing")
			mockStorage.EXPECT().GetListingByID(gomock.Any(), testListingID).Return(tc.stored, nil)

			s := NewService(mockStorage, mockAuthz, mockTracer, mockMonitor, mockLogger)

			listing, err := s.GetListing(context.Background(), tc.identity, testListingID)
			if !errors.Is(err, tc.expectedErr) {
				t.Fatalf("expected error %v, got %v", tc.expectedErr, err)
			}
			if tc.expectedErr == nil && listing == nil {
				t.Error("expected a listing")
			}
		})
	}
}

func TestService_ListTenantListings(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockAuthz := NewMockAuthzInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	expectSpan(mockTracer, "listing.Service.ListTenantListings")
	mockStorage.EXPECT().ListListingsByTenantID(gomock.Any(), testTenantID).
		Return([]*types.Listing{{ID: testListingID, OwnerTenantID: testTenantID, Status: types.ListingStatusStopped}}, nil)

	s := NewService(mockStorage, mockAuthz, mockTracer, mockMonitor, mockLogger)

	listings, err := s.ListTenantListings(context.Background(), memberIdentity(testTenantID))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(listings) != 1 {
		t.Errorf("expected 1 listing, got %d", len(listings))
	}
}

func TestService_UpdateListingReturnsFreshState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorage := NewMockStorageInterface(ctrl)
	mockAuthz := NewMockAuthzInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	expectSpan(mockTracer, "listing.Service.UpdateListing")
	expectSpan(mockTracer, "listing.Service.authorizeOwnerMutation")

	stored := &types.Listing{ID: testListingID, OwnerTenantID: testTenantID, Status: types.ListingStatusPublished}
	gomock.InOrder(
		mockStorage.EXPECT().GetListingByID(gomock.Any(), testListingID).Return(stored, nil),
		mockStorage.EXPECT().UpdateListing(gomock.Any(), gomock.Any(), []string{"name"}).Return(nil),
		mockStorage.EXPECT().GetListingByID(gomock.Any(), testListingID).
			Return(&types.Listing{ID: testListingID, OwnerTenantID: testTenantID, Name: "renamed", Status: types.ListingStatusPublished}, nil),
	)
	mockAuthz.EXPECT().CheckTenantAccess(gomock.Any(), testTenantID, testProfileID, authorization.CAN_EDIT_PERMISSION).Return(true, nil)

	s := NewService(mockStorage, mockAuthz, mockTracer, mockMonitor, mockLogger)

	updated, err := s.UpdateListing(context.Background(), memberIdentity(testTenantID), testListingID, &types.Listing{Name: "renamed"}, []string{"name"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Name != "renamed" {
		t.Errorf("expected the re-read listing, got %+v", updated)
	}
}
