// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package provisioning

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package provisioning -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package provisioning -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package provisioning -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package provisioning -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

const (
	testUserID   = "11111111-1111-1111-1111-111111111111"
	testTenantID = "22222222-2222-2222-2222-222222222222"
)

func testRequest() *ProvisionRequest {
	return &ProvisionRequest{
		Email:       "owner@acme.test",
		Password:    "correct-horse-battery",
		ProfileName: "Acme Owner",
		TenantName:  "Acme Co",
		TenantType:  types.TenantTypeSupply,
		Prefecture:  "Tokyo",
		City:        "Koto",
		Phone:       "03-0000-0000",
	}
}

func newTestService(t *testing.T) (*Service, *MockStorageInterface, *MockKratosClientInterface, *MockAuthzInterface, *MockLoggerInterface) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockStorage := NewMockStorageInterface(ctrl)
	mockKratos := NewMockKratosClientInterface(ctrl)
	mockAuthz := NewMockAuthzInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), "provisioning.Service.ProvisionTenantAndProfile").
		Return(context.Background(), trace.SpanFromContext(context.Background()))

	return NewService(mockStorage, mockKratos, mockAuthz, mockTracer, mockMonitor, mockLogger),
		mockStorage, mockKratos, mockAuthz, mockLogger
}

func TestService_ProvisionTenantAndProfile(t *testing.T) {
	s, mockStorage, mockKratos, mockAuthz, _ := newTestService(t)

	gomock.InOrder(
		mockKratos.EXPECT().CreateIdentity(gomock.Any(), "owner@acme.test", gomock.Any()).Return(testUserID, nil),
		mockStorage.EXPECT().CreateTenant(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, tenant *types.Tenant) (*types.Tenant, error) {
				if tenant.Status != types.TenantStatusActive {
					t.Errorf("expected tenant status ACTIVE, got %s", tenant.Status)
				}
				created := *tenant
				created.ID = testTenantID
				return &created, nil
			}),
		mockStorage.EXPECT().UpsertProfile(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, profile *types.Profile) (*types.Profile, error) {
				if profile.ID != testUserID {
					t.Errorf("profile must be keyed by the subject id, got %s", profile.ID)
				}
				if profile.Role != types.RoleTenantAdmin {
					t.Errorf("first profile of a tenant must be TENANT_ADMIN, got %s", profile.Role)
				}
				if profile.TenantID == nil || *profile.TenantID != testTenantID {
					t.Errorf("expected profile linked to tenant %s", testTenantID)
				}
				if !profile.Active {
					t.Error("expected profile to be active")
				}
				return profile, nil
			}),
	)
	mockAuthz.EXPECT().AssignTenantOwner(gomock.Any(), testTenantID, testUserID).Return(nil)

	result, err := s.ProvisionTenantAndProfile(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.UserID != testUserID || result.TenantID != testTenantID {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestService_ProvisionIdentityFailureCreatesNothing(t *testing.T) {
	s, _, mockKratos, _, _ := newTestService(t)

	mockKratos.EXPECT().CreateIdentity(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("identity provider down"))

	if _, err := s.ProvisionTenantAndProfile(context.Background(), testRequest()); err == nil {
		t.Fatal("expected an error")
	}
}

func TestService_ProvisionTenantFailureDeletesIdentity(t *testing.T) {
	s, mockStorage, mockKratos, _, _ := newTestService(t)

	gomock.InOrder(
		mockKratos.EXPECT().CreateIdentity(gomock.Any(), gomock.Any(), gomock.Any()).Return(testUserID, nil),
		mockStorage.EXPECT().CreateTenant(gomock.Any(), gomock.Any()).Return(nil, errors.New("insert failed")),
		mockKratos.EXPECT().DeleteIdentity(gomock.Any(), testUserID).Return(nil),
	)

	_, err := s.ProvisionTenantAndProfile(context.Background(), testRequest())
	if err == nil || !strings.Contains(err.Error(), "insert failed") {
		t.Fatalf("expected the original failure to surface, got %v", err)
	}
}

func TestService_ProvisionProfileFailureUnwindsInReverseOrder(t *testing.T) {
	s, mockStorage, mockKratos, _, _ := newTestService(t)

	gomock.InOrder(
		mockKratos.EXPECT().CreateIdentity(gomock.Any(), gomock.Any(), gomock.Any()).Return(testUserID, nil),
		mockStorage.EXPECT().CreateTenant(gomock.Any(), gomock.Any()).
			Return(&types.Tenant{ID: testTenantID, Status: types.TenantStatusActive}, nil),
		mockStorage.EXPECT().UpsertProfile(gomock.Any(), gomock.Any()).Return(nil, errors.New("profile insert failed")),
		mockStorage.EXPECT().DeleteTenant(gomock.Any(), testTenantID).Return(nil),
		mockKratos.EXPECT().DeleteIdentity(gomock.Any(), testUserID).Return(nil),
	)

	_, err := s.ProvisionTenantAndProfile(context.Background(), testRequest())
	if err == nil || !strings.Contains(err.Error(), "profile insert failed") {
		t.Fatalf("expected the original failure to surface, got %v", err)
	}
}

func TestService_CompensationFailureDoesNotMaskOriginalError(t *testing.T) {
	s, mockStorage, mockKratos, _, mockLogger := newTestService(t)

	gomock.InOrder(
		mockKratos.EXPECT().CreateIdentity(gomock.Any(), gomock.Any(), gomock.Any()).Return(testUserID, nil),
		mockStorage.EXPECT().CreateTenant(gomock.Any(), gomock.Any()).
			Return(&types.Tenant{ID: testTenantID, Status: types.TenantStatusActive}, nil),
		mockStorage.EXPECT().UpsertProfile(gomock.Any(), gomock.Any()).Return(nil, errors.New("profile insert failed")),
		mockStorage.EXPECT().DeleteTenant(gomock.Any(), testTenantID).Return(errors.New("tenant gone already")),
		mockKratos.EXPECT().DeleteIdentity(gomock.Any(), testUserID).Return(errors.New("identity gone already")),
	)
	mockLogger.EXPECT().Security().Return(logging.NewNoopLogger().Security()).Times(2)

	_, err := s.ProvisionTenantAndProfile(context.Background(), testRequest())
	if err == nil || !strings.Contains(err.Error(), "profile insert failed") {
		t.Fatalf("expected the original failure to surface, got %v", err)
	}
}

func TestService_AuthzTupleFailureIsNotFatal(t *testing.T) {
	s, mockStorage, mockKratos, mockAuthz, mockLogger := newTestService(t)

	gomock.InOrder(
		mockKratos.EXPECT().CreateIdentity(gomock.Any(), gomock.Any(), gomock.Any()).Return(testUserID, nil),
		mockStorage.EXPECT().CreateTenant(gomock.Any(), gomock.Any()).
			Return(&types.Tenant{ID: testTenantID, Status: types.TenantStatusActive}, nil),
		mockStorage.EXPECT().UpsertProfile(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, profile *types.Profile) (*types.Profile, error) {
				return profile, nil
			}),
	)
	mockAuthz.EXPECT().AssignTenantOwner(gomock.Any(), testTenantID, testUserID).Return(errors.New("fga down"))
	mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any(), gomock.Any())

	result, err := s.ProvisionTenantAndProfile(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("tuple write is advisory, got %v", err)
	}
	if result.TenantID != testTenantID {
		t.Errorf("unexpected result %+v", result)
	}
}
