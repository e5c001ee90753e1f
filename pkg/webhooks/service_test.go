// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/canonical/marketplace-service/internal/storage"
	"github.com/canonical/marketplace-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package webhooks -destination ./mock_webhooks.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package webhooks -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package webhooks -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package webhooks -destination ./mock_tracing.go -source=../../internal/tracing/interfaces.go

func TestService_HandleSettingsUpdate(t *testing.T) {
	identityID := "identity-123"

	testCases := []struct {
		name        string
		identityID  string
		displayName string
		setupMocks  func(*MockStorageInterface, *MockLoggerInterface)
		expectedErr bool
	}{
		{
			name:        "name synced",
			identityID:  identityID,
			displayName: "New Name",
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockStorage.EXPECT().GetProfileByID(gomock.Any(), identityID).
					Return(&types.Profile{ID: identityID, Name: "Old Name"}, nil)
				mockStorage.EXPECT().UpdateProfileName(gomock.Any(), identityID, "New Name").Return(nil)
				mockLogger.EXPECT().Infof(gomock.Any(), gomock.Any())
			},
		},
		{
			name:        "unchanged name is a no-op",
			identityID:  identityID,
			displayName: "Same Name",
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockStorage.EXPECT().GetProfileByID(gomock.Any(), identityID).
					Return(&types.Profile{ID: identityID, Name: "Same Name"}, nil)
			},
		},
		{
			name:        "empty display name is a no-op",
			identityID:  identityID,
			displayName: "",
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any())
			},
		},
		{
			name:        "identity without profile is skipped",
			identityID:  identityID,
			displayName: "New Name",
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockStorage.EXPECT().GetProfileByID(gomock.Any(), identityID).Return(nil, storage.ErrNotFound)
				mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any())
			},
		},
		{
			name:        "empty identity id",
			identityID:  "",
			displayName: "New Name",
			setupMocks:  func(*MockStorageInterface, *MockLoggerInterface) {},
			expectedErr: true,
		},
		{
			name:        "profile lookup failure",
			identityID:  identityID,
			displayName: "New Name",
			setupMocks: func(mockStorage *MockStorageInterface, mockLogger *MockLoggerInterface) {
				mockStorage.EXPECT().GetProfileByID(gomock.Any(), identityID).Return(nil, errors.New("db down"))
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			mockTracer.EXPECT().Start(gomock.Any(), "webhooks.Service.HandleSettingsUpdate").
				Return(context.Background(), trace.SpanFromContext(context.Background()))
			tc.setupMocks(mockStorage, mockLogger)

			s := NewService(mockStorage, mockTracer, mockMonitor, mockLogger)

			err := s.HandleSettingsUpdate(context.Background(), tc.identityID, tc.displayName)
			if tc.expectedErr != (err != nil) {
				t.Errorf("expected error %v, got %v", tc.expectedErr, err)
			}
		})
	}
}
