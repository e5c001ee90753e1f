// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package auth

import (
	"context"
	"fmt"

	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/tracing"
	"github.com/canonical/marketplace-service/internal/types"
)

const defaultRecoveryExpiry = "1h"

type RecoveryCode struct {
	RecoveryLink string `json:"recovery_link"`
	RecoveryCode string `json:"recovery_code"`
}

type Service struct {
	kratos KratosClientInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Login exchanges credentials for a session token. A rejected login is an
// expected denial, it logs a security event and returns ErrInvalidCredentials
// without detail the caller could use to enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (string, *types.Session, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Service.Login")
	defer span.End()

	token, session, err := s.kratos.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.logger.Security().AuthnFailure(email, "password_login")
		s.logger.Debugf("login failed for %s: %v", email, err)
		return "", nil, ErrInvalidCredentials
	}

	return token, session, nil
}

func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	ctx, span := s.tracer.Start(ctx, "auth.Service.Logout")
	defer span.End()

	if sessionToken == "" {
		return ErrNotAuthenticated
	}

	if err := s.kratos.SignOut(ctx, sessionToken); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	return nil
}

// CreateRecoveryCode issues a password recovery code for the identity behind
// an email address. The endpoint exposing it is privileged, so an unknown
// email is a plain not-found rather than an enumeration concern.
func (s *Service) CreateRecoveryCode(ctx context.Context, email, expiresIn string) (*RecoveryCode, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Service.CreateRecoveryCode")
	defer span.End()

	identityID, err := s.kratos.GetIdentityIDByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}
	if identityID == "" {
		return nil, ErrUnknownEmail
	}

	if expiresIn == "" {
		expiresIn = defaultRecoveryExpiry
	}

	link, code, err := s.kratos.CreateRecoveryCode(ctx, identityID, expiresIn)
	if err != nil {
		return nil, fmt.Errorf("failed to create recovery code: %w", err)
	}

	return &RecoveryCode{RecoveryLink: link, RecoveryCode: code}, nil
}

func (s *Service) UpdatePassword(ctx context.Context, identity *types.ResolvedIdentity, newPassword string) error {
	ctx, span := s.tracer.Start(ctx, "auth.Service.UpdatePassword")
	defer span.End()

	if !identity.Authenticated() || identity.Session == nil {
		return ErrNotAuthenticated
	}

	if err := s.kratos.UpdatePassword(ctx, identity.Session.SubjectID, newPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func NewService(kratos KratosClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Service {
	return &Service{
		kratos:  kratos,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
