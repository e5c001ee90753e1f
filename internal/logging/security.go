// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"go.uber.org/zap"
)

// SecurityLogger emits structured security events on a dedicated named logger
// so they can be routed and retained independently of application logs.
type SecurityLogger struct {
	l *zap.Logger
}

func (s *SecurityLogger) AuthnFailure(subject, reason string) {
	s.l.Warn("authentication failure",
		zap.String("event", "authn_failure"),
		zap.String("subject", subject),
		zap.String("reason", reason),
	)
}

// AuthzFailure records a denied authorization decision. Denials are routine
// traffic, so they stay at debug and never page anyone.
func (s *SecurityLogger) AuthzFailure(subject, action string) {
	s.l.Debug("authorization failure",
		zap.String("event", "authz_failure"),
		zap.String("subject", subject),
		zap.String("action", action),
	)
}

// CompensationFailure records a provisioning rollback step that did not
// complete. The orphaned resource id is logged for manual cleanup.
func (s *SecurityLogger) CompensationFailure(step, resourceID string, err error) {
	s.l.Error("provisioning compensation failure",
		zap.String("event", "compensation_failure"),
		zap.String("step", step),
		zap.String("resource_id", resourceID),
		zap.Error(err),
	)
}

func (s *SecurityLogger) SystemStartup() {
	s.l.Info("system startup", zap.String("event", "system_startup"))
}

func (s *SecurityLogger) SystemShutdown() {
	s.l.Info("system shutdown", zap.String("event", "system_shutdown"))
}
