// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrUnknownEmail       = errors.New("no identity for email")
)
