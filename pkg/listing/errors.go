// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package listing

import "errors"

var (
	// ErrNotAuthenticated means the caller has no usable session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrForbidden means the caller is authenticated but does not own the
	// listing's tenant. Handlers surface it identically to ErrNotFound so
	// foreign listing ids cannot be enumerated.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means the listing does not exist.
	ErrNotFound = errors.New("listing not found")
)
