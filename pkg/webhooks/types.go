// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

// SettingsPayload is the body Kratos posts from the after-settings hook.
type SettingsPayload struct {
	Identity KratosIdentity `json:"identity"`
}

type KratosIdentity struct {
	ID             string         `json:"id"`
	Traits         KratosTraits   `json:"traits"`
	MetadataPublic PublicMetadata `json:"metadata_public"`
}

type KratosTraits struct {
	Email string `json:"email"`
}

type PublicMetadata struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}
