// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"encoding/json"
	"fmt"

	fga "github.com/openfga/go-sdk"
	"github.com/openfga/language/pkg/go/transformer"
)

// authModelV0 is the marketplace authorization model. Tenant membership and
// ownership mirror what the profiles table records, so FGA acts as a second
// opinion on top of the database checks rather than the source of truth.
//
// The privileged type groups platform operators: an admin of a privileged
// group gets edit access to every tenant linked to that group.
const authModelV0 = `
model
  schema 1.1

type user

type privileged
  relations
    define admin: [user]

type tenant
  relations
    define privileged: [privileged]
    define owner: [user]
    define member: [user] or owner
    define admin: admin from privileged
    define can_view: member or admin
    define can_edit: owner or admin
    define can_create: owner or admin
    define can_delete: owner or admin
`

type AuthorizationModelProvider struct {
	version string
}

func (p *AuthorizationModelProvider) GetModel() *fga.AuthorizationModel {
	model, err := p.loadModel()
	if err != nil {
		panic(fmt.Sprintf("invalid authorization model %s: %v", p.version, err))
	}
	return model
}

func (p *AuthorizationModelProvider) loadModel() (*fga.AuthorizationModel, error) {
	dsl, ok := map[string]string{"v0": authModelV0}[p.version]
	if !ok {
		return nil, fmt.Errorf("unknown model version %q", p.version)
	}

	generatedJSON, err := transformer.TransformDSLToJSON(dsl)
	if err != nil {
		return nil, fmt.Errorf("failed to transform DSL: %w", err)
	}

	model := new(fga.AuthorizationModel)
	if err := json.Unmarshal([]byte(generatedJSON), model); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}

	return model, nil
}

func NewAuthorizationModelProvider(version string) *AuthorizationModelProvider {
	return &AuthorizationModelProvider{version: version}
}
