// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package kratos

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	ory "github.com/ory/client-go"

	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/tracing"
	"github.com/canonical/marketplace-service/internal/types"
)

// ErrNoSession is the expected outcome of a session lookup for an
// unauthenticated caller. It is a recognised state, not a failure, and must
// never be logged or surfaced as an error.
var ErrNoSession = errors.New("no active session")

// ErrDuplicateIdentity reports that an identity with the same email already
// exists in Kratos. Callers map it to a conflict, not a server fault.
var ErrDuplicateIdentity = errors.New("identity already exists")

type ClientInterface interface {
	GetSession(ctx context.Context, sessionToken string) (*types.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (string, *types.Session, error)
	SignOut(ctx context.Context, sessionToken string) error
	CreateRecoveryCode(ctx context.Context, identityID string, expiresIn string) (string, string, error)
	UpdatePassword(ctx context.Context, identityID, newPassword string) error
	UpdateIdentityMetadata(ctx context.Context, identityID string, fields map[string]interface{}) error
	GetIdentityIDByEmail(ctx context.Context, email string) (string, error)

	// Privileged operations, used by the provisioning transaction only.
	CreateIdentity(ctx context.Context, email, password string) (string, error)
	DeleteIdentity(ctx context.Context, identityID string) error
}

type Client struct {
	public *ory.APIClient
	admin  *ory.APIClient

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewClient(kratosPublicURL, kratosAdminURL string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Client {
	publicConf := ory.NewConfiguration()
	publicConf.Servers = ory.ServerConfigurations{{URL: kratosPublicURL}}

	adminConf := ory.NewConfiguration()
	adminConf.Servers = ory.ServerConfigurations{{URL: kratosAdminURL}}

	return &Client{
		public:  ory.NewAPIClient(publicConf),
		admin:   ory.NewAPIClient(adminConf),
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// GetSession resolves the session behind a session token. A 401 from Kratos
// means "no session" and maps to ErrNoSession; anything else is a genuine
// transport or provider error.
func (c *Client) GetSession(ctx context.Context, sessionToken string) (*types.Session, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.GetSession")
	defer span.End()

	if sessionToken == "" {
		return nil, ErrNoSession
	}

	session, r, err := c.public.FrontendAPI.ToSession(ctx).XSessionToken(sessionToken).Execute()
	if err != nil {
		if r != nil && r.StatusCode == http.StatusUnauthorized {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	if session.Identity == nil {
		return nil, fmt.Errorf("session has no identity")
	}

	return sessionFromIdentity(session.Identity), nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (string, *types.Session, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.SignInWithPassword")
	defer span.End()

	flow, _, err := c.public.FrontendAPI.CreateNativeLoginFlow(ctx).Execute()
	if err != nil {
		return "", nil, fmt.Errorf("failed to create login flow: %w", err)
	}

	body := ory.UpdateLoginFlowWithPasswordMethod{
		Method:     "password",
		Identifier: email,
		Password:   password,
	}

	login, _, err := c.public.FrontendAPI.
		UpdateLoginFlow(ctx).
		Flow(flow.Id).
		UpdateLoginFlowBody(ory.UpdateLoginFlowWithPasswordMethodAsUpdateLoginFlowBody(&body)).
		Execute()
	if err != nil {
		return "", nil, fmt.Errorf("failed to submit login flow: %w", err)
	}

	token := ""
	if login.SessionToken != nil {
		token = *login.SessionToken
	}

	if login.Session.Identity == nil {
		return "", nil, fmt.Errorf("login session has no identity")
	}

	return token, sessionFromIdentity(login.Session.Identity), nil
}

func (c *Client) SignOut(ctx context.Context, sessionToken string) error {
	ctx, span := c.tracer.Start(ctx, "kratos.SignOut")
	defer span.End()

	body := ory.PerformNativeLogoutBody{SessionToken: sessionToken}
	if _, err := c.public.FrontendAPI.PerformNativeLogout(ctx).PerformNativeLogoutBody(body).Execute(); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	return nil
}

func (c *Client) GetIdentityIDByEmail(ctx context.Context, email string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.GetIdentityIDByEmail")
	defer span.End()

	// CredentialsIdentifier is the supported way to search by email on the
	// admin API. Kratos returns 200 with an empty list when there is no match.
	// NOTE: we are setting an empty page token because of https://github.com/ory/sdk/issues/461
	ids, r, err := c.admin.IdentityAPI.ListIdentities(ctx).CredentialsIdentifier(email).PageToken("").Execute()
	if err != nil {
		if r != nil && r.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to list identities: %w", err)
	}

	if len(ids) == 0 {
		return "", nil
	}

	return ids[0].Id, nil
}

func (c *Client) CreateIdentity(ctx context.Context, email, password string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.CreateIdentity")
	defer span.End()

	body := ory.CreateIdentityBody{
		SchemaId: "default",
		Traits: map[string]interface{}{
			"email": email,
		},
		Credentials: &ory.IdentityWithCredentials{
			Password: &ory.IdentityWithCredentialsPassword{
				Config: &ory.IdentityWithCredentialsPasswordConfig{
					Password: &password,
				},
			},
		},
	}

	identity, r, err := c.admin.IdentityAPI.CreateIdentity(ctx).CreateIdentityBody(body).Execute()
	if err != nil {
		if r != nil && r.StatusCode == http.StatusConflict {
			return "", ErrDuplicateIdentity
		}
		return "", fmt.Errorf("failed to create identity: %w", err)
	}

	return identity.Id, nil
}

func (c *Client) DeleteIdentity(ctx context.Context, identityID string) error {
	ctx, span := c.tracer.Start(ctx, "kratos.DeleteIdentity")
	defer span.End()

	if _, err := c.admin.IdentityAPI.DeleteIdentity(ctx, identityID).Execute(); err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}

	return nil
}

func (c *Client) CreateRecoveryCode(ctx context.Context, identityID string, expiresIn string) (string, string, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.CreateRecoveryCode")
	defer span.End()

	body := ory.CreateRecoveryCodeForIdentityBody{
		IdentityId: identityID,
		ExpiresIn:  &expiresIn,
	}

	recoveryCode, _, err := c.admin.IdentityAPI.CreateRecoveryCodeForIdentity(ctx).CreateRecoveryCodeForIdentityBody(body).Execute()
	if err != nil {
		return "", "", fmt.Errorf("failed to create recovery code: %w", err)
	}

	return recoveryCode.RecoveryLink, recoveryCode.RecoveryCode, nil
}

func (c *Client) UpdatePassword(ctx context.Context, identityID, newPassword string) error {
	ctx, span := c.tracer.Start(ctx, "kratos.UpdatePassword")
	defer span.End()

	identity, _, err := c.admin.IdentityAPI.GetIdentity(ctx, identityID).Execute()
	if err != nil {
		return fmt.Errorf("failed to get identity: %w", err)
	}

	body := ory.UpdateIdentityBody{
		SchemaId: identity.SchemaId,
		Traits:   traitsMap(identity),
		Credentials: &ory.IdentityWithCredentials{
			Password: &ory.IdentityWithCredentialsPassword{
				Config: &ory.IdentityWithCredentialsPasswordConfig{
					Password: &newPassword,
				},
			},
		},
	}

	if _, _, err := c.admin.IdentityAPI.UpdateIdentity(ctx, identityID).UpdateIdentityBody(body).Execute(); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// UpdateIdentityMetadata merges fields into the identity's public metadata.
// Used for profile decorations such as display name and avatar URL.
func (c *Client) UpdateIdentityMetadata(ctx context.Context, identityID string, fields map[string]interface{}) error {
	ctx, span := c.tracer.Start(ctx, "kratos.UpdateIdentityMetadata")
	defer span.End()

	identity, _, err := c.admin.IdentityAPI.GetIdentity(ctx, identityID).Execute()
	if err != nil {
		return fmt.Errorf("failed to get identity: %w", err)
	}

	metadata := map[string]interface{}{}
	for k, v := range identity.MetadataPublic {
		metadata[k] = v
	}
	for k, v := range fields {
		metadata[k] = v
	}

	body := ory.UpdateIdentityBody{
		SchemaId:       identity.SchemaId,
		Traits:         traitsMap(identity),
		MetadataPublic: metadata,
	}

	if _, _, err := c.admin.IdentityAPI.UpdateIdentity(ctx, identityID).UpdateIdentityBody(body).Execute(); err != nil {
		return fmt.Errorf("failed to update identity metadata: %w", err)
	}

	return nil
}

func sessionFromIdentity(identity *ory.Identity) *types.Session {
	s := &types.Session{SubjectID: identity.Id}

	if traits, ok := identity.Traits.(map[string]interface{}); ok {
		if email, ok := traits["email"].(string); ok {
			s.Email = email
		}
	}

	if name, ok := identity.MetadataPublic["display_name"].(string); ok {
		s.DisplayName = name
	}
	if avatar, ok := identity.MetadataPublic["avatar_url"].(string); ok {
		s.AvatarURL = avatar
	}

	return s
}

func traitsMap(identity *ory.Identity) map[string]interface{} {
	if traits, ok := identity.Traits.(map[string]interface{}); ok {
		return traits
	}
	return map[string]interface{}{}
}
