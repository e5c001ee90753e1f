// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package openfga

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	fga "github.com/openfga/go-sdk"
	"github.com/openfga/go-sdk/client"
	"github.com/openfga/go-sdk/credentials"

	"github.com/canonical/marketplace-service/internal/logging"
	"github.com/canonical/marketplace-service/internal/monitoring"
	"github.com/canonical/marketplace-service/internal/tracing"
)

type Client struct {
	c *client.OpenFgaClient

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (c *Client) Check(ctx context.Context, user, relation, object string, contextualTuples ...Tuple) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.Check")
	defer span.End()

	body := client.ClientCheckRequest{
		User:     user,
		Relation: relation,
		Object:   object,
	}
	if len(contextualTuples) > 0 {
		body.ContextualTuples = tupleKeys(contextualTuples)
	}

	r, err := c.c.Check(ctx).Body(body).Execute()
	if err != nil {
		return false, fmt.Errorf("failed to perform check: %w", err)
	}

	return r.GetAllowed(), nil
}

// BatchCheck returns true only if every tuple in the batch is allowed.
func (c *Client) BatchCheck(ctx context.Context, tuples ...TupleWithContext) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.BatchCheck")
	defer span.End()

	checks := make([]client.ClientBatchCheckItem, len(tuples))
	for i, t := range tuples {
		item := client.ClientBatchCheckItem{
			User:          t.User,
			Relation:      t.Relation,
			Object:        t.Object,
			CorrelationId: strconv.Itoa(i),
		}
		if len(t.ContextualTuples) > 0 {
			item.ContextualTuples = tupleKeys(t.ContextualTuples)
		}
		checks[i] = item
	}

	r, err := c.c.BatchCheck(ctx).Body(client.ClientBatchCheckRequest{Checks: checks}).Execute()
	if err != nil {
		return false, fmt.Errorf("failed to perform batch check: %w", err)
	}

	for id, res := range r.GetResult() {
		if res.Error != nil {
			return false, fmt.Errorf("failed to perform check %s: %s", id, res.Error.GetMessage())
		}
		if !res.GetAllowed() {
			return false, nil
		}
	}

	return true, nil
}

func (c *Client) ListObjects(ctx context.Context, user, relation, objectType string) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.ListObjects")
	defer span.End()

	r, err := c.c.ListObjects(ctx).Body(
		client.ClientListObjectsRequest{
			User:     user,
			Relation: relation,
			Type:     objectType,
		},
	).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	return r.GetObjects(), nil
}

func (c *Client) WriteTuple(ctx context.Context, user, relation, object string) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.WriteTuple")
	defer span.End()

	return c.WriteTuples(ctx, *NewTuple(user, relation, object))
}

func (c *Client) DeleteTuple(ctx context.Context, user, relation, object string) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.DeleteTuple")
	defer span.End()

	return c.DeleteTuples(ctx, *NewTuple(user, relation, object))
}

func (c *Client) WriteTuples(ctx context.Context, tuples ...Tuple) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.WriteTuples")
	defer span.End()

	_, err := c.c.Write(ctx).Body(
		client.ClientWriteRequest{Writes: clientTupleKeys(tuples)},
	).Execute()
	if err != nil {
		return fmt.Errorf("failed to write tuples: %w", err)
	}

	return nil
}

func (c *Client) DeleteTuples(ctx context.Context, tuples ...Tuple) error {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.DeleteTuples")
	defer span.End()

	_, err := c.c.Write(ctx).Body(
		client.ClientWriteRequest{Deletes: tupleKeysWithoutCondition(tuples)},
	).Execute()
	if err != nil {
		return fmt.Errorf("failed to delete tuples: %w", err)
	}

	return nil
}

func (c *Client) ReadTuples(ctx context.Context, user, relation, object, continuationToken string) (*client.ClientReadResponse, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.ReadTuples")
	defer span.End()

	body := client.ClientReadRequest{}
	if user != "" {
		body.User = &user
	}
	if relation != "" {
		body.Relation = &relation
	}
	if object != "" {
		body.Object = &object
	}

	r, err := c.c.Read(ctx).Body(body).Options(
		client.ClientReadOptions{ContinuationToken: &continuationToken},
	).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to read tuples: %w", err)
	}

	return r, nil
}

func (c *Client) ReadModel(ctx context.Context) (*fga.AuthorizationModel, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.ReadModel")
	defer span.End()

	r, err := c.c.ReadAuthorizationModel(ctx).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to read authorization model: %w", err)
	}

	return r.AuthorizationModel, nil
}

// CompareModel compares the type definitions and schema version of the model
// deployed in the store against the passed one. Model IDs are ignored.
func (c *Client) CompareModel(ctx context.Context, model fga.AuthorizationModel) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.CompareModel")
	defer span.End()

	deployed, err := c.ReadModel(ctx)
	if err != nil {
		return false, err
	}
	if deployed == nil {
		return false, nil
	}

	if deployed.SchemaVersion != model.SchemaVersion {
		return false, nil
	}

	a, err := json.Marshal(deployed.TypeDefinitions)
	if err != nil {
		return false, fmt.Errorf("failed to marshal deployed model: %w", err)
	}
	b, err := json.Marshal(model.TypeDefinitions)
	if err != nil {
		return false, fmt.Errorf("failed to marshal model: %w", err)
	}

	return string(a) == string(b), nil
}

func (c *Client) WriteModel(ctx context.Context, model *client.ClientWriteAuthorizationModelRequest) (string, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.WriteModel")
	defer span.End()

	r, err := c.c.WriteAuthorizationModel(ctx).Body(*model).Execute()
	if err != nil {
		return "", fmt.Errorf("failed to write authorization model: %w", err)
	}

	return r.GetAuthorizationModelId(), nil
}

func (c *Client) CreateStore(ctx context.Context, name string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "openfga.Client.CreateStore")
	defer span.End()

	r, err := c.c.CreateStore(ctx).Body(client.ClientCreateStoreRequest{Name: name}).Execute()
	if err != nil {
		return "", fmt.Errorf("failed to create store: %w", err)
	}

	return r.GetId(), nil
}

func (c *Client) SetStoreID(ctx context.Context, storeID string) {
	_, span := c.tracer.Start(ctx, "openfga.Client.SetStoreID")
	defer span.End()

	c.c.SetStoreId(storeID)
}

func NewClient(cfg *Config) *Client {
	c := new(Client)

	fgaConfig := client.ClientConfiguration{
		ApiScheme:            cfg.ApiScheme,
		ApiHost:              cfg.ApiHost,
		StoreId:              cfg.StoreID,
		AuthorizationModelId: cfg.AuthModelID,
	}

	if cfg.ApiToken != "" {
		fgaConfig.Credentials = &credentials.Credentials{
			Method: credentials.CredentialsMethodApiToken,
			Config: &credentials.Config{ApiToken: cfg.ApiToken},
		}
	}

	fgaClient, err := client.NewSdkClient(&fgaConfig)
	if err != nil {
		cfg.Logger.Fatalf("failed to create openfga client: %v", err)
	}

	c.c = fgaClient
	c.tracer = cfg.Tracer
	c.monitor = cfg.Monitor
	c.logger = cfg.Logger

	return c
}
