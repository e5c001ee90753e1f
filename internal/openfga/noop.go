// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package openfga

import (
	"context"

	fga "github.com/openfga/go-sdk"
	"github.com/openfga/go-sdk/client"
)

// NoopClient is used when authorization enforcement is disabled. Checks
// always pass and writes are discarded.
type NoopClient struct{}

func (c *NoopClient) Check(ctx context.Context, user, relation, object string, contextualTuples ...Tuple) (bool, error) {
	return true, nil
}

func (c *NoopClient) BatchCheck(ctx context.Context, tuples ...TupleWithContext) (bool, error) {
	return true, nil
}

func (c *NoopClient) ListObjects(ctx context.Context, user, relation, objectType string) ([]string, error) {
	return []string{}, nil
}

func (c *NoopClient) WriteTuple(ctx context.Context, user, relation, object string) error {
	return nil
}

func (c *NoopClient) DeleteTuple(ctx context.Context, user, relation, object string) error {
	return nil
}

func (c *NoopClient) WriteTuples(ctx context.Context, tuples ...Tuple) error {
	return nil
}

func (c *NoopClient) DeleteTuples(ctx context.Context, tuples ...Tuple) error {
	return nil
}

func (c *NoopClient) ReadTuples(ctx context.Context, user, relation, object, continuationToken string) (*client.ClientReadResponse, error) {
	return &client.ClientReadResponse{Tuples: []fga.Tuple{}, ContinuationToken: ""}, nil
}

func (c *NoopClient) ReadModel(ctx context.Context) (*fga.AuthorizationModel, error) {
	return &fga.AuthorizationModel{}, nil
}

func (c *NoopClient) CompareModel(ctx context.Context, model fga.AuthorizationModel) (bool, error) {
	return true, nil
}

func NewNoopClient() *NoopClient {
	return new(NoopClient)
}
