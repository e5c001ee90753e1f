// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package openfga

import (
	fga "github.com/openfga/go-sdk"
	"github.com/openfga/go-sdk/client"
)

type Tuple struct {
	User     string
	Relation string
	Object   string
}

func NewTuple(user, relation, object string) *Tuple {
	return &Tuple{User: user, Relation: relation, Object: object}
}

// TupleWithContext is a check target carrying its own contextual tuples,
// used for batched authorization checks.
type TupleWithContext struct {
	Tuple

	ContextualTuples []Tuple
}

func tupleKeys(tuples []Tuple) []fga.TupleKey {
	keys := make([]fga.TupleKey, len(tuples))
	for i, t := range tuples {
		keys[i] = fga.TupleKey{User: t.User, Relation: t.Relation, Object: t.Object}
	}
	return keys
}

func clientTupleKeys(tuples []Tuple) []client.ClientTupleKey {
	keys := make([]client.ClientTupleKey, len(tuples))
	for i, t := range tuples {
		keys[i] = client.ClientTupleKey{User: t.User, Relation: t.Relation, Object: t.Object}
	}
	return keys
}

func tupleKeysWithoutCondition(tuples []Tuple) []client.ClientTupleKeyWithoutCondition {
	keys := make([]client.ClientTupleKeyWithoutCondition, len(tuples))
	for i, t := range tuples {
		keys[i] = client.ClientTupleKeyWithoutCondition{User: t.User, Relation: t.Relation, Object: t.Object}
	}
	return keys
}
