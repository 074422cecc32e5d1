// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package sqlitekvs

import (
	"context"
	"errors"
	"testing"

	"github.com/fleetkeep/fleetkeep/pkg/core/cerr"
	"github.com/fleetkeep/fleetkeep/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKVS(t *testing.T) *KVS {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	k, err := Open(dsn)
	require.NoError(t, err)
	require.NoError(t, k.Initialize(context.Background()))
	return k
}

func TestKVSCreateLoadUpdateDelete(t *testing.T) {
	ctx := context.Background()
	k := newTestKVS(t)

	e, err := k.Create(ctx, "app:a:1", []byte("v1"))
	require.NoError(t, err)
	assert.Equal(t, "1", e.Revision)

	loaded, found, err := k.Load(ctx, "app:a:1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v1"), loaded.Bytes)

	loaded.Bytes = []byte("v2")
	updated, err := k.Update(ctx, loaded)
	require.NoError(t, err)
	assert.Equal(t, "2", updated.Revision)

	existed, err := k.Delete(ctx, "app:a:1")
	require.NoError(t, err)
	assert.True(t, existed)
}

func TestKVSCreateAlreadyExists(t *testing.T) {
	ctx := context.Background()
	k := newTestKVS(t)
	_, err := k.Create(ctx, "dup", []byte("a"))
	require.NoError(t, err)

	_, err = k.Create(ctx, "dup", []byte("b"))
	require.Error(t, err)
	var ce *cerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, cerr.AlreadyExists, ce.Kind)
}

func TestKVSUpdateStaleRevision(t *testing.T) {
	ctx := context.Background()
	k := newTestKVS(t)
	e, err := k.Create(ctx, "id1", []byte("v1"))
	require.NoError(t, err)

	_, err = k.Update(ctx, model.Entity{ID: e.ID, Bytes: []byte("v2"), Revision: e.Revision})
	require.NoError(t, err)

	_, err = k.Update(ctx, model.Entity{ID: e.ID, Bytes: []byte("v3"), Revision: e.Revision})
	require.Error(t, err)
	var ce *cerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, cerr.StaleRevision, ce.Kind)
}

func TestKVSEnumerate(t *testing.T) {
	ctx := context.Background()
	k := newTestKVS(t)
	_, err := k.Create(ctx, "a", []byte("x"))
	require.NoError(t, err)
	_, err = k.Create(ctx, "b", []byte("y"))
	require.NoError(t, err)

	ids, err := k.Enumerate(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}
