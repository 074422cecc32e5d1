// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pgkvs_test

import (
	"context"
	"testing"
	"time"

	"github.com/fleetkeep/fleetkeep/internal/test/dbcontainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestKVSAgainstRealPostgres exercises the full Create/Load/Update/
// Delete cycle against a real, ephemeral postgres:16 podman container,
// as opposed to the sqlmock-driven unit tests in pgkvs_test.go. It
// requires a running podman.service and is skipped under -short.
func TestKVSAgainstRealPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("requires a podman-backed postgres container")
	}
	ctx := context.Background()
	_, kvs, dfrs, ok := dbcontainer.New(ctx, 60*time.Second, t)
	for _, f := range dfrs {
		defer f()
	}
	if !ok {
		return // failure already logged by dbcontainer.New
	}

	e, err := kvs.Create(ctx, "app:demo:1", []byte("payload-v1"))
	require.NoError(t, err)
	assert.Equal(t, "1", e.Revision)

	loaded, found, err := kvs.Load(ctx, "app:demo:1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("payload-v1"), loaded.Bytes)

	loaded.Bytes = []byte("payload-v2")
	updated, err := kvs.Update(ctx, loaded)
	require.NoError(t, err)
	assert.Equal(t, "2", updated.Revision)

	existed, err := kvs.Delete(ctx, "app:demo:1")
	require.NoError(t, err)
	assert.True(t, existed)
}
