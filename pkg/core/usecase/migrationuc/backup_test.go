// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"context"
	"testing"

	"github.com/fleetkeep/fleetkeep/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupManagerNoopOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps()
	bm := NewBackupManager(deps.kvs, defaultTestSettings())

	err := bm.Run(ctx, model.SchemaVersion{0, 5, 0})
	require.NoError(t, err)

	ids, err := deps.kvs.Enumerate(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBackupManagerStoreThenRestore(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps()
	bm := NewBackupManager(deps.kvs, defaultTestSettings())
	from := model.SchemaVersion{0, 5, 0}

	_, err := deps.kvs.Create(ctx, "/marathon/state/app:a", []byte("alpha"))
	require.NoError(t, err)
	_, err = deps.kvs.Create(ctx, "/marathon/state/app:b", []byte("beta"))
	require.NoError(t, err)

	require.NoError(t, bm.Run(ctx, from))

	b0, found, err := deps.kvs.Load(ctx, "/marathon/backup_0.5.0/app:a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("alpha"), b0.Bytes)
	b1, found, err := deps.kvs.Load(ctx, "/marathon/backup_0.5.0/app:b")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("beta"), b1.Bytes)

	// Mutate the live state to prove restore overwrites it from backup.
	_, err = deps.kvs.Delete(ctx, "/marathon/state/app:a")
	require.NoError(t, err)
	_, err = deps.kvs.Create(ctx, "/marathon/state/app:c", []byte("rogue"))
	require.NoError(t, err)

	require.NoError(t, bm.Run(ctx, from))

	_, found, err = deps.kvs.Load(ctx, "/marathon/state/app:c")
	require.NoError(t, err)
	assert.False(t, found, "restore must delete every pre-existing live key first")

	restoredA, found, err := deps.kvs.Load(ctx, "/marathon/state/app:a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("alpha"), restoredA.Bytes)
	restoredB, found, err := deps.kvs.Load(ctx, "/marathon/state/app:b")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("beta"), restoredB.Bytes)
}

func TestBackupManagerPathMapping(t *testing.T) {
	bm := NewBackupManager(nil, testSettings{
		statePrefix: "/marathon/state", backupPrefix: "/marathon/backup",
	})
	assert.Equal(t, "/marathon/backup_1.2.3", bm.backupPath(model.SchemaVersion{1, 2, 3}))
}
