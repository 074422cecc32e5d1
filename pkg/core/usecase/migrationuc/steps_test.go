// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"context"
	"errors"
	"testing"

	"github.com/fleetkeep/fleetkeep/pkg/core/cerr"
	"github.com/fleetkeep/fleetkeep/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepRefuseLegacy(t *testing.T) {
	err := stepRefuseLegacy(context.Background())
	require.Error(t, err)
	var ce *cerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, cerr.UnsupportedLegacy, ce.Kind)
}

func TestStepAddVersionInfoBackfillsHistory(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps()

	require.NoError(t, deps.groups.Store(ctx, model.RootGroupID, model.Group{
		ID:             model.RootGroupID,
		AppLiveVersion: map[string]model.AppVersionID{"a": 3},
	}))

	base := model.AppConfig{Cmd: "sleep 1", CPUs: 1, Mem: 128, Instances: 1}
	require.NoError(t, deps.apps.Store(ctx, model.AppVersionRecord{AppID: "a", Version: 1, Config: base}))
	scaled := base
	scaled.Instances = 3
	require.NoError(t, deps.apps.Store(ctx, model.AppVersionRecord{AppID: "a", Version: 2, Config: scaled}))
	upgraded := scaled
	upgraded.Cmd = "sleep 2"
	require.NoError(t, deps.apps.Store(ctx, model.AppVersionRecord{AppID: "a", Version: 3, Config: upgraded}))

	// Orphan app not referenced by the group; must be expunged.
	require.NoError(t, deps.apps.Store(ctx, model.AppVersionRecord{AppID: "orphan", Version: 1, Config: base}))

	step := stepAddVersionInfo(deps.apps, deps.groups)
	require.NoError(t, step(ctx))

	v1, found, err := deps.apps.Load(ctx, "a", 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.VersionInfo{LastConfigChangeAt: 1, LastScalingAt: 1}, v1.VersionInfo)

	v2, found, err := deps.apps.Load(ctx, "a", 2)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.VersionInfo{LastConfigChangeAt: 1, LastScalingAt: 2}, v2.VersionInfo)

	v3, found, err := deps.apps.Load(ctx, "a", 3)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.VersionInfo{LastConfigChangeAt: 3, LastScalingAt: 3}, v3.VersionInfo)

	orphanVersions, err := deps.apps.ListVersions(ctx, "orphan")
	require.NoError(t, err)
	assert.Empty(t, orphanVersions, "apps absent from the group must be expunged")
}

func TestStepRekeyTasksRewritesLegacyKeys(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps()

	legacy := model.EncodeLegacyTask(model.Task{ID: "t1", AppID: "a", Host: "h1", StartedAt: 42})
	legacyKey := "a:a.t1-instance"
	_, err := deps.kvs.Create(ctx, legacyKey, legacy)
	require.NoError(t, err)

	step := stepRekeyTasksAndRenameFrameworkID(deps.kvs, deps.tasks)
	require.NoError(t, step(ctx))

	_, found, err := deps.kvs.Load(ctx, legacyKey)
	require.NoError(t, err)
	assert.False(t, found, "legacy key must be expunged")

	raw, found, err := deps.tasks.LoadRaw(ctx, model.NewTaskKey("t1"))
	require.NoError(t, err)
	require.True(t, found)
	assert.NotEmpty(t, raw)
}

func TestStepRekeyTasksFailsOnCorruptRecord(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps()

	_, err := deps.kvs.Create(ctx, "a:a.broken", []byte{0xFF, 0xFF, 0xFF, 0xFF})
	require.NoError(t, err)

	step := stepRekeyTasksAndRenameFrameworkID(deps.kvs, deps.tasks)
	err = step(ctx)
	require.Error(t, err)
	var ce *cerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, cerr.CorruptLegacyTask, ce.Kind)
}

func TestRenameFrameworkID(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps()

	_, err := deps.kvs.Create(ctx, legacyFrameworkIDKey, []byte("abc-123"))
	require.NoError(t, err)

	require.NoError(t, renameFrameworkID(ctx, deps.kvs))

	e, found, err := deps.kvs.Load(ctx, frameworkIDKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("abc-123"), e.Bytes)

	_, found, err = deps.kvs.Load(ctx, legacyFrameworkIDKey)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRenameFrameworkIDNoopWhenNewKeyPresent(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps()

	_, err := deps.kvs.Create(ctx, frameworkIDKey, []byte("already-there"))
	require.NoError(t, err)
	_, err = deps.kvs.Create(ctx, legacyFrameworkIDKey, []byte("ignored"))
	require.NoError(t, err)

	require.NoError(t, renameFrameworkID(ctx, deps.kvs))

	e, found, err := deps.kvs.Load(ctx, frameworkIDKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("already-there"), e.Bytes)
}
