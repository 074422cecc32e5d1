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

func newTestOrchestrator(t *testing.T, current model.SchemaVersion) (testDeps, *Orchestrator) {
	t.Helper()
	deps := newTestDeps()
	reg := NewDefaultRegistry(deps.kvs, deps.apps, deps.groups, deps.tasks)
	o := NewOrchestrator(deps.kvs, reg, defaultTestSettings(), current)
	return deps, o
}

func TestOrchestratorFreshStartCommitsCurrentVersion(t *testing.T) {
	ctx := context.Background()
	_, o := newTestOrchestrator(t, model.SchemaVersion{0, 13, 0})

	v, err := o.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SchemaVersion{0, 13, 0}, v)

	stored, err := o.CurrentStorageVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SchemaVersion{0, 13, 0}, stored)
}

func TestOrchestratorGuardRejectsConcurrentMigration(t *testing.T) {
	ctx := context.Background()
	deps, o := newTestOrchestrator(t, model.SchemaVersion{0, 13, 0})
	_, err := deps.kvs.Create(ctx, inProgressKey, nil)
	require.NoError(t, err)

	_, err = o.Migrate(ctx)
	require.Error(t, err)
	var ce *cerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, cerr.MigrationAlreadyInProgress, ce.Kind)
}

func TestOrchestratorReleasesGuardOnSuccess(t *testing.T) {
	ctx := context.Background()
	deps, o := newTestOrchestrator(t, model.SchemaVersion{0, 13, 0})

	_, err := o.Migrate(ctx)
	require.NoError(t, err)

	_, found, err := deps.kvs.Load(ctx, inProgressKey)
	require.NoError(t, err)
	assert.False(t, found, "in-progress marker should be released after a successful migration")
}

func TestOrchestratorLeavesGuardOnFailure(t *testing.T) {
	ctx := context.Background()
	deps, o := newTestOrchestrator(t, model.SchemaVersion{0, 13, 0})

	// Persist an unsupported starting version to force APPLY to fail.
	v := model.SchemaVersion{0, 2, 0}
	_, err := deps.kvs.Create(ctx, versionKey, v.Serialize())
	require.NoError(t, err)

	_, err = o.Migrate(ctx)
	require.Error(t, err)

	_, found, err := deps.kvs.Load(ctx, inProgressKey)
	require.NoError(t, err)
	assert.True(t, found, "in-progress marker must remain set after a failed migration")
}

func TestOrchestratorRefusesLegacyVersions(t *testing.T) {
	ctx := context.Background()
	_, o := newTestOrchestrator(t, model.SchemaVersion{0, 13, 0})

	// from=(0,5,0) is above minSupportedStorageVersion (0,3,0), so it
	// reaches the registry, where the unconditional refusal step
	// targeting (0,7,0) is still applicable (its target is greater
	// than from) and must fail the whole APPLY phase.
	v := model.SchemaVersion{0, 5, 0}
	_, err := o.ApplyMigrationSteps(ctx, v)
	require.Error(t, err)
	var ce *cerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, cerr.MigrationFailed, ce.Kind)
}

func TestOrchestratorUnsupportedVersionBelowMinimum(t *testing.T) {
	ctx := context.Background()
	_, o := newTestOrchestrator(t, model.SchemaVersion{0, 13, 0})

	v := model.SchemaVersion{0, 2, 0}
	_, err := o.ApplyMigrationSteps(ctx, v)
	require.Error(t, err)
	var ce *cerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, cerr.UnsupportedVersion, ce.Kind)
}

func TestOrchestratorCurrentStorageVersionDefaultsWhenUnset(t *testing.T) {
	ctx := context.Background()
	_, o := newTestOrchestrator(t, model.SchemaVersion{0, 13, 0})
	v, err := o.CurrentStorageVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SchemaVersion{0, 13, 0}, v)
}
